package mainboilerplate

import "github.com/jessevdk/go-flags"

// AddCommandFunc adds a sub-command to a parent flags.Command.
type AddCommandFunc func(*flags.Command) error

// CommandRegistry collects sub-commands by the dotted name of their parent,
// so that packages may register commands from init() before the parser
// they'll attach to exists.
type CommandRegistry map[string][]AddCommandFunc

// NewCommandRegistry returns an empty CommandRegistry.
func NewCommandRegistry() CommandRegistry { return make(CommandRegistry) }

// AddCommand registers |command| beneath |parentName|, which is "" for the
// root command, or a dotted path such as "db.inspect".
func (cr CommandRegistry) AddCommand(parentName, command, short, long string, data interface{}) {
	cr[parentName] = append(cr[parentName], func(cmd *flags.Command) error {
		var _, err = cmd.AddCommand(command, short, long, data)
		return err
	})
}

// AddCommands adds commands registered under |rootName| to |rootCmd|. If
// |recursive|, commands registered beneath those commands are added too.
func (cr CommandRegistry) AddCommands(rootName string, rootCmd *flags.Command, recursive bool) error {
	for _, fn := range cr[rootName] {
		if err := fn(rootCmd); err != nil {
			return err
		}
	}
	if !recursive {
		return nil
	}
	for _, cmd := range rootCmd.Commands() {
		var name = cmd.Name
		if rootName != "" {
			name = rootName + "." + name
		}
		if err := cr.AddCommands(name, cmd, true); err != nil {
			return err
		}
	}
	return nil
}
