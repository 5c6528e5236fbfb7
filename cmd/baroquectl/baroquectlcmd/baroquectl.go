// Package baroquectlcmd implements the sub-commands of baroquectl.
package baroquectlcmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	mbp "go.cbdd.dev/baroquedb/mainboilerplate"
	"go.cbdd.dev/baroquedb/session"
)

const iniFilename = "baroquectl.ini"

var (
	baseCfg = new(struct {
		Log mbp.LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
	})

	// CommandRegistry of baroquectl sub-commands, populated by init().
	CommandRegistry = mbp.NewCommandRegistry()
)

// SessionCfg is configuration common to commands which load a database image.
type SessionCfg struct {
	Session mbp.SessionConfig `group:"Session" namespace:"session" env-namespace:"SESSION"`
	Stores  mbp.StoreConfig   `group:"Stores" namespace:"stores" env-namespace:"STORES"`
}

// initialize a Session of the SessionCfg, blocking until it's Ready.
func (cfg SessionCfg) initialize(ctx context.Context) (*session.Session, error) {
	var sess = mbp.MustSession(cfg.Session, cfg.Stores)

	if _, err := sess.Initialize(ctx, cfg.Session.Image, logProgress); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return sess, nil
}

func logProgress(p session.Progress) {
	log.WithField("percent", p.Percent).Info(p.Message)
}

// OutputConfig is common configuration of commands which output rows.
type OutputConfig struct {
	Format string `long:"format" short:"o" choice:"table" choice:"json" choice:"yaml" default:"table" description:"Output format"`
}

func (cfg OutputConfig) write(w io.Writer, rows []session.Row) error {
	return writeRows(w, rows, cfg.Format)
}

func startup() {
	mbp.InitLog(baseCfg.Log)
}

// Execute parses configuration and runs the selected sub-command.
func Execute() {
	var parser = flags.NewParser(baseCfg, flags.Default)

	mbp.AddPrintConfigCmd(parser, iniFilename)
	parser.LongDescription = fmt.Sprintf(`baroquectl loads analytics database images and queries them.

	See --help pages of each sub-command for documentation and usage examples.
	Optionally configure baroquectl with a '%[1]s' file in the current working directory,
	or with '~/.config/baroque/%[1]s'. Use the 'print-config' sub-command to inspect
	the tool's current configuration.
	`, iniFilename)

	mbp.Must(CommandRegistry.AddCommands("", parser.Command, true), "could not add subcommand")
	mbp.MustParseConfig(parser, iniFilename)
}
