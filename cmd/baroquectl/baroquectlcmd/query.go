package baroquectlcmd

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

type cmdQuery struct {
	SessionCfg
	OutputConfig
	Args    []string      `long:"arg" short:"a" description:"Argument bound to the next statement placeholder. May be repeated"`
	Timeout time.Duration `long:"timeout" default:"0s" description:"Bound on the query's execution. Zero means no bound"`
}

func init() {
	CommandRegistry.AddCommand("", "query", "Run a SQL query against a database image", `
Load a database image and run a read-only SQL query against it.

The statement is given as the command's arguments. Placeholders ('?') are
bound in order to values of repeated --arg flags.

Query the image fetched from a URL:
>    baroquectl query --session.image https://example.org/baroque.db \
>        "SELECT name, year FROM paintings ORDER BY year"

Query a gzip-compressed local image, with a bound argument, as YAML:
>    baroquectl query --session.image ./baroque.db.gz -o yaml \
>        --arg 1750 "SELECT * FROM paintings WHERE year > ?"

Images are attached read-only under --session.database ("baroque" by
default), and their tables may also be qualified by that name.
`, &cmdQuery{})
}

func (cmd *cmdQuery) Execute(args []string) error {
	startup()
	return cmd.run(context.Background(), os.Stdout, args)
}

func (cmd *cmdQuery) run(ctx context.Context, w io.Writer, args []string) error {
	var sql = strings.TrimSpace(strings.Join(args, " "))
	if sql == "" {
		return errors.New("expected a SQL statement")
	}

	var sess, err = cmd.initialize(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if cmd.Timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	var qArgs = make([]interface{}, len(cmd.Args))
	for i, a := range cmd.Args {
		qArgs[i] = a
	}
	rows, err := sess.Query(ctx, sql, qArgs...)
	if err != nil {
		return err
	}
	return cmd.write(w, rows)
}
