package baroquectlcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.cbdd.dev/baroquedb/session"
)

type cmdTables struct {
	SessionCfg
	OutputConfig
}

func init() {
	CommandRegistry.AddCommand("", "tables", "List tables and views of a database image", `
Load a database image and list its tables and views, with their row counts.

>    baroquectl tables --session.image https://example.org/baroque.db
`, &cmdTables{})
}

func (cmd *cmdTables) Execute([]string) error {
	startup()
	return cmd.run(context.Background(), os.Stdout)
}

func (cmd *cmdTables) run(ctx context.Context, w io.Writer) error {
	var sess, err = cmd.initialize(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var schema = quoteIdent(cmd.Session.DatabaseName)

	tables, err := sess.Query(ctx, `
		SELECT name, type FROM `+schema+`.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return err
	}

	var out = make([]session.Row, 0, len(tables))
	for _, table := range tables {
		var name, _ = table.Get("name")
		var typ, _ = table.Get("type")

		counts, err := sess.Query(ctx, `SELECT COUNT(*) AS n FROM `+schema+`.`+quoteIdent(fmt.Sprint(name)))
		if err != nil {
			return err
		}
		var count, _ = counts[0].Get("n")

		out = append(out, session.NewRow(
			[]string{"name", "type", "rows"},
			[]interface{}{name, typ, count},
		))
	}
	return cmd.write(w, out)
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
