package baroquectlcmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/codecs"
	"go.cbdd.dev/baroquedb/imagestore"
	mbp "go.cbdd.dev/baroquedb/mainboilerplate"
)

type cmdFetch struct {
	Stores  mbp.StoreConfig `group:"Stores" namespace:"stores" env-namespace:"STORES"`
	BaseURL string          `long:"base-url" env:"BASE_URL" description:"Base URL of a relative image reference"`
	Output  string          `long:"output" short:"o" required:"true" description:"Path to which the decompressed image is written. Use '-' for stdout"`
}

func init() {
	CommandRegistry.AddCommand("", "fetch", "Fetch and decompress a database image", `
Fetch a database image from its store, decompress it according to its
extension, and write it to a local path.

>    baroquectl fetch --stores.cloud -o baroque.db s3://bucket/images/baroque.db.zst
`, &cmdFetch{})
}

func (cmd *cmdFetch) Execute(args []string) error {
	startup()

	if len(args) != 1 {
		return errors.New("expected exactly one image reference")
	}
	var w io.Writer = os.Stdout

	if cmd.Output != "-" {
		var f, err = os.Create(cmd.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	var n, err = cmd.fetch(context.Background(), cmd.Stores.Registry(), args[0], w)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"output": cmd.Output,
		"size":   humanize.Bytes(uint64(n)),
	}).Info("fetched database image")

	if f, ok := w.(*os.File); ok && f != os.Stdout {
		return f.Close()
	}
	return nil
}

func (cmd *cmdFetch) fetch(ctx context.Context, stores *imagestore.Registry, ref string, w io.Writer) (int64, error) {
	var ep, err = imagestore.Resolve(cmd.BaseURL, ref)
	if err != nil {
		return 0, err
	}
	_, rc, err := stores.Open(ctx, ep)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	dec, err := codecs.NewCodecReader(rc, codecs.CodecFor(ep.Path))
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	return io.Copy(w, dec)
}
