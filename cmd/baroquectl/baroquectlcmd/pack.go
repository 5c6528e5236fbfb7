package baroquectlcmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/codecs"
)

type cmdPack struct {
	Codec  string `long:"codec" short:"c" choice:"gzip" choice:"snappy" choice:"zstd" default:"gzip" description:"Compression codec of the packed image"`
	Output string `long:"output" short:"o" description:"Path of the packed image. Defaults to the input path with the codec's extension"`
	Force  bool   `long:"force" short:"f" description:"Overwrite an existing output file"`
}

func init() {
	CommandRegistry.AddCommand("", "pack", "Compress a database image for publishing", `
Compress a local database image with a codec, for publishing to a store from
which sessions will fetch it. Sessions infer the codec of an image from its
extension (".gz", ".sz", or ".zst").

>    baroquectl pack --codec zstd ./baroque.db
`, &cmdPack{})
}

// sqliteHeader prefixes every database image.
var sqliteHeader = []byte("SQLite format 3\x00")

func (cmd *cmdPack) Execute(args []string) error {
	startup()

	if len(args) != 1 {
		return errors.New("expected exactly one database image path")
	}
	var size, err = cmd.pack(args[0])
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"output": cmd.Output,
		"size":   humanize.Bytes(uint64(size)),
	}).Info("packed database image")
	return nil
}

// pack the image at |input|, returning the packed size.
func (cmd *cmdPack) pack(input string) (int64, error) {
	var codec, err = codecs.ParseCodec(cmd.Codec)
	if err != nil {
		return 0, err
	}
	if cmd.Output == "" {
		cmd.Output = input + codec.Extension()
	}

	src, err := os.Open(input)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	var header = make([]byte, len(sqliteHeader))
	if _, err = io.ReadFull(src, header); err != nil || !bytes.Equal(header, sqliteHeader) {
		return 0, fmt.Errorf("%s is not a database image", input)
	}

	var flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if cmd.Force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	dst, err := os.OpenFile(cmd.Output, flag, 0644)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	cw, err := codecs.NewCodecWriter(dst, codec)
	if err != nil {
		return 0, err
	}
	if _, err = io.Copy(cw, io.MultiReader(bytes.NewReader(header), src)); err != nil {
		return 0, err
	} else if err = cw.Close(); err != nil {
		return 0, err
	}

	info, err := dst.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), dst.Close()
}
