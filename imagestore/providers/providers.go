// Package providers enumerates the image Store constructors of each
// supported URL scheme.
package providers

import (
	"go.cbdd.dev/baroquedb/imagestore"
	"go.cbdd.dev/baroquedb/imagestore/azure"
	"go.cbdd.dev/baroquedb/imagestore/fs"
	"go.cbdd.dev/baroquedb/imagestore/gcs"
	"go.cbdd.dev/baroquedb/imagestore/http"
	"go.cbdd.dev/baroquedb/imagestore/s3"
)

// All returns Constructors of every supported scheme.
func All() map[string]imagestore.Constructor {
	return map[string]imagestore.Constructor{
		"http":     http.New,
		"https":    http.New,
		"file":     fs.New,
		"s3":       s3.New,
		"gs":       gcs.New,
		"azure":    azure.NewAccount,
		"azure-ad": azure.NewAD,
	}
}

// Local returns Constructors of schemes requiring no cloud credentials.
func Local() map[string]imagestore.Constructor {
	return map[string]imagestore.Constructor{
		"http":  http.New,
		"https": http.New,
		"file":  fs.New,
	}
}
