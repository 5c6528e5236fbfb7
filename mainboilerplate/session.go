package mainboilerplate

import (
	"time"

	"go.cbdd.dev/baroquedb/engine"
	"go.cbdd.dev/baroquedb/imagestore"
	"go.cbdd.dev/baroquedb/imagestore/fs"
	"go.cbdd.dev/baroquedb/imagestore/providers"
	"go.cbdd.dev/baroquedb/session"
)

// SessionConfig configures an analytics session and the image it loads.
type SessionConfig struct {
	Image        string        `long:"image" env:"IMAGE" default:"baroque.db" description:"URL or path of the database image to load. Relative references resolve against --session.base-url"`
	BaseURL      string        `long:"base-url" env:"BASE_URL" description:"Base URL of relative image references. If not set, they're paths of the local file system"`
	Bundle       string        `long:"bundle" env:"BUNDLE" default:"auto" choice:"auto" choice:"mvp" choice:"eh" description:"Engine bundle. 'auto' selects from capabilities of this binary"`
	FileName     string        `long:"file-name" env:"FILE_NAME" default:"baroque.db" description:"Name under which the image is registered with the engine"`
	DatabaseName string        `long:"database" env:"DATABASE" default:"baroque" description:"Schema name under which the image is attached"`
	WorkDir      string        `long:"work-dir" env:"WORK_DIR" description:"Directory of registered image files. A temporary directory is used if not set"`
	InitTimeout  time.Duration `long:"init-timeout" env:"INIT_TIMEOUT" default:"0s" description:"Bound on session initialization. Zero means no bound"`
}

// StoreConfig configures the image stores available to a session.
type StoreConfig struct {
	FileRoot    string `long:"file-root" env:"FILE_ROOT" default:"/" description:"Local path which roots file:// image URLs"`
	CloudStores bool   `long:"cloud" env:"CLOUD" description:"Enable s3://, gs://, azure:// and azure-ad:// image stores"`
}

// Registry returns an imagestore.Registry of the StoreConfig.
func (cfg StoreConfig) Registry() *imagestore.Registry {
	if cfg.FileRoot != "" {
		fs.FileSystemStoreRoot = cfg.FileRoot
	}
	if cfg.CloudStores {
		return imagestore.NewRegistry(providers.All())
	}
	return imagestore.NewRegistry(providers.Local())
}

// Options builds session.Options of the SessionConfig, fetching images
// through |stores|.
func (cfg SessionConfig) Options(stores *imagestore.Registry) (session.Options, error) {
	var opts = session.Options{
		BaseURL:      cfg.BaseURL,
		Stores:       stores,
		FileName:     cfg.FileName,
		DatabaseName: cfg.DatabaseName,
		WorkDir:      cfg.WorkDir,
		InitTimeout:  cfg.InitTimeout,
	}
	if b, ok, err := engine.ParseBundle(cfg.Bundle); err != nil {
		return session.Options{}, err
	} else if ok {
		opts.Bundle = b
	}
	if opts.DatabaseName != "" {
		if err := engine.ValidateSchemaName(opts.DatabaseName); err != nil {
			return session.Options{}, err
		}
	}
	return opts, nil
}

// MustSession returns a new session.Session of the configs.
func MustSession(cfg SessionConfig, stores StoreConfig) *session.Session {
	var opts, err = cfg.Options(stores.Registry())
	Must(err, "invalid session configuration")
	return session.New(opts)
}
