package mainboilerplate

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// LogConfig configures handling of application log events.
type LogConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"warn" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" description:"Logging level"`
	Format string `long:"format" env:"FORMAT" default:"text" choice:"json" choice:"text" choice:"color" description:"Logging output format"`
}

// Formatter returns the logrus.Formatter of the configured Format.
func (cfg LogConfig) Formatter() (log.Formatter, error) {
	switch cfg.Format {
	case "json":
		return &log.JSONFormatter{}, nil
	case "", "text":
		return &log.TextFormatter{}, nil
	case "color":
		return &log.TextFormatter{ForceColors: true}, nil
	default:
		return nil, fmt.Errorf("unrecognized log format %q", cfg.Format)
	}
}

// InitLog configures the standard logger.
func InitLog(cfg LogConfig) {
	var fmtr, err = cfg.Formatter()
	if err != nil {
		log.WithField("err", err).Fatal("unrecognized log format")
	}
	log.SetFormatter(fmtr)

	if lvl, err := log.ParseLevel(cfg.Level); err != nil {
		log.WithField("err", err).Fatal("unrecognized log level")
	} else {
		log.SetLevel(lvl)
	}
}
