package mainboilerplate

import (
	"fmt"
	"os"

	petname "github.com/dustinkirkland/golang-petname"
)

// ServiceConfig represents identification and addressing configuration of the process.
type ServiceConfig struct {
	ID        string `long:"id" env:"ID" description:"Unique ID of this process. Auto-generated if not set"`
	Host      string `long:"host" env:"HOST" description:"Addressable, advertised hostname or IP of this process. Hostname is used if not set"`
	Interface string `long:"interface" env:"INTERFACE" description:"Network interface to bind. All interfaces are bound if not set"`
	Port      uint16 `long:"port" env:"PORT" default:"8080" description:"Service port for HTTP requests. A random port is used if zero"`
	MaxConns  int    `long:"max-conns" env:"MAX_CONNS" default:"0" description:"Maximum number of concurrently served connections. Zero means no bound"`
}

// ProcessID returns the configured ID, or generates a memorable one.
func (cfg ServiceConfig) ProcessID() string {
	if cfg.ID != "" {
		return cfg.ID
	}
	return petname.Generate(2, "-")
}

// AdvertisedHost returns the configured Host, or the hostname if not set.
func (cfg ServiceConfig) AdvertisedHost() string {
	if cfg.Host != "" {
		return cfg.Host
	}
	var host, err = os.Hostname()
	Must(err, "failed to determine hostname")
	return host
}

// Endpoint advertised by a process bound to |port|.
func (cfg ServiceConfig) Endpoint(port int) string {
	return fmt.Sprintf("http://%s:%d", cfg.AdvertisedHost(), port)
}
