package mainboilerplate

import (
	_ "expvar" // Import for /debug/vars
	"fmt"
	"net/http"
	_ "net/http/pprof" // Import for /debug/pprof
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// DiagnosticsConfig configures pull-based application metrics, debugging and diagnostics.
type DiagnosticsConfig struct {
	Disable bool `long:"disable" env:"DISABLE" description:"Disable serving of /debug/ endpoints"`
}

// InitDiagnosticsAndRecover registers metrics and debugging services with
// |mux|, unless disabled. It also returns a closure which should be deferred,
// which recovers a panic and attempts to log a K8s termination message.
//
//	/debug/ready    Liveness check.
//	/debug/metrics  Prometheus metrics.
//	/debug/pprof/   Profiles (package net/http/pprof).
//	/debug/vars     Exported variables (package expvar).
func InitDiagnosticsAndRecover(cfg DiagnosticsConfig, mux *http.ServeMux) func() {
	if !cfg.Disable {
		mux.HandleFunc("/debug/ready", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/debug/metrics", promhttp.Handler())

		if mux != http.DefaultServeMux {
			// pprof and expvar register with the default mux.
			mux.Handle("/debug/pprof/", http.DefaultServeMux)
			mux.Handle("/debug/vars", http.DefaultServeMux)
		}
	}

	return func() {
		if r := recover(); r != nil {
			// Make a best effort attempt to write a termination message.
			if f, err := os.OpenFile(k8sTerminationLog, os.O_WRONLY, 0777); err == nil {
				fmt.Fprintf(f, "%+v", r)
				f.Close()
			}
			panic(r)
		}
	}
}

// Must panics if |err| is non-nil, supplying |msg| and |extra| as
// formatter and fields of the generated panic.
func Must(err error, msg string, extra ...interface{}) {
	if err == nil {
		return
	}
	var f = log.Fields{"err": err}
	for i := 0; i+1 < len(extra); i += 2 {
		f[extra[i].(string)] = extra[i+1]
	}
	log.WithFields(f).Panic(msg)
}

// k8sTerminationLog is the location to write a termination message for
// Kubernetes to retrieve.
const k8sTerminationLog = "/dev/termination-log"
