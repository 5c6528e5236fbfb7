// Package server binds and serves the HTTP surface of a process.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/keepalive"
	"go.cbdd.dev/baroquedb/task"
	"golang.org/x/net/netutil"
)

// ShutdownTimeout bounds the draining of in-flight requests upon shutdown.
var ShutdownTimeout = 10 * time.Second

// Server serves HTTP over a bound TCP socket.
type Server struct {
	// RawListener is the bound TCP listener of the Server.
	RawListener *net.TCPListener
	// HTTPMux is the http.ServeMux which is served by QueueTasks.
	HTTPMux *http.ServeMux
	// HTTPServer serving HTTPMux.
	HTTPServer *http.Server
	// Ctx is cancelled when the Server begins shutting down.
	Ctx context.Context
	// MaxConns bounds the number of concurrently served connections.
	// Zero means no bound.
	MaxConns int

	cancel context.CancelFunc
}

// New builds and returns a Server of the given TCP network interface |iface|
// and |port|. |port| may be zero, in which case a random free port is assigned.
func New(iface string, port uint16) (*Server, error) {
	var addr = fmt.Sprintf("%s:%d", iface, port)

	var raw, err = net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to bind service address (%s)", addr)
	}
	var ctx, cancel = context.WithCancel(context.Background())
	var mux = http.NewServeMux()

	return &Server{
		RawListener: raw.(*net.TCPListener),
		HTTPMux:     mux,
		HTTPServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		Ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Endpoint of the Server.
func (s *Server) Endpoint() string {
	return "http://" + s.RawListener.Addr().String()
}

// QueueTasks serving the HTTPServer onto the task.Group. The Server shuts
// down gracefully when the task.Group is cancelled.
func (s *Server) QueueTasks(tg *task.Group) {
	tg.Queue("http.Serve", func() error {
		log.WithField("endpoint", s.Endpoint()).Info("serving HTTP")

		var ln net.Listener = keepalive.TCPListener{TCPListener: s.RawListener}
		if s.MaxConns > 0 {
			ln = netutil.LimitListener(ln, s.MaxConns)
		}
		var err = s.HTTPServer.Serve(ln)
		if err == http.ErrServerClosed || s.Ctx.Err() != nil {
			return nil // Swallow error after shutdown.
		}
		return err
	})
	tg.Queue("http.Shutdown", func() error {
		<-tg.Context().Done() // Block until task.Group is cancelled.
		s.cancel()

		var ctx, cancel = context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		return s.HTTPServer.Shutdown(ctx)
	})
}
