package baroquectlcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/api"
	"go.cbdd.dev/baroquedb/auth"
	mbp "go.cbdd.dev/baroquedb/mainboilerplate"
	"go.cbdd.dev/baroquedb/server"
	"go.cbdd.dev/baroquedb/session"
	"go.cbdd.dev/baroquedb/task"
)

type cmdServe struct {
	SessionCfg
	Service     mbp.ServiceConfig     `group:"Service" namespace:"service" env-namespace:"SERVICE"`
	Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
	Auth        AuthConfig            `group:"Auth" namespace:"auth" env-namespace:"AUTH"`
	Cache       struct {
		Size int           `long:"size" env:"SIZE" default:"0" description:"Number of cached query responses. If <= zero, no cache is used"`
		TTL  time.Duration `long:"ttl" env:"TTL" default:"5m" description:"Time-to-live of cached query responses"`
	} `group:"Cache" namespace:"cache" env-namespace:"CACHE"`
}

func init() {
	CommandRegistry.AddCommand("", "serve", "Serve queries of a database image over HTTP", `
Serve the query and visualization API of a database image.

The image is loaded in the background: until it's ready, /api/status reports
initialization progress and query endpoints return 503. Diagnostics are
served under /debug/.

>    baroquectl serve --service.port 8080 --session.image https://example.org/baroque.db
`, &cmdServe{})
}

func (cmd *cmdServe) Execute([]string) error {
	startup()
	mbp.RegisterSignalHandlers()

	var srv, err = server.New(cmd.Service.Interface, cmd.Service.Port)
	mbp.Must(err, "building Server instance")
	srv.MaxConns = cmd.Service.MaxConns
	defer mbp.InitDiagnosticsAndRecover(cmd.Diagnostics, srv.HTTPMux)()

	log.WithFields(log.Fields{
		"id":       cmd.Service.ProcessID(),
		"endpoint": srv.Endpoint(),
		"image":    cmd.Session.Image,
	}).Info("starting baroquectl serve")

	var sess = mbp.MustSession(cmd.Session, cmd.Stores)
	var tasks = task.NewGroup(context.Background())

	// Cancel the task.Group upon SIGTERM or SIGINT.
	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	tasks.Queue("watch signalCh", func() error {
		select {
		case sig := <-signalCh:
			log.WithField("signal", sig).Info("caught signal")
			tasks.Cancel()
		case <-tasks.Context().Done():
		}
		return nil
	})

	if err = cmd.serve(tasks, srv, sess); err == nil {
		log.Info("goodbye")
	}
	return err
}

// serve the API of |sess| on |srv| and initialize |sess|, until the task.Group
// is cancelled.
func (cmd *cmdServe) serve(tasks *task.Group, srv *server.Server, sess *session.Session) error {
	var cfg = api.Config{CacheSize: cmd.Cache.Size, CacheTTL: cmd.Cache.TTL}

	if cmd.Auth.Keys != "" {
		var ka, err = auth.NewKeyedAuth(cmd.Auth.Keys)
		if err != nil {
			return err
		}
		cfg.Verifier = ka
	}
	var a, err = api.New(sess, cfg)
	if err != nil {
		return err
	}
	a.Register(srv.HTTPMux)
	srv.QueueTasks(tasks)

	tasks.Queue("session.Initialize", func() error {
		var _, err = sess.Initialize(tasks.Context(), cmd.Session.Image, logProgress)

		if err != nil && tasks.Context().Err() == nil {
			// The API continues to serve, reporting the failure from /api/status.
			log.WithField("err", err).Error("failed to initialize session")
		}
		return nil
	})

	tasks.GoRun()
	err = tasks.Wait()

	if closeErr := sess.Close(); err == nil {
		err = closeErr
	}
	return err
}
