package engine

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/async"
	"go.cbdd.dev/baroquedb/metrics"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

var (
	// ErrWorkerClosed is returned by operations of a closed Worker.
	ErrWorkerClosed = errors.New("engine worker closed")
	// ErrNotInstantiated is returned by operations requiring an instantiated engine.
	ErrNotInstantiated = errors.New("engine not instantiated")
	// ErrNotConnected is returned by operations requiring an open connection.
	ErrNotConnected = errors.New("engine connection not open")
)

// Worker owns one engine instance and executes its operations on a
// dedicated goroutine. Worker methods may be called concurrently; they're
// serialized in arrival order.
type Worker struct {
	bundle Bundle

	reqCh   chan *request
	quit    async.Promise
	stopped async.Promise
	closeMu sync.Once

	// Fields below are owned by the serve goroutine.
	db   *sql.DB
	conn *sql.Conn
}

type request struct {
	ctx  context.Context
	fn   func(context.Context) error
	err  error
	done async.Promise
}

// Start a Worker of the Bundle. The Bundle's driver must be registered.
func Start(bundle Bundle) (*Worker, error) {
	var found bool
	for _, d := range sql.Drivers() {
		if d == bundle.Driver {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("engine driver %q of bundle %s is not registered", bundle.Driver, bundle.Name)
	}

	var w = &Worker{
		bundle:  bundle,
		reqCh:   make(chan *request),
		quit:    async.NewPromise(),
		stopped: async.NewPromise(),
	}
	go w.serve()
	metrics.EngineWorkersActive.Inc()

	log.WithFields(log.Fields{
		"bundle": bundle.Name,
		"driver": bundle.Driver,
	}).Debug("started engine worker")

	return w, nil
}

// Bundle of the Worker.
func (w *Worker) Bundle() Bundle { return w.bundle }

// Instantiate the engine against an in-memory main database, and verify it responds.
func (w *Worker) Instantiate(ctx context.Context) error {
	return w.do(ctx, func(ctx context.Context) error {
		if w.db != nil {
			return nil // Already instantiated.
		}
		var db, err = sql.Open(w.bundle.Driver, ":memory:")
		if err != nil {
			return errors.Wrap(err, "opening engine")
		}
		// ATTACH and PRAGMAs are connection-scoped. Never open a second one.
		db.SetMaxOpenConns(1)

		if err = db.PingContext(ctx); err != nil {
			_ = db.Close()
			return errors.Wrap(err, "pinging engine")
		}
		w.db = db
		metrics.EngineInstancesTotal.WithLabelValues(w.bundle.Name).Inc()
		return nil
	})
}

// Connect pins the logical connection used by all further operations.
func (w *Worker) Connect(ctx context.Context) error {
	return w.do(ctx, func(ctx context.Context) error {
		if w.db == nil {
			return ErrNotInstantiated
		} else if w.conn != nil {
			return nil // Already connected.
		}
		var conn, err = w.db.Conn(ctx)
		if err != nil {
			return errors.Wrap(err, "opening connection")
		}
		w.conn = conn
		return nil
	})
}

// Attach the immutable database file at |path| under |schema|. The file is
// opened read-only, and no further databases may be attached to the
// connection afterwards: statements can neither write the image nor open
// other files of the host (ATTACH, VACUUM INTO).
func (w *Worker) Attach(ctx context.Context, path, schema string) error {
	if err := ValidateSchemaName(schema); err != nil {
		return err
	}
	return w.do(ctx, func(ctx context.Context) error {
		if w.conn == nil {
			return ErrNotConnected
		}
		if _, err := w.conn.ExecContext(ctx, fmt.Sprintf("ATTACH DATABASE ? AS %q", schema), readOnlyURI(path)); err != nil {
			return errors.WithMessagef(err, "attaching %s", path)
		}
		if err := w.limit(sqlitelib.SQLITE_LIMIT_ATTACHED, 0); err != nil {
			return errors.WithMessage(err, "limiting attached databases")
		}
		if _, err := w.conn.ExecContext(ctx, "PRAGMA query_only = 1"); err != nil {
			return errors.WithMessage(err, "setting connection read-only")
		}
		return nil
	})
}

// limit sets run-time limit |id| of the pinned connection to |value|.
func (w *Worker) limit(id, value int) error {
	var set bool
	if err := w.conn.Raw(func(driverConn interface{}) error {
		set = setNativeLimit(driverConn, id, value)
		return nil
	}); err != nil {
		return err
	}
	if set {
		return nil
	}
	var _, err = sqlite.Limit(w.conn, id, value)
	return err
}

// readOnlyURI returns the URI filename which opens |path| read-only and
// immutable.
func readOnlyURI(path string) string {
	var u = url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(path),
		RawQuery: "mode=ro&immutable=1",
	}
	return u.String()
}

// Use selects |schema| as the active database. The engine resolves
// unqualified table names through attached schemas once the main database
// holds none, so Use verifies that |schema| is attached and readable.
func (w *Worker) Use(ctx context.Context, schema string) error {
	if err := ValidateSchemaName(schema); err != nil {
		return err
	}
	return w.do(ctx, func(ctx context.Context) error {
		if w.conn == nil {
			return ErrNotConnected
		}
		var tables int
		var row = w.conn.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %q.sqlite_master WHERE type = 'table'", schema))

		if err := row.Scan(&tables); err != nil {
			return errors.WithMessagef(err, "reading schema of %s", schema)
		}
		log.WithFields(log.Fields{
			"schema": schema,
			"tables": tables,
		}).Debug("using attached database")
		return nil
	})
}

// Result is a decoded statement result, column-major in the engine but
// returned here as rows of raw driver values.
type Result struct {
	// Columns of the Result, in engine order.
	Columns []string
	// DatabaseTypes are engine type names of Columns, where known.
	DatabaseTypes []string
	// Rows of raw values, each having len(Columns) values.
	Rows [][]interface{}
}

// Query runs the statement on the pinned connection and reads its complete
// result. No partial Result is returned on error.
func (w *Worker) Query(ctx context.Context, query string, args ...interface{}) (*Result, error) {
	var out *Result

	var err = w.do(ctx, func(ctx context.Context) error {
		if w.conn == nil {
			return ErrNotConnected
		}
		var rows, err = w.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		var result Result
		if result.Columns, err = rows.Columns(); err != nil {
			return err
		}
		if types, err := rows.ColumnTypes(); err == nil {
			for _, t := range types {
				result.DatabaseTypes = append(result.DatabaseTypes, t.DatabaseTypeName())
			}
		}

		for rows.Next() {
			var values = make([]interface{}, len(result.Columns))
			var dest = make([]interface{}, len(values))
			for i := range values {
				dest[i] = &values[i]
			}
			if err = rows.Scan(dest...); err != nil {
				return err
			}
			result.Rows = append(result.Rows, values)
		}
		if err = rows.Err(); err != nil {
			return err
		}
		out = &result
		return nil
	})
	return out, err
}

// Close stops the Worker and releases its connection and engine.
func (w *Worker) Close() error {
	w.closeMu.Do(func() {
		w.quit.Resolve()
		metrics.EngineWorkersActive.Dec()
	})
	w.stopped.Wait()
	return nil
}

func (w *Worker) do(ctx context.Context, fn func(context.Context) error) error {
	var req = &request{ctx: ctx, fn: fn, done: async.NewPromise()}

	select {
	case w.reqCh <- req:
	case <-w.stopped:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// |fn| observes |ctx|, so this returns promptly on cancellation.
	req.done.Wait()
	return req.err
}

func (w *Worker) serve() {
	defer w.stopped.Resolve()
	defer w.release()

	for {
		select {
		case req := <-w.reqCh:
			req.err = req.fn(req.ctx)
			req.done.Resolve()
		case <-w.quit:
			return
		}
	}
}

func (w *Worker) release() {
	if w.conn != nil {
		if err := w.conn.Close(); err != nil {
			log.WithField("err", err).Warn("failed to close engine connection")
		}
		w.conn = nil
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			log.WithField("err", err).Warn("failed to close engine")
		}
		w.db = nil
	}
}

// ValidateSchemaName returns an error if |name| isn't usable as the name of
// an attached database.
func ValidateSchemaName(name string) error {
	if !schemaNameRe.MatchString(name) {
		return fmt.Errorf("invalid database name %q (expected %s)", name, schemaNameRe.String())
	}
	switch name {
	case "main", "temp":
		return fmt.Errorf("database name %q is reserved", name)
	}
	return nil
}

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)
