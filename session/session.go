// Package session implements an embedded-analytics session: it owns an
// in-process SQL engine, loads a serialized database image into it, and
// answers read-only queries against that image.
//
// A Session is initialized at most once at a time. Concurrent calls to
// Initialize share a single attempt, which fetches the image and
// instantiates the engine exactly once. A failed attempt may be retried by
// calling Initialize again. Once Ready, queries are executed serially by a
// dedicated engine worker over one shared connection.
package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/codecs"
	"go.cbdd.dev/baroquedb/engine"
	"go.cbdd.dev/baroquedb/imagestore"
	"go.cbdd.dev/baroquedb/imagestore/providers"
	"go.cbdd.dev/baroquedb/metrics"
	"go.cbdd.dev/baroquedb/vfs"
	"golang.org/x/sync/singleflight"
)

// State of a Session.
type State int

const (
	// Uninitialized Sessions have not begun an initialization attempt.
	Uninitialized State = iota
	// Initializing Sessions have an attempt in progress.
	Initializing
	// Ready Sessions may be queried.
	Ready
	// Failed Sessions completed a failed attempt. They behave as Uninitialized.
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the State by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a State from its name.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{Uninitialized, Initializing, Ready, Failed} {
		if string(b) == st.String() {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Options of a Session.
type Options struct {
	// BaseURL against which relative image references are resolved.
	// If empty, relative references are paths of the local file system.
	BaseURL string
	// Bundle forces the engine bundle. If its Name is empty, the bundle is
	// selected from Capabilities.
	Bundle engine.Bundle
	// Capabilities of the host. If nil, engine.DetectCapabilities is used.
	Capabilities *engine.Capabilities
	// Stores from which images are fetched. If nil, a Registry of
	// http, https and file stores is used.
	Stores *imagestore.Registry
	// FileName under which the image is registered. Defaults to "baroque.db".
	FileName string
	// DatabaseName under which the image is attached. Defaults to "baroque".
	DatabaseName string
	// WorkDir holding registered image files. If empty, a private temporary
	// directory is used.
	WorkDir string
	// InitTimeout bounds an initialization attempt. Zero means no bound.
	InitTimeout time.Duration
}

// Default names of the registered image file and its attached database.
const (
	DefaultFileName     = "baroque.db"
	DefaultDatabaseName = "baroque"
)

// Session is an embedded-analytics session. It's safe for concurrent use.
type Session struct {
	opts   Options
	flight singleflight.Group

	// notifyMu serializes delivery of Progress, and is acquired before mu.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	handle    *Handle
	imageURL  string
	progress  Progress
	observers []ProgressFunc
	lastErr   error
}

// New returns an Uninitialized Session of the Options.
func New(opts Options) *Session {
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	if opts.DatabaseName == "" {
		opts.DatabaseName = DefaultDatabaseName
	}
	if opts.Stores == nil {
		opts.Stores = imagestore.NewRegistry(providers.Local())
	}
	return &Session{opts: opts}
}

// Handle of an initialized Session.
type Handle struct {
	worker   *engine.Worker
	files    *vfs.Registry
	imageURL string
}

// Bundle which the Handle's engine was instantiated from.
func (h *Handle) Bundle() engine.Bundle { return h.worker.Bundle() }

// ImageURL from which the Handle's database was loaded.
func (h *Handle) ImageURL() string { return h.imageURL }

// Query runs |sql| with bound |args| and returns all of its decoded Rows.
func (h *Handle) Query(ctx context.Context, sql string, args ...interface{}) ([]Row, error) {
	var started = time.Now()

	var res, err = h.worker.Query(ctx, sql, args...)
	metrics.QueryDuration.Observe(time.Since(started).Seconds())

	if err == engine.ErrWorkerClosed {
		return nil, ErrNotInitialized
	} else if err != nil {
		metrics.QueryTotal.WithLabelValues(metrics.Fail).Inc()

		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &QueryError{SQL: sql, Message: err.Error(), Cause: err}
	}
	var rows = decodeResult(res)

	metrics.QueryTotal.WithLabelValues(metrics.Ok).Inc()
	metrics.QueryRowsTotal.Add(float64(len(rows)))

	log.WithFields(log.Fields{
		"sql":  sql,
		"rows": len(rows),
		"took": time.Since(started),
	}).Debug("query completed")

	return rows, nil
}

func (h *Handle) close() {
	if err := h.worker.Close(); err != nil {
		log.WithField("err", err).Warn("failed to close engine worker")
	}
	if err := h.files.Close(); err != nil {
		log.WithField("err", err).Warn("failed to close virtual files")
	}
}

// State of the Session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status is a point-in-time summary of a Session.
type Status struct {
	State    State    `json:"state"`
	Progress Progress `json:"progress"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Bundle   string   `json:"bundle,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Status of the Session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out = Status{
		State:    s.state,
		Progress: s.progress,
		ImageURL: s.imageURL,
	}
	if s.handle != nil {
		out.Bundle = s.handle.Bundle().Name
	}
	if s.state == Failed && s.lastErr != nil {
		out.Error = s.lastErr.Error()
	}
	return out
}

// Initialize the Session with the database image at |imageURL|, returning
// its Handle. If an attempt is already underway, Initialize joins it rather
// than starting another, and |onProgress| observes its remaining Progress.
// If the Session is already Ready, its Handle is returned immediately.
//
// Cancellation of |ctx| abandons the wait of this caller only. The attempt
// itself continues for the benefit of other callers, and is bounded only
// by Options.InitTimeout.
func (s *Session) Initialize(ctx context.Context, imageURL string, onProgress ProgressFunc) (*Handle, error) {
	s.mu.Lock()
	if s.state == Ready {
		var h = s.handle
		s.mu.Unlock()

		if imageURL != h.imageURL {
			log.WithFields(log.Fields{
				"requested": imageURL,
				"loaded":    h.imageURL,
			}).Warn("session is already initialized with another image")
		}
		return h, nil
	}
	s.mu.Unlock()

	if onProgress != nil {
		s.observe(onProgress)
	}

	var ch = s.flight.DoChan("init", func() (interface{}, error) {
		return s.attempt(imageURL)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Query the Ready Session. It fails with ErrNotInitialized, and doesn't
// block, if the Session isn't Ready.
func (s *Session) Query(ctx context.Context, sql string, args ...interface{}) ([]Row, error) {
	s.mu.Lock()
	var h = s.handle
	s.mu.Unlock()

	if h == nil {
		return nil, ErrNotInitialized
	}
	return h.Query(ctx, sql, args...)
}

// Close releases the engine and virtual files of a Ready Session, returning
// it to Uninitialized. An attempt in progress is not interrupted.
func (s *Session) Close() error {
	s.mu.Lock()
	var h = s.handle
	if h != nil {
		s.handle = nil
		s.state = Uninitialized
		s.progress = Progress{}
		s.observers = nil
	}
	s.mu.Unlock()

	if h != nil {
		h.close()
	}
	return nil
}

// attempt runs a complete initialization attempt. It's invoked at most once
// at a time through the singleflight Group.
func (s *Session) attempt(imageURL string) (*Handle, error) {
	s.mu.Lock()
	if s.state == Ready {
		// A prior attempt completed between our state check and joining the flight.
		var h = s.handle
		s.observers = nil
		s.mu.Unlock()
		return h, nil
	}
	s.state = Initializing
	s.progress = Progress{}
	s.lastErr = nil
	s.mu.Unlock()

	var ctx, cancel = context.WithCancel(context.Background())
	if s.opts.InitTimeout != 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.opts.InitTimeout)
	}
	defer cancel()

	var started = time.Now()
	var h, err = s.bootstrap(ctx, imageURL)
	metrics.SessionInitDuration.Observe(time.Since(started).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = nil

	if err != nil {
		s.state = Failed
		s.lastErr = err
		metrics.SessionInitTotal.WithLabelValues(metrics.Fail).Inc()

		var step = "unknown"
		if initErr, ok := err.(*InitializationError); ok {
			step = initErr.Step
		}
		metrics.SessionInitFailuresTotal.WithLabelValues(step).Inc()

		log.WithFields(log.Fields{
			"err":   err,
			"image": imageURL,
		}).Warn("session initialization failed")

		return nil, err
	}

	s.state = Ready
	s.handle = h
	s.imageURL = imageURL
	metrics.SessionInitTotal.WithLabelValues(metrics.Ok).Inc()

	log.WithFields(log.Fields{
		"image":  imageURL,
		"bundle": h.Bundle().Name,
		"took":   time.Since(started),
	}).Info("session ready")

	return h, nil
}

// bootstrap steps through initialization, releasing partial resources on failure.
func (s *Session) bootstrap(ctx context.Context, imageURL string) (_ *Handle, err error) {
	var h = &Handle{imageURL: imageURL}
	defer func() {
		if err == nil {
			return
		}
		if h.worker != nil {
			_ = h.worker.Close()
		}
		if h.files != nil {
			_ = h.files.Close()
		}
	}()

	s.emit(0, "Loading engine")

	var bundle = s.opts.Bundle
	if bundle.Name == "" {
		var caps engine.Capabilities
		if s.opts.Capabilities != nil {
			caps = *s.opts.Capabilities
		} else {
			caps = engine.DetectCapabilities()
		}
		bundle = engine.SelectBundle(caps)
	} else if bundle.Driver == "" {
		return nil, &InitializationError{Step: StepSelectBundle,
			Cause: fmt.Errorf("engine bundle %s names no driver", bundle.Name)}
	}
	s.emit(10, fmt.Sprintf("Selected %s engine bundle", bundle.Name))

	if h.worker, err = engine.Start(bundle); err != nil {
		return nil, &InitializationError{Step: StepStartWorker, Cause: err}
	}
	s.emit(20, "Started engine worker")

	if err = h.worker.Instantiate(ctx); err != nil {
		return nil, &InitializationError{Step: StepInstantiate, Cause: err}
	}
	s.emit(30, "Instantiated engine")

	content, err := s.fetch(ctx, imageURL)
	if err != nil {
		return nil, &InitializationError{Step: StepFetch, Cause: err}
	}
	s.emit(50, fmt.Sprintf("Fetched database image (%s)", humanize.Bytes(uint64(len(content)))))

	if h.files, err = vfs.NewRegistry(s.opts.WorkDir); err != nil {
		return nil, &InitializationError{Step: StepRegister, Cause: err}
	}
	path, err := h.files.RegisterFileBuffer(s.opts.FileName, content)
	if err != nil {
		return nil, &InitializationError{Step: StepRegister, Cause: err}
	}
	s.emit(70, "Registered database file")

	if err = h.worker.Connect(ctx); err != nil {
		return nil, &InitializationError{Step: StepConnect, Cause: err}
	}
	if err = h.worker.Attach(ctx, path, s.opts.DatabaseName); err != nil {
		return nil, &InitializationError{Step: StepAttach, Cause: err}
	}
	if err = h.worker.Use(ctx, s.opts.DatabaseName); err != nil {
		return nil, &InitializationError{Step: StepUse, Cause: err}
	}
	s.emit(85, "Attached database")
	s.emit(100, "Ready")

	return h, nil
}

// fetch and decode the complete image at |imageURL|.
func (s *Session) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	var ep, err = imagestore.Resolve(s.opts.BaseURL, imageURL)
	if err != nil {
		return nil, err
	}
	store, rc, err := s.opts.Stores.Open(ctx, ep)
	if err != nil {
		if store != nil {
			metrics.ImageFetchTotal.WithLabelValues(store.Provider(), metrics.Fail).Inc()
			if store.IsAuthError(err) {
				err = errors.WithMessage(err, "not authorized")
			}
		}
		return nil, err
	}
	defer rc.Close()

	content, err := decode(rc, codecs.CodecFor(ep.Path))
	if err != nil {
		metrics.ImageFetchTotal.WithLabelValues(store.Provider(), metrics.Fail).Inc()
		return nil, errors.WithMessagef(err, "reading %s", redact(ep))
	}
	metrics.ImageFetchTotal.WithLabelValues(store.Provider(), metrics.Ok).Inc()
	metrics.ImageFetchBytesTotal.Add(float64(len(content)))

	return content, nil
}

func decode(r io.Reader, codec codecs.Codec) ([]byte, error) {
	var dec, err = codecs.NewCodecReader(r, codec)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var buf bytes.Buffer
	if _, err = buf.ReadFrom(dec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func redact(ep *url.URL) string { return ep.Redacted() }

// observe Progress of the current or next attempt with |fn|. If an attempt
// is underway, |fn| is first caught up with its latest Progress.
func (s *Session) observe(fn ProgressFunc) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.observers = append(s.observers, fn)
	var catchUp, p = s.state == Initializing, s.progress
	s.mu.Unlock()

	if catchUp {
		notify(fn, p)
	}
}

// emit Progress to the observers of the current attempt.
func (s *Session) emit(percent int, message string) {
	var p = Progress{Message: message, Percent: percent}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.progress = p
	var observers = append([]ProgressFunc(nil), s.observers...)
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"percent": percent,
		"message": message,
	}).Debug("session progress")

	for _, fn := range observers {
		notify(fn, p)
	}
}
