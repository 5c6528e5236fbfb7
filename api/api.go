// Package api serves session queries and their visualizations over HTTP.
//
// All endpoints are GET requests taking a `sql` parameter and optional,
// repeated `arg` parameters which are bound to the statement's placeholders:
//
//	/api/status  Session state and initialization progress.
//	/api/query   Rows of the query, as JSON.
//	/api/table   Formatted table of the query, as JSON or (format=text) text.
//	/api/chart   Plotly figure of the query (see viz.ChartConfig).
//	/api/map     Map markers of the query (see viz.MapConfig).
//	/api/graph   Force-directed network of the query (see viz.GraphConfig).
//
// If a Verifier is configured, requests must present a bearer token having
// the STATUS capability for /api/status, or QUERY for all others.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/auth"
	"go.cbdd.dev/baroquedb/metrics"
	"go.cbdd.dev/baroquedb/session"
	"go.cbdd.dev/baroquedb/viz"
)

// Querier is the session capability which the API serves.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) ([]session.Row, error)
	Status() session.Status
}

// Config of the API.
type Config struct {
	// CacheSize is the number of cached responses. Zero or less disables caching.
	CacheSize int
	// CacheTTL bounds the age of cached responses. Zero means no bound.
	CacheTTL time.Duration
	// Verifier of request authorizations. If nil, requests aren't verified.
	Verifier auth.Verifier
}

// API serves HTTP requests against a Querier.
type API struct {
	querier  Querier
	verifier auth.Verifier
	ttl      time.Duration
	cache    *lru.Cache // Nil if disabled.
	decoder  *schema.Decoder
}

// New returns an API of the Querier.
func New(querier Querier, cfg Config) (*API, error) {
	var a = &API{
		querier:  querier,
		verifier: cfg.Verifier,
		ttl:      cfg.CacheTTL,
		decoder:  schema.NewDecoder(),
	}
	a.decoder.IgnoreUnknownKeys(false)

	if cfg.CacheSize > 0 {
		var err error
		if a.cache, err = lru.New(cfg.CacheSize); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register the API's handlers with the ServeMux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", a.wrap("status", auth.CapabilityStatus, a.serveStatus))
	mux.HandleFunc("/api/query", a.wrap("query", auth.CapabilityQuery, a.cached(a.serveQuery)))
	mux.HandleFunc("/api/table", a.wrap("table", auth.CapabilityQuery, a.cached(a.serveTable)))
	mux.HandleFunc("/api/chart", a.wrap("chart", auth.CapabilityQuery, a.cached(a.serveChart)))
	mux.HandleFunc("/api/map", a.wrap("map", auth.CapabilityQuery, a.cached(a.serveMap)))
	mux.HandleFunc("/api/graph", a.wrap("graph", auth.CapabilityQuery, a.cached(a.serveGraph)))
}

// QueryRequest holds parameters common to all query endpoints.
type QueryRequest struct {
	SQL  string   `schema:"sql,required"`
	Args []string `schema:"arg"`
}

type queryResponse struct {
	Columns []string      `json:"columns"`
	Rows    []session.Row `json:"rows"`
	Count   int           `json:"count"`
}

// response is a complete, possibly cached, HTTP response.
type response struct {
	code        int
	contentType string
	body        []byte
	expires     time.Time
}

type handlerFunc func(*http.Request) (*response, error)

func (a *API) serveStatus(r *http.Request) (*response, error) {
	return jsonResponse(a.querier.Status())
}

func (a *API) serveQuery(r *http.Request) (*response, error) {
	var req QueryRequest
	var rows, err = a.decodeAndQuery(r, &req, &req)
	if err != nil {
		return nil, err
	}
	var columns = []string{}
	if len(rows) != 0 {
		columns = rows[0].Columns()
	} else {
		rows = []session.Row{}
	}
	return jsonResponse(queryResponse{Columns: columns, Rows: rows, Count: len(rows)})
}

func (a *API) serveTable(r *http.Request) (*response, error) {
	var req struct {
		QueryRequest
		Format string `schema:"format"`
	}
	var rows, err = a.decodeAndQuery(r, &req, &req.QueryRequest)
	if err != nil {
		return nil, err
	}
	var table = viz.BuildTable(rows)

	switch req.Format {
	case "", "json":
		return jsonResponse(table)
	case "text":
		var buf bytes.Buffer
		if err = table.WriteText(&buf); err != nil {
			return nil, err
		}
		return &response{code: http.StatusOK, contentType: "text/plain; charset=utf-8", body: buf.Bytes()}, nil
	default:
		return nil, badRequest(fmt.Errorf("unsupported table format %q", req.Format))
	}
}

func (a *API) serveChart(r *http.Request) (*response, error) {
	var req struct {
		QueryRequest
		viz.ChartConfig
	}
	var rows, err = a.decodeAndQuery(r, &req, &req.QueryRequest)
	if err != nil {
		return nil, err
	}
	fig, err := viz.BuildChart(rows, req.ChartConfig)
	if err != nil {
		return nil, badRequest(err)
	}
	return jsonResponse(fig)
}

func (a *API) serveMap(r *http.Request) (*response, error) {
	var req struct {
		QueryRequest
		viz.MapConfig
	}
	var rows, err = a.decodeAndQuery(r, &req, &req.QueryRequest)
	if err != nil {
		return nil, err
	}
	m, err := viz.BuildMap(rows, req.MapConfig)
	if err != nil {
		return nil, badRequest(err)
	}
	return jsonResponse(m)
}

func (a *API) serveGraph(r *http.Request) (*response, error) {
	var req struct {
		QueryRequest
		viz.GraphConfig
		Iterations int     `schema:"iterations"`
		Width      float64 `schema:"width"`
		Height     float64 `schema:"height"`
		Seed       int64   `schema:"seed"`
	}
	var rows, err = a.decodeAndQuery(r, &req, &req.QueryRequest)
	if err != nil {
		return nil, err
	}
	g, err := viz.BuildGraph(rows, req.GraphConfig)
	if err != nil {
		return nil, badRequest(err)
	}
	viz.ForceLayout(g, viz.LayoutOptions{
		Iterations: req.Iterations,
		Width:      req.Width,
		Height:     req.Height,
		Seed:       req.Seed,
	})
	return jsonResponse(g)
}

// decodeAndQuery decodes request parameters into |dst|, and runs the query
// of its embedded QueryRequest |q|.
func (a *API) decodeAndQuery(r *http.Request, dst interface{}, q *QueryRequest) ([]session.Row, error) {
	if err := a.decoder.Decode(dst, r.URL.Query()); err != nil {
		return nil, badRequest(err)
	}
	var args = make([]interface{}, len(q.Args))
	for i, arg := range q.Args {
		args[i] = arg
	}
	return a.querier.Query(r.Context(), q.SQL, args...)
}

// cached wraps a handlerFunc with the response cache, if enabled. Responses
// are keyed on the request's canonical parameters and the loaded image.
func (a *API) cached(fn handlerFunc) handlerFunc {
	if a.cache == nil {
		return fn
	}
	return func(r *http.Request) (*response, error) {
		var key = r.URL.Path + "?" + r.URL.Query().Encode() + "#" + a.querier.Status().ImageURL

		if v, ok := a.cache.Get(key); ok {
			var resp = v.(*response)
			if resp.expires.IsZero() || time.Now().Before(resp.expires) {
				metrics.APICacheHitsTotal.Inc()
				return resp, nil
			}
			a.cache.Remove(key)
		}

		var resp, err = fn(r)
		if err == nil && resp.code == http.StatusOK {
			if a.ttl != 0 {
				resp.expires = time.Now().Add(a.ttl)
			}
			a.cache.Add(key, resp)
		}
		return resp, err
	}
}

// wrap adapts a handlerFunc into an http.HandlerFunc which verifies the
// request's authorization for |capability|, maps errors to status codes,
// and logs and instruments each request.
func (a *API) wrap(endpoint string, capability auth.Capability, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestID = uuid.New().String()
		var started = time.Now()
		w.Header().Set("X-Request-Id", requestID)

		var resp *response
		var err error

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			err = &httpError{code: http.StatusMethodNotAllowed, err: fmt.Errorf("method %s not allowed", r.Method)}
		} else if err = a.verify(r, capability); err == nil {
			resp, err = fn(r)
		}
		if err != nil {
			resp = errorResponse(err, requestID)
		}
		if resp.code == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}

		w.Header().Set("Content-Type", resp.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.body)))
		w.WriteHeader(resp.code)
		if r.Method != http.MethodHead {
			_, _ = w.Write(resp.body)
		}
		metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.code)).Inc()

		var entry = log.WithFields(log.Fields{
			"requestId": requestID,
			"endpoint":  endpoint,
			"code":      resp.code,
			"took":      time.Since(started),
		})
		if resp.code >= http.StatusInternalServerError && resp.code != http.StatusServiceUnavailable {
			entry.WithField("err", err).Warn("request failed")
		} else if err != nil {
			entry.WithField("err", err).Debug("request rejected")
		} else {
			entry.Debug("served request")
		}
	}
}

func (a *API) verify(r *http.Request, capability auth.Capability) error {
	if a.verifier == nil {
		return nil
	}
	if _, err := a.verifier.Verify(r, capability); err != nil {
		return &httpError{code: http.StatusUnauthorized, err: err}
	}
	return nil
}

type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func badRequest(err error) error { return &httpError{code: http.StatusBadRequest, err: err} }

// statusCode maps an error to an HTTP status code.
func statusCode(err error) int {
	var httpErr *httpError
	var queryErr *session.QueryError
	var colErr *viz.ColumnResolutionError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.code
	case errors.Is(err, session.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.As(err, &queryErr), errors.As(err, &colErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(err error, requestID string) *response {
	var code = statusCode(err)
	var body, _ = json.Marshal(struct {
		Error     string `json:"error"`
		RequestID string `json:"requestId"`
	}{err.Error(), requestID})

	return &response{code: code, contentType: "application/json", body: body}
}

func jsonResponse(v interface{}) (*response, error) {
	var body, err = json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &response{code: http.StatusOK, contentType: "application/json", body: body}, nil
}
