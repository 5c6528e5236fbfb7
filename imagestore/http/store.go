// Package http implements an image Store over HTTP and HTTPS.
package http

import (
	"context"
	"io"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/imagestore"
	"go.cbdd.dev/baroquedb/keepalive"
)

// Client used by stores constructed with New.
var Client = &http.Client{Transport: keepalive.NewTransport()}

type store struct {
	root   *url.URL
	client *http.Client
}

// New creates a new HTTP Store of the provided root URL.
func New(ep *url.URL) (imagestore.Store, error) {
	return NewWithClient(ep, Client), nil
}

// NewWithClient creates a new HTTP Store which issues requests using |client|.
func NewWithClient(ep *url.URL, client *http.Client) imagestore.Store {
	return &store{root: ep, client: client}
}

func (s *store) Provider() string { return "http" }

func (s *store) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	var u = s.root.String() + path

	var req, err = http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &imagestore.StatusError{URL: u, Code: resp.StatusCode, Status: resp.Status}
	}

	log.WithFields(log.Fields{
		"url":           u,
		"contentLength": resp.ContentLength,
	}).Debug("fetching image")

	return resp.Body, nil
}

func (s *store) IsAuthError(err error) bool {
	if sErr, ok := err.(*imagestore.StatusError); ok {
		return sErr.Code == http.StatusUnauthorized || sErr.Code == http.StatusForbidden
	}
	return false
}
