// Package gcs implements an image Store over Google Cloud Storage.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	log "github.com/sirupsen/logrus"
	"go.cbdd.dev/baroquedb/imagestore"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type store struct {
	bucket string
	client *storage.Client
}

// Identifies JSON credentials of an external account used by workload identity.
type credentialsFile struct {
	Type string `json:"type"`
}

// New creates a new GCS Store from the provided URL.
func New(ep *url.URL) (imagestore.Store, error) {
	if err := imagestore.ParseStoreArgs(ep, &struct{}{}); err != nil {
		return nil, err
	}
	var ctx = context.Background()

	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadOnly)
	if err != nil {
		return nil, err
	}
	var externalAccount bool
	if creds.JSON != nil {
		var f credentialsFile
		if err := json.Unmarshal(creds.JSON, &f); err == nil {
			externalAccount = f.Type == "external_account"
		}
	}

	var client *storage.Client
	if creds.JSON != nil && !externalAccount {
		conf, err := google.JWTConfigFromJSON(creds.JSON, storage.ScopeReadOnly)
		if err != nil {
			return nil, err
		}
		if client, err = storage.NewClient(ctx, option.WithTokenSource(conf.TokenSource(ctx))); err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"ProjectID":      creds.ProjectID,
			"GoogleAccessID": conf.Email,
			"PrivateKeyID":   conf.PrivateKeyID,
		}).Info("constructed new GCS client")
	} else {
		// Possible to use GCS without a service account (e.g. with a GCE instance and workload identity).
		if client, err = storage.NewClient(ctx, option.WithTokenSource(creds.TokenSource)); err != nil {
			return nil, err
		}
		log.WithField("ProjectID", creds.ProjectID).Info("constructed new GCS client without JWT")
	}

	return &store{bucket: ep.Host, client: client}, nil
}

func (s *store) Provider() string { return "gcs" }

func (s *store) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
}

func (s *store) IsAuthError(err error) bool {
	return isAuthError(err)
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return true
		case http.StatusNotFound:
			// Only bucket-level 404s are AuthZ failures, not object-level.
			return strings.Contains(gErr.Message, "bucket")
		}
	}
	return false
}
