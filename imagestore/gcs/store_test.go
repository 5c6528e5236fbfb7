package gcs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestIsAuthError(t *testing.T) {
	require.False(t, isAuthError(nil))
	require.True(t, isAuthError(storage.ErrBucketNotExist))
	require.True(t, isAuthError(fmt.Errorf("wrapped: %w", storage.ErrBucketNotExist)))
	require.False(t, isAuthError(storage.ErrObjectNotExist))

	require.True(t, isAuthError(&googleapi.Error{Code: http.StatusForbidden}))
	require.True(t, isAuthError(&googleapi.Error{Code: http.StatusNotFound, Message: "The specified bucket does not exist."}))
	require.False(t, isAuthError(&googleapi.Error{Code: http.StatusNotFound, Message: "No such object"}))
	require.False(t, isAuthError(errors.New("other")))
}
