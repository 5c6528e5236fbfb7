package s3

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/require"
)

func TestIsAuthError(t *testing.T) {
	var s = &store{}

	require.True(t, s.IsAuthError(awserr.New(s3.ErrCodeNoSuchBucket, "no bucket", nil)))
	require.True(t, s.IsAuthError(awserr.New("AccessDenied", "denied", nil)))
	require.True(t, s.IsAuthError(awserr.NewRequestFailure(
		awserr.New("Forbidden", "forbidden", nil), http.StatusForbidden, "req-id")))

	require.False(t, s.IsAuthError(awserr.New(s3.ErrCodeNoSuchKey, "no key", nil)))
	require.False(t, s.IsAuthError(errors.New("other")))
	require.False(t, s.IsAuthError(nil))
}

func TestNewConfig(t *testing.T) {
	var cfg = newConfig(StoreQueryArgs{Region: "eu-central-1", Endpoint: "http://minio:9000"})
	require.Equal(t, "eu-central-1", *cfg.Region)
	require.Equal(t, "http://minio:9000", *cfg.Endpoint)
	require.True(t, *cfg.S3ForcePathStyle)
	require.Nil(t, cfg.HTTPClient)

	cfg = newConfig(StoreQueryArgs{})
	require.Nil(t, cfg.Region)
	require.NotNil(t, cfg.HTTPClient)
}
