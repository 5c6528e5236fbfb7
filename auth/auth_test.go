package auth_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.cbdd.dev/baroquedb/auth"
)

func TestKeyedAuthCases(t *testing.T) {
	ka1, err := auth.NewKeyedAuth("c2VjcmV0,b3RoZXI=")
	require.NoError(t, err)
	ka2, err := auth.NewKeyedAuth("b3RoZXI= c2VjcmV0")
	require.NoError(t, err)
	kaM, err := auth.NewKeyedAuth("YXNkZg==,AA==")
	require.NoError(t, err)

	// Authorize with one KeyedAuth...
	var req = httptest.NewRequest("GET", "/api/query", nil)
	require.NoError(t, ka1.Authorize(req, auth.Claims{Capability: auth.CapabilityQuery}, time.Hour))

	// ...and verify with the other.
	claims, err := ka2.Verify(req, auth.CapabilityQuery)
	require.NoError(t, err)
	require.Equal(t, auth.CapabilityQuery, claims.Capability)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	// Unless the capability doesn't match.
	_, err = ka2.Verify(req, auth.CapabilityStatus)
	require.EqualError(t, err, "authorization is missing required STATUS capability")

	// A KeyedAuth with a different key rejects it.
	_, err = kaM.Verify(req, auth.CapabilityQuery)
	require.EqualError(t, err,
		"verifying Authorization: token signature is invalid: signature is invalid")

	// A KeyedAuth that allows pass-through accepts a request without a token.
	claims, err = kaM.Verify(httptest.NewRequest("GET", "/api/status", nil), auth.CapabilityStatus)
	require.NoError(t, err)
	require.Equal(t, auth.CapabilityStatus, claims.Capability)

	// But others don't.
	_, err = ka1.Verify(httptest.NewRequest("GET", "/api/status", nil), auth.CapabilityStatus)
	require.Equal(t, auth.ErrMissingAuth, err)

	req = httptest.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, err = ka1.Verify(req, auth.CapabilityStatus)
	require.Equal(t, auth.ErrNotBearer, err)
}

func TestExpiredTokens(t *testing.T) {
	ka, err := auth.NewKeyedAuth("c2VjcmV0")
	require.NoError(t, err)

	var req = httptest.NewRequest("GET", "/api/query", nil)
	require.NoError(t, ka.Authorize(req, auth.Claims{Capability: auth.CapabilityAll}, -time.Minute))

	_, err = ka.Verify(req, auth.CapabilityQuery)
	require.ErrorContains(t, err, "token is expired")
}

func TestKeyParsing(t *testing.T) {
	var _, err = auth.NewKeyedAuth("")
	require.EqualError(t, err, "at least one key must be provided")
	_, err = auth.NewKeyedAuth("AA==")
	require.EqualError(t, err, "at least one key must be provided")
	_, err = auth.NewKeyedAuth("c2VjcmV0,not-base64!")
	require.ErrorContains(t, err, "failed to decode key at index 1")
}
