// Package auth authorizes and verifies HTTP API requests using JWT bearer
// tokens signed with pre-shared keys.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Capability is a bit-mask of API operations which Claims permit.
type Capability uint32

const (
	// CapabilityStatus permits reading session status.
	CapabilityStatus Capability = 1 << iota
	// CapabilityQuery permits queries and their visualizations.
	CapabilityQuery

	// CapabilityAll permits every operation.
	CapabilityAll = CapabilityStatus | CapabilityQuery
)

// Claims of an authorization token.
type Claims struct {
	Capability Capability `json:"cap"`
	jwt.RegisteredClaims
}

// Verifier verifies that a request is authorized for a Capability.
type Verifier interface {
	Verify(r *http.Request, require Capability) (Claims, error)
}

// NewKeyedAuth returns a KeyedAuth using the given pre-shared secret keys,
// which are base64 encoded and separated by whitespace and/or commas.
//
// The first key is used for signing tokens, and any key may verify a
// presented token.
//
// The special value `AA==` (the base64 encoding of a single zero byte)
// allows requests missing an Authorization header to proceed, and should
// only be used temporarily while rolling out authorization.
func NewKeyedAuth(base64Keys string) (*KeyedAuth, error) {
	var keys jwt.VerificationKeySet
	var allowMissing bool

	for i, key := range strings.Fields(strings.ReplaceAll(base64Keys, ",", " ")) {
		if key == "AA==" {
			allowMissing = true
		} else if b, err := base64.StdEncoding.DecodeString(key); err != nil {
			return nil, fmt.Errorf("failed to decode key at index %d: %w", i, err)
		} else {
			keys.Keys = append(keys.Keys, b)
		}
	}
	if len(keys.Keys) == 0 {
		return nil, fmt.Errorf("at least one key must be provided")
	}
	return &KeyedAuth{keys, allowMissing}, nil
}

// KeyedAuth signs and verifies tokens using symmetric, pre-shared keys.
type KeyedAuth struct {
	jwt.VerificationKeySet
	allowMissing bool
}

// Token returns a signed token of the Claims, which expires after |exp|.
func (k *KeyedAuth) Token(claims Claims, exp time.Duration) (string, error) {
	var now = time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(exp))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.Keys[0])
}

// Authorize |r| by setting its bearer token.
func (k *KeyedAuth) Authorize(r *http.Request, claims Claims, exp time.Duration) error {
	var token, err = k.Token(claims, exp)
	if err != nil {
		return err
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Verify the bearer token of |r| permits the |require|'d Capability.
func (k *KeyedAuth) Verify(r *http.Request, require Capability) (Claims, error) {
	var header = r.Header.Get("Authorization")

	if header == "" {
		if k.allowMissing {
			return Claims{
				Capability: require,
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}, nil
		}
		return Claims{}, ErrMissingAuth
	} else if !strings.HasPrefix(header, "Bearer ") {
		return Claims{}, ErrNotBearer
	}
	var claims Claims

	if token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &claims,
		func(token *jwt.Token) (interface{}, error) { return k.VerificationKeySet, nil },
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(time.Second*5),
		jwt.WithValidMethods([]string{"HS256", "HS384"}),
	); err != nil {
		return Claims{}, fmt.Errorf("verifying Authorization: %w", err)
	} else if !token.Valid {
		panic("token.Valid must be true")
	} else if err = verifyCapability(claims.Capability, require); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func verifyCapability(actual, require Capability) error {
	if actual&require == require {
		return nil
	}
	for _, i := range []struct {
		cap  Capability
		name string
	}{
		{CapabilityStatus, "STATUS"},
		{CapabilityQuery, "QUERY"},
	} {
		if require&i.cap != 0 && actual&i.cap == 0 {
			return fmt.Errorf("authorization is missing required %s capability", i.name)
		}
	}
	return fmt.Errorf("authorization is missing required capability (have %s, but require %s)",
		strconv.FormatUint(uint64(actual), 2), strconv.FormatUint(uint64(require), 2))
}

var (
	ErrMissingAuth = errors.New("missing or empty Authorization token")
	ErrNotBearer   = errors.New("invalid or unsupported Authorization header (expected 'Bearer')")
)
