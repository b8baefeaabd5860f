package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ecJWK(t *testing.T, kid string, key *ecdsa.PrivateKey) JSONWebKey {
	t.Helper()
	pad := func(b []byte) []byte {
		out := make([]byte, 32)
		copy(out[32-len(b):], b)
		return out
	}
	return JSONWebKey{
		Kid: kid,
		Kty: "EC",
		Alg: "ES256",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(pad(key.X.Bytes())),
		Y:   base64.RawURLEncoding.EncodeToString(pad(key.Y.Bytes())),
	}
}

func serveJWKS(t *testing.T, keys ...JSONWebKey) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/auth/v1/.well-known/jwks.json", r.URL.Path)
		_ = json.NewEncoder(w).Encode(JWKS{Keys: keys})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestJWKSURL(t *testing.T) {
	assert.Equal(t, "https://abc.supabase.co/auth/v1/.well-known/jwks.json", JWKSURL("https://abc.supabase.co/"))
}

func TestKeyFuncVerifiesES256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	srv, hits := serveJWKS(t, ecJWK(t, "key-1", priv))
	p := NewProvider(JWKSURL(srv.URL), nil)

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"sub": "6f1c2a9e-3b4d-4c5e-8f70-a1b2c3d4e5f6",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = "key-1"
	signed, err := tok.SignedString(priv)
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, p.KeyFunc, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	// Cached: a second verification does not refetch.
	_, err = jwt.Parse(signed, p.KeyFunc)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestKeyFuncUnknownKid(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	srv, _ := serveJWKS(t, ecJWK(t, "key-1", priv))
	p := NewProvider(JWKSURL(srv.URL), nil)

	_, err = p.GetKey("rotated-away")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyFuncRequiresKid(t *testing.T) {
	p := NewProvider("http://127.0.0.1:1/jwks.json", nil)
	_, err := p.KeyFunc(&jwt.Token{Header: map[string]interface{}{"alg": "RS256"}, Method: jwt.SigningMethodRS256})
	assert.Error(t, err)
}

func TestRSAPublicKey(t *testing.T) {
	k := JSONWebKey{Kid: "r1", Kty: "RSA", N: base64.RawURLEncoding.EncodeToString([]byte{0xC3, 0x5B}), E: "AQAB"}
	pub, err := k.RSAPublicKey()
	require.NoError(t, err)
	assert.Equal(t, 65537, pub.E)
	assert.Equal(t, int64(0xC35B), pub.N.Int64())

	k.Kty = "EC"
	_, err = k.RSAPublicKey()
	assert.Error(t, err)
}

func TestFetchKeysBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewProvider(srv.URL, nil).GetKey("any")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}
