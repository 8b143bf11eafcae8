package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

var cfg = AuthConfig{Secret: "s3cret", Issuer: "nutrition-store", Audience: "store-api"}

func TestParseRoundTrip(t *testing.T) {
	a := NewAuthenticator(cfg)
	tok, err := a.Sign(domain.Actor{ID: "alice", IsAdmin: true}, time.Minute)
	require.NoError(t, err)

	actor, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "alice", IsAdmin: true}, actor)
}

func TestParseRejects(t *testing.T) {
	a := NewAuthenticator(cfg)
	sign := func(claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"wrong issuer", sign(jwt.MapClaims{"sub": "a", "iss": "x", "aud": cfg.Audience, "exp": exp}, jwt.SigningMethodHS256, []byte(cfg.Secret))},
		{"wrong audience", sign(jwt.MapClaims{"sub": "a", "iss": cfg.Issuer, "aud": "x", "exp": exp}, jwt.SigningMethodHS256, []byte(cfg.Secret))},
		{"no expiry", sign(jwt.MapClaims{"sub": "a", "iss": cfg.Issuer, "aud": cfg.Audience}, jwt.SigningMethodHS256, []byte(cfg.Secret))},
		{"no subject", sign(jwt.MapClaims{"iss": cfg.Issuer, "aud": cfg.Audience, "exp": exp}, jwt.SigningMethodHS256, []byte(cfg.Secret))},
		{"unsigned", sign(jwt.MapClaims{"sub": "a", "iss": cfg.Issuer, "aud": cfg.Audience, "exp": exp}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Parse(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestRequireAndRequireAdmin(t *testing.T) {
	a := NewAuthenticator(cfg)
	var seen domain.Actor
	h := a.Require(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFrom(r.Context())
	})))

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(""))

	user, _ := a.Sign(domain.Actor{ID: "bob"}, time.Minute)
	assert.Equal(t, http.StatusForbidden, call(user))

	admin, _ := a.Sign(domain.Actor{ID: "root", IsAdmin: true}, time.Minute)
	assert.Equal(t, http.StatusOK, call(admin))
	assert.Equal(t, "root", seen.ID)
}

func TestTokenFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/feed?access_token=abc", nil)
	assert.Equal(t, "abc", tokenFromRequest(req))
}

func TestOptionalLetsAnonymousThrough(t *testing.T) {
	a := NewAuthenticator(cfg)
	var ok bool
	h := a.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = ActorFrom(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ok)
}
