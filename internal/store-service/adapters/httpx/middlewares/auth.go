package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jcmexdev/nutrition-store/internal/store-service/domain"
)

type actorKey struct{}

// AuthConfig holds the HS256 secret and the expected iss and aud claims.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Authenticator turns a bearer JWT into a domain.Actor: sub is the user id
// and a true admin claim marks an administrator.
type Authenticator struct {
	cfg AuthConfig
}

func NewAuthenticator(cfg AuthConfig) *Authenticator {
	return &Authenticator{cfg: cfg}
}

// Require rejects requests without a valid token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			unauth(w, "invalid_request", "missing bearer token")
			return
		}
		actor, err := a.Parse(raw)
		if err != nil {
			unauth(w, "invalid_token", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// Optional attaches the actor when a valid token is present and lets
// anonymous requests through.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := tokenFromRequest(r); raw != "" {
			if actor, err := a.Parse(raw); err == nil {
				r = r.WithContext(WithActor(r.Context(), actor))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after Require.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := ActorFrom(r.Context()); !ok || !actor.IsAdmin {
			forbidden(w, "insufficient_scope", "admin required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) Parse(raw string) (domain.Actor, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.cfg.Secret), nil
	},
		jwt.WithLeeway(30*time.Second),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithAudience(a.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return domain.Actor{}, fmt.Errorf("invalid jwt: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, errors.New("claims parsing error")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("sub claim required")
	}
	isAdmin, _ := claims["admin"].(bool)
	return domain.Actor{ID: sub, IsAdmin: isAdmin}, nil
}

// Sign issues a token for actor, valid for ttl.
func (a *Authenticator) Sign(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   actor.ID,
		"admin": actor.IsAdmin,
		"iss":   a.cfg.Issuer,
		"aud":   a.cfg.Audience,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.Secret))
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// tokenFromRequest reads the bearer token. Browsers cannot set headers on a
// websocket handshake, so access_token is accepted as a query parameter.
func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

func unauth(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+code+`"`)
	writeAuthError(w, http.StatusUnauthorized, code, desc)
}

func forbidden(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+code+`"`)
	writeAuthError(w, http.StatusForbidden, code, desc)
}

func writeAuthError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": desc})
}
