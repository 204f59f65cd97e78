// Package auth resolves the owner id of an HTTP request.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// OwnerHeader carries the owner id when header identification is enabled.
const OwnerHeader = "X-Owner-ID"

// Provider resolves the owner id of a request.
type Provider interface {
	Identify(r *http.Request) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(r *http.Request) (string, error)

func (f ProviderFunc) Identify(r *http.Request) (string, error) { return f(r) }

// TokenProvider maps bearer tokens to owner ids.
type TokenProvider struct {
	tokens map[string]string
}

func NewTokenProvider(tokens map[string]string) *TokenProvider {
	copied := make(map[string]string, len(tokens))
	for token, owner := range tokens {
		copied[token] = owner
	}
	return &TokenProvider{tokens: copied}
}

func (p *TokenProvider) Identify(r *http.Request) (string, error) {
	token, ok := bearerToken(r)
	if !ok {
		return "", ErrUnauthenticated
	}
	for known, owner := range p.tokens {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			return owner, nil
		}
	}
	return "", ErrUnauthenticated
}

// HeaderProvider trusts the X-Owner-ID header. Development use only.
type HeaderProvider struct{}

func (HeaderProvider) Identify(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
	if owner == "" {
		return "", ErrUnauthenticated
	}
	return owner, nil
}

// Chain tries each provider in turn and returns the first identity found.
type Chain []Provider

func (c Chain) Identify(r *http.Request) (string, error) {
	for _, p := range c {
		owner, err := p.Identify(r)
		if err == nil && owner != "" {
			return owner, nil
		}
	}
	return "", ErrUnauthenticated
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type ownerKey struct{}

// WithOwner returns a copy of ctx carrying the owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the owner id stored by Middleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// Middleware identifies every request with provider and calls onFail when no
// identity is found. The owner id is available to handlers via
// OwnerFromContext.
func Middleware(provider Provider, onFail func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := provider.Identify(r)
			if err != nil || owner == "" {
				if err == nil {
					err = ErrUnauthenticated
				}
				onFail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
