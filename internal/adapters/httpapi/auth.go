// Package httpapi is the REST transport of spec section 6.1: a
// go-chi/chi/v5 router, bearer-token auth with a capability-set
// claim, and one handler group per resource (demand, portfolio,
// product, batch). The teacher itself is a gRPC-driven CLI daemon
// with no REST surface, so this package's shape is enriched from the
// rest of the retrieval pack (chi routing, golang-jwt bearer tokens)
// rather than grounded on teacher code.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Capability is one of the fixed capability tokens of spec section
// 6.1.
type Capability string

const (
	CapQueryBid      Capability = "can_query_bid"
	CapCreateBid     Capability = "can_create_bid"
	CapReadBid       Capability = "can_read_bid"
	CapUpdateBid     Capability = "can_update_bid"
	CapManageProduct Capability = "can_manage_products"
	CapViewProduct   Capability = "can_view_products"
	CapRunBatch      Capability = "can_run_batch"
)

// Claims is the decoded bearer-token payload: the acting bidder plus
// the capability set granted to this token.
type Claims struct {
	jwt.RegisteredClaims
	BidderID     string   `json:"bidder_id"`
	Capabilities []string `json:"capabilities"`
}

func (c *Claims) has(cap Capability) bool {
	for _, got := range c.Capabilities {
		if got == string(cap) {
			return true
		}
	}
	return false
}

type principalKey struct{}

// Principal is the authenticated caller attached to the request
// context by Authenticate.
type Principal struct {
	BidderID     shared.BidderID
	Capabilities []string
}

func (p Principal) Has(cap Capability) bool {
	for _, got := range p.Capabilities {
		if got == string(cap) {
			return true
		}
	}
	return false
}

// PrincipalFromContext returns the authenticated caller, or false if
// the request carried no valid bearer token.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TokenVerifier decodes and validates bearer tokens signed with an
// HMAC key (spec section 6.3's "secret — HMAC key for verifying
// bearer tokens").
type TokenVerifier struct {
	key []byte
}

func NewTokenVerifier(hmacKey string) *TokenVerifier {
	return &TokenVerifier{key: []byte(hmacKey)}
}

func (v *TokenVerifier) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.key, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid bearer token")
	}
	return claims, nil
}

// Authenticate is chi middleware that decodes the Authorization
// header into a Principal and attaches it to the request context.
// Missing or malformed headers produce a 400 here; capability checks
// happen per-route in the RequireCapability middleware, which runs
// before the handler looks the resource up, so a missing capability
// yields 401 ahead of any 404 (the 401-before-404 precedence rule of
// spec section 6.1). Ownership checks happen inside the handlers.
func (v *TokenVerifier) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, http.StatusBadRequest, "missing or malformed Authorization header")
			return
		}
		raw := strings.TrimPrefix(header, prefix)
		claims, err := v.parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid bearer token")
			return
		}
		bidderID, err := shared.ParseBidderID(claims.BidderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid bearer token")
			return
		}
		principal := Principal{BidderID: bidderID, Capabilities: claims.Capabilities}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCapability returns middleware that returns 401 when the
// authenticated principal lacks cap, in preference to any 404 a
// downstream handler might otherwise return (spec section 6.1).
func RequireCapability(cap Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || !principal.Has(cap) {
				writeError(w, http.StatusUnauthorized, "missing capability: "+string(cap))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
