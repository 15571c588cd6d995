package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/httpapi"
	batchstore "github.com/andrescamacho/flowtrading-go/internal/domain/batch/memstore"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	productstore "github.com/andrescamacho/flowtrading-go/internal/domain/product/memstore"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

const hmacSecret = "test-secret"

func signToken(t *testing.T, bidderID shared.BidderID, capabilities []string) string {
	t.Helper()
	claims := httpapi.Claims{
		BidderID:     bidderID.String(),
		Capabilities: capabilities,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(hmacSecret))
	require.NoError(t, err)
	return signed
}

func newProductOnlyRouter(clock shared.Clock, reg *product.Registry, edges product.EdgeStore) http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Registry:   reg,
		EdgeStore:  edges,
		BatchStore: batchstore.New(),
		Verifier:   httpapi.NewTokenVerifier(hmacSecret),
		Clock:      clock,
	})
}

// TestProductRead_MissingCapabilityPrecedesNotFound covers scenario
// 5: GET /product/{nonexistent_id} without can_view_products returns
// 401, not 404.
func TestProductRead_MissingCapabilityPrecedesNotFound(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	edges := productstore.New()
	reg := product.NewRegistry(edges, clock)
	router := newProductOnlyRouter(clock, reg, edges)

	token := signToken(t, shared.NewBidderID(), nil)
	req := httptest.NewRequest(http.MethodGet, "/product/"+shared.NewProductID().String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestProductRead_GrantedCapabilityYieldsNotFound confirms the 401
// precedence above is specific to the missing capability: the same
// nonexistent id, with can_view_products granted, falls through to
// the ordinary 404.
func TestProductRead_GrantedCapabilityYieldsNotFound(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	edges := productstore.New()
	reg := product.NewRegistry(edges, clock)
	router := newProductOnlyRouter(clock, reg, edges)

	token := signToken(t, shared.NewBidderID(), []string{string(httpapi.CapViewProduct)})
	req := httptest.NewRequest(http.MethodGet, "/product/"+shared.NewProductID().String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
