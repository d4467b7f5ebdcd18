package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/loomcart/storefront/internal/platform/requestctx"
)

var errUnreachable = errors.New("connection refused")

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestRouterHealthz(t *testing.T) {
	t.Parallel()

	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeEnvelope(t, rec)
	require.Equal(t, "ok", payload["status"])
}

func TestRouterReadyzReportsDegradedDependencies(t *testing.T) {
	t.Parallel()

	health := NewHealthHandlers(WithReadinessCheck("commerce", func(context.Context) error {
		return errUnreachable
	}))
	router := NewRouter(WithHealthHandlers(health))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	payload := decodeEnvelope(t, rec)
	require.Equal(t, "degraded", payload["status"])
}

func TestRouterUnknownRouteReturnsEnvelope(t *testing.T) {
	t.Parallel()

	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	payload := decodeEnvelope(t, rec)
	require.Equal(t, errorNotFoundCode, payload["code"])
}

func TestRouterStoresSessionIDOnContext(t *testing.T) {
	t.Parallel()

	var seen string
	router := NewRouter(WithSessionRoutes(func(r chi.Router) {
		r.Get("/whoami", func(w http.ResponseWriter, req *http.Request) {
			seen = requestctx.SessionID(req.Context())
			w.WriteHeader(http.StatusNoContent)
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/whoami", nil)
	req.Header.Set(sessionHeader, "sess-context-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "sess-context-7", seen)
}

func TestRouterUnconfiguredGroupReturnsNotImplemented(t *testing.T) {
	t.Parallel()

	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/submit", nil))

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}
