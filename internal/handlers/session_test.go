package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loomcart/storefront/internal/session"
)

func newSessionRouter(store *session.Store) http.Handler {
	return NewRouter(WithSessionRoutes(NewSessionHandlers(store).Routes))
}

func TestSessionSetTokensAndLogout(t *testing.T) {
	t.Parallel()

	store := session.NewStore(time.Hour)
	router := newSessionRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/session/tokens", strings.NewReader(`{"guestToken":"guest-1"}`))
	req.Header.Set(sessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	values, err := store.Get("sess-1")
	require.NoError(t, err)
	require.Equal(t, "guest-1", values.AuthToken())

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/session/", nil)
	req.Header.Set(sessionHeader, "sess-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = store.Get("sess-1")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionSelectAddressPersists(t *testing.T) {
	t.Parallel()

	store := session.NewStore(time.Hour)
	store.SetTokens("sess-1", "tok", "")
	router := newSessionRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/session/address", strings.NewReader(`{"addressId":"addr-3"}`))
	req.Header.Set(sessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	values, err := store.Get("sess-1")
	require.NoError(t, err)
	require.Equal(t, "addr-3", values.SelectedAddressID)
}

func TestSessionEndpointsRequireSessionID(t *testing.T) {
	t.Parallel()

	router := newSessionRouter(session.NewStore(time.Hour))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/session/tokens", strings.NewReader(`{"token":"tok"}`)))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	payload := decodeEnvelope(t, rec)
	require.Equal(t, "session_required", payload["code"])
}
