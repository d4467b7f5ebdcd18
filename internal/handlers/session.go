package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/loomcart/storefront/internal/platform/httpx"
	"github.com/loomcart/storefront/internal/session"
)

// sessionWriter is the store surface the session endpoints drive.
type sessionWriter interface {
	SetTokens(sessionID, token, guestToken string)
	SelectAddress(sessionID, addressID string)
	Logout(sessionID string)
}

// SessionHandlers manages the per-session credentials and checkout selections
// a browser would otherwise keep in local storage.
type SessionHandlers struct {
	sessions sessionWriter
}

// NewSessionHandlers constructs session handlers.
func NewSessionHandlers(sessions sessionWriter) *SessionHandlers {
	return &SessionHandlers{sessions: sessions}
}

// Routes registers session endpoints under the provided router.
func (h *SessionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Put("/tokens", h.setTokens)
	r.Put("/address", h.selectAddress)
	r.Delete("/", h.logout)
}

type setTokensRequest struct {
	Token      string `json:"token"`
	GuestToken string `json:"guestToken"`
}

type selectAddressRequest struct {
	AddressID string `json:"addressId"`
}

func (h *SessionHandlers) setTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req setTokensRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" && strings.TrimSpace(req.GuestToken) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "token or guestToken is required", http.StatusBadRequest))
		return
	}

	h.sessions.SetTokens(sessionID, strings.TrimSpace(req.Token), strings.TrimSpace(req.GuestToken))
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *SessionHandlers) selectAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req selectAddressRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	addressID := strings.TrimSpace(req.AddressID)
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "addressId is required", http.StatusBadRequest))
		return
	}

	h.sessions.SelectAddress(sessionID, addressID)
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *SessionHandlers) logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	h.sessions.Logout(sessionID)
	writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *SessionHandlers) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	if h.sessions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("sessions_unavailable", "session store unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "session id is required", http.StatusUnauthorized))
		return "", false
	}
	return sessionID, true
}

var _ sessionWriter = (*session.Store)(nil)
