package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// RecordState is the lifecycle of a submission record.
type RecordState string

const (
	// DefaultTTL bounds how long a completed submission can be replayed. A
	// shopper retrying a checkout later than this gets a fresh submission.
	DefaultTTL = 24 * time.Hour
	// StateInFlight marks a key whose first request is still being processed.
	StateInFlight RecordState = "in_flight"
	// StateReplayable marks a key whose response has been captured and can be
	// served again without re-submitting the order.
	StateReplayable RecordState = "replayable"
)

// ReservationState is the outcome of attempting to reserve a key.
type ReservationState int

const (
	// ReservationNew means the key is unused and the caller should proceed.
	ReservationNew ReservationState = iota
	// ReservationReplay means a captured response exists and must be replayed.
	ReservationReplay
	// ReservationInFlight means the first request for this key has not finished.
	ReservationInFlight
)

// Reservation is the result of reserving a key, carrying the record when one exists.
type Reservation struct {
	State  ReservationState
	Record Record
}

// StoredResponse is the captured HTTP response replayed on a duplicate submission.
type StoredResponse struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Record tracks one submission key from reservation to replayable response.
type Record struct {
	Key         string
	Fingerprint string
	State       RecordState
	Response    StoredResponse
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}

// Store persists submission reservations and their captured responses.
type Store interface {
	Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	SaveResponse(ctx context.Context, key, fingerprint string, resp StoredResponse, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key, fingerprint string) error
}

// ErrFingerprintMismatch is returned when a key is reused for a materially
// different request, which is a client bug rather than a retry.
var ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")

func recordID(key string) string {
	return sha256Hex([]byte(strings.TrimSpace(key)))
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sanitizeHeaders copies the response headers worth replaying, dropping
// hop-by-hop and derived headers that must be recomputed per response.
func sanitizeHeaders(header http.Header) http.Header {
	if len(header) == 0 {
		return nil
	}

	filtered := make(http.Header, len(header))
	for name, values := range header {
		canonical := http.CanonicalHeaderKey(name)
		if shouldOmitHeader(canonical) {
			continue
		}
		filtered[canonical] = append([]string(nil), values...)
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func shouldOmitHeader(name string) bool {
	switch strings.ToLower(name) {
	case "content-length", "date", "connection", "keep-alive", "proxy-authenticate", "proxy-authorization", "te", "trailers", "transfer-encoding", "upgrade":
		return true
	default:
		return false
	}
}
