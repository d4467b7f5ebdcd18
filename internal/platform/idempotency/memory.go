package idempotency

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how many reservations pass between lazy expiry sweeps.
const sweepInterval = 256

// MemoryStore keeps submission records in process memory. The storefront runs
// as a single instance and replay protection only needs to cover the
// double-submit window, so expired records are purged lazily on access rather
// than by a background job.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]Record
	reserves int
}

// NewMemoryStore constructs an empty memory-backed idempotency store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Reserve claims the key for the caller, reporting a replay or an in-flight
// duplicate when the key has been seen before.
func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reserves++
	if s.reserves%sweepInterval == 0 {
		s.sweepLocked(now)
	}

	id := recordID(key)
	record, ok := s.records[id]
	if !ok || expiredAt(record, now) {
		record = Record{
			Key:         key,
			Fingerprint: fingerprint,
			State:       StateInFlight,
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		s.records[id] = record
		return Reservation{State: ReservationNew, Record: record}, nil
	}

	if record.Fingerprint != fingerprint {
		return Reservation{}, ErrFingerprintMismatch
	}
	if record.State == StateReplayable {
		return Reservation{State: ReservationReplay, Record: record}, nil
	}
	return Reservation{State: ReservationInFlight, Record: record}, nil
}

// SaveResponse captures the response for later replays of the same key.
func (s *MemoryStore) SaveResponse(_ context.Context, key, fingerprint string, resp StoredResponse, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(key)
	record, ok := s.records[id]
	if ok && record.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	if !ok {
		record = Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}
	}

	record.State = StateReplayable
	record.Response = StoredResponse{
		Status:  resp.Status,
		Headers: sanitizeHeaders(resp.Headers),
	}
	if len(resp.Body) > 0 {
		record.Response.Body = append([]byte(nil), resp.Body...)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	record.ExpiresAt = now.Add(ttl)
	s.records[id] = record

	return nil
}

// Release drops the reservation so a retry can go through, used when the
// response could not be captured.
func (s *MemoryStore) Release(_ context.Context, key, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, recordID(key))
	return nil
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for id, record := range s.records {
		if expiredAt(record, now) {
			delete(s.records, id)
		}
	}
}

func expiredAt(record Record, now time.Time) bool {
	return !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt)
}
