package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/common"
	"github.com/bobmcallan/timesup-portal/internal/interfaces"
	"github.com/goccy/go-json"
)

// Keys of the persisted slot. Timestamps are epoch milliseconds.
const (
	KeyPayload      = "timesup_chart_data"
	KeyFetchedAt    = "timesup_chart_data_timestamp"
	KeyExpiresAt    = "timesup_chart_data_expiration"
	KeyDeployMarker = "timesup_deploy_version"
)

// PersistedStore keeps the slot in a key-value store so it survives restarts.
// A slot written by a different deployment is discarded when the store opens.
type PersistedStore struct {
	mu     sync.Mutex
	kv     interfaces.KeyValueStorage
	logger *common.Logger
}

// NewPersistedStore opens the slot held in kv. When the stored deploy marker
// differs from marker, the slot is cleared and the marker rewritten.
func NewPersistedStore(ctx context.Context, kv interfaces.KeyValueStorage, marker string, logger *common.Logger) (*PersistedStore, error) {
	s := &PersistedStore{kv: kv, logger: logger}

	stored, err := kv.Get(ctx, KeyDeployMarker)
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read deploy marker: %w", err)
	}
	if stored == marker {
		return s, nil
	}

	logger.Info().
		Str("previous", stored).
		Str("current", marker).
		Msg("deploy marker changed, discarding persisted chart cache")

	if err := s.Clear(ctx); err != nil {
		return nil, err
	}
	if err := kv.Set(ctx, KeyDeployMarker, marker); err != nil {
		return nil, fmt.Errorf("failed to write deploy marker: %w", err)
	}
	return s, nil
}

// Load reads the slot. Missing keys yield an empty slot; a payload without a
// readable expiration is returned already expired so it can still be served
// stale. Corrupt entries return ErrStorageRead.
func (s *PersistedStore) Load(ctx context.Context) (Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.kv.Get(ctx, KeyPayload)
	if err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			return Slot{}, nil
		}
		return Slot{}, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if payload == "" {
		return Slot{}, nil
	}
	if !json.Valid([]byte(payload)) {
		return Slot{}, fmt.Errorf("%w: stored payload is not valid JSON", ErrStorageRead)
	}

	slot := Slot{Payload: []byte(payload)}
	slot.FetchedAt, _ = s.readMillis(ctx, KeyFetchedAt)

	expiresAt, err := s.readMillis(ctx, KeyExpiresAt)
	if err != nil {
		s.logger.Warn().Str("error", err.Error()).Msg("persisted chart cache has no usable expiration, treating as expired")
	}
	slot.ExpiresAt = expiresAt

	return slot, nil
}

func (s *PersistedStore) readMillis(ctx context.Context, key string) (time.Time, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return time.UnixMilli(ms), nil
}

// Save writes the slot. The expiration key is removed first and written last,
// so an interrupted save leaves an expired slot rather than a mismatched one.
func (s *PersistedStore) Save(ctx context.Context, slot Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, KeyExpiresAt); err != nil {
		return fmt.Errorf("failed to save chart cache: %w", err)
	}
	if err := s.kv.Set(ctx, KeyPayload, string(slot.Payload)); err != nil {
		return fmt.Errorf("failed to save chart cache: %w", err)
	}
	if err := s.kv.Set(ctx, KeyFetchedAt, strconv.FormatInt(slot.FetchedAt.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("failed to save chart cache: %w", err)
	}
	if err := s.kv.Set(ctx, KeyExpiresAt, strconv.FormatInt(slot.ExpiresAt.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("failed to save chart cache: %w", err)
	}
	return nil
}

// Clear removes the three slot keys. The deploy marker is kept.
func (s *PersistedStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{KeyExpiresAt, KeyPayload, KeyFetchedAt} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear chart cache: %w", err)
		}
	}
	return nil
}
