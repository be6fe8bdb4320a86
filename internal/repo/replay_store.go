// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides a database-backed ttlcache.Store used for
// Idempotency-Key response replay, so cached responses survive restarts and
// are shared by every instance pointed at the same database.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-stay-holds/internal/clock"
	"github.com/tbourn/go-stay-holds/internal/domain"
)

// ReplayStore keeps JSON-encoded values in the replay_records table. Expired
// rows are ignored on read and removed lazily by the Get that observes them.
type ReplayStore[V any] struct {
	db  *gorm.DB
	clk clock.Clock
}

// NewReplayStore returns a ReplayStore over db. A nil clock means the system
// clock.
func NewReplayStore[V any](db *gorm.DB, clk clock.Clock) *ReplayStore[V] {
	return &ReplayStore[V]{db: db, clk: clock.Or(clk)}
}

// Get returns the live value stored under key.
func (s *ReplayStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	var rec domain.ReplayRecord
	err := s.db.WithContext(ctx).Where("replay_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("get replay: %w", err)
	}
	if !rec.ExpiresAt.After(s.clk.Now()) {
		_ = s.Evict(ctx, key)
		return zero, false, nil
	}
	var v V
	if err := json.Unmarshal(rec.Payload, &v); err != nil {
		return zero, false, fmt.Errorf("decode replay %q: %w", key, err)
	}
	return v, true, nil
}

// Set upserts value under key until ttl elapses. A non-positive ttl removes
// the key.
func (s *ReplayStore[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Evict(ctx, key)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode replay %q: %w", key, err)
	}
	now := s.clk.Now().UTC()
	rec := domain.ReplayRecord{Key: key, Payload: payload, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "replay_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "created_at", "expires_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("set replay: %w", err)
	}
	return nil
}

// Evict deletes key. Deleting a missing key is not an error.
func (s *ReplayStore[V]) Evict(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("replay_key = ?", key).Delete(&domain.ReplayRecord{}).Error; err != nil {
		return fmt.Errorf("evict replay: %w", err)
	}
	return nil
}

// Clear deletes every replay record.
func (s *ReplayStore[V]) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&domain.ReplayRecord{}).Error; err != nil {
		return fmt.Errorf("clear replays: %w", err)
	}
	return nil
}

// PurgeExpiredReplays removes every record that expired at or before now and
// reports how many rows went.
func PurgeExpiredReplays(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.ReplayRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge replays: %w", res.Error)
	}
	return res.RowsAffected, nil
}
