// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Hold model
// (the lock store).
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run on the root handle or on the transaction passed to WithResourceLock.
// They follow the "thin repository" approach: conflict rules live in the
// services package; this file only persists and queries.
//
// Error semantics:
//   - Missing rows are reported as ErrNotFound (gorm.ErrRecordNotFound).
//   - Every other DB error is wrapped with the failing operation and
//     propagated; callers classify with errors.Is.
//
// Functions:
//
//   - WithResourceLock(ctx, db, tenantID, resourceID, now, fn) -> error
//     Runs fn in a transaction whose first statement bumps the resource's
//     guard row, serializing hold writers per (tenant, resource).
//
//   - ListLiveHolds(ctx, db, tenantID, resourceID, now) -> []domain.Hold, error
//     Holds with expires_at > now, soonest expiry first.
//
//   - FindHold(ctx, db, tenantID, resourceID, holderID, start, end) -> *domain.Hold, error
//     The holder's most recent hold on the exact range, live or not.
//
//   - CreateHold(ctx, db, h) -> error
//
//   - DeleteHolds(ctx, db, tenantID, resourceID, holderID, start, end) -> int64, error
//     Removes the holder's holds on the exact range. Zero rows is not an error.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-stay-holds/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// WithResourceLock executes fn inside a transaction that has already claimed
// the write lock for resourceID.
//
// The guard upsert is deliberately the first statement: on SQLite it takes the
// database write lock before any read, so the reads fn performs observe every
// hold committed by earlier writers. On PostgreSQL the same statement holds
// the guard row lock until commit.
func WithResourceLock(ctx context.Context, db *gorm.DB, tenantID, resourceID string, now time.Time, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guard := &domain.ResourceGuard{TenantID: tenantID, ResourceID: resourceID, Version: 1, TouchedAt: now}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "resource_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"version":    gorm.Expr("resource_guards.version + 1"),
				"touched_at": now,
			}),
		}).Create(guard).Error
		if err != nil {
			return fmt.Errorf("lock resource %q: %w", resourceID, err)
		}
		return fn(tx)
	})
}

// ListLiveHolds returns the tenant's holds on resourceID that have not expired at now,
// ordered by expires_at then id.
func ListLiveHolds(ctx context.Context, db *gorm.DB, tenantID, resourceID string, now time.Time) ([]domain.Hold, error) {
	var out []domain.Hold
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ? AND expires_at > ?", tenantID, resourceID, now).
		Order("expires_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list live holds: %w", err)
	}
	return out, nil
}

// FindHold returns the holder's latest hold on the exact range, or
// ErrNotFound.
func FindHold(ctx context.Context, db *gorm.DB, tenantID, resourceID, holderID, start, end string) (*domain.Hold, error) {
	var h domain.Hold
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ? AND holder_id = ? AND range_start = ? AND range_end = ?",
			tenantID, resourceID, holderID, start, end).
		Order("expires_at DESC").
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find hold: %w", err)
	}
	return &h, nil
}

// CreateHold inserts h as given. Callers set ID and timestamps.
func CreateHold(ctx context.Context, db *gorm.DB, h *domain.Hold) error {
	if err := db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

// DeleteHolds removes every hold the holder has on the exact range and
// reports how many rows went away.
func DeleteHolds(ctx context.Context, db *gorm.DB, tenantID, resourceID, holderID, start, end string) (int64, error) {
	res := db.WithContext(ctx).
		Where("tenant_id = ? AND resource_id = ? AND holder_id = ? AND range_start = ? AND range_end = ?",
			tenantID, resourceID, holderID, start, end).
		Delete(&domain.Hold{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete holds: %w", res.Error)
	}
	return res.RowsAffected, nil
}
