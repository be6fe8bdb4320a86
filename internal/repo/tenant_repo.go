package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-stay-holds/internal/domain"
)

// GetTenantBySlug returns the tenant registered under slug, or ErrNotFound.
// Inactive tenants are returned as-is; the caller decides what they mean.
func GetTenantBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

// CreateTenant inserts an active tenant.
func CreateTenant(ctx context.Context, db *gorm.DB, slug, name string) (*domain.Tenant, error) {
	now := time.Now().UTC()
	t := &domain.Tenant{
		ID:        uuid.NewString(),
		Slug:      slug,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

// SetTenantActive flips the active flag for slug.
func SetTenantActive(ctx context.Context, db *gorm.DB, slug string, active bool) error {
	res := db.WithContext(ctx).Model(&domain.Tenant{}).
		Where("slug = ?", slug).
		Updates(map[string]any{"active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("update tenant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
