package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-stay-holds/internal/domain"
)

// CreateWaitlistEntry appends e. Duplicate (holder, range) entries are allowed.
func CreateWaitlistEntry(ctx context.Context, db *gorm.DB, e *domain.WaitlistEntry) error {
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create waitlist entry: %w", err)
	}
	return nil
}

// WaitlistStats returns the number of the tenant's entries for resourceID
// whose range overlaps [start, end), and the newest entry's CreatedAt. When
// nothing matches, count is 0 and latest is nil.
func WaitlistStats(ctx context.Context, db *gorm.DB, tenantID, resourceID, start, end string) (count int64, latest *time.Time, err error) {
	q := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.WaitlistEntry{}).
			Where("tenant_id = ? AND resource_id = ? AND range_start < ? AND range_end > ?", tenantID, resourceID, end, start)
	}

	if err = q().Count(&count).Error; err != nil {
		return 0, nil, fmt.Errorf("count waitlist: %w", err)
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order+Limit rather than MAX(): SQLite returns MAX() over DATETIME as TEXT.
	var row struct {
		CreatedAt time.Time
	}
	if err = q().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, fmt.Errorf("latest waitlist entry: %w", err)
	}
	return count, &row.CreatedAt, nil
}
