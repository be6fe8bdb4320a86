package domain

import "time"

// WaitlistEntry records that a party wants to hear when a held range frees up.
// Entries are append-only; the same holder may register the same range more
// than once. Delivery of notifications is handled outside this service.
type WaitlistEntry struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	TenantID   string    `json:"tenant_id"   gorm:"type:varchar(64);not null;default:'';index:idx_waitlist_resource,priority:1"`
	ResourceID string    `json:"resource_id" gorm:"type:varchar(128);not null;index:idx_waitlist_resource,priority:2"`
	HolderID   string    `json:"holder_id"   gorm:"type:varchar(128);not null"`
	Contact    string    `json:"contact"     gorm:"type:varchar(255);not null"`
	RangeStart string    `json:"range_start" gorm:"type:char(10);not null;index:idx_waitlist_resource,priority:3"`
	RangeEnd   string    `json:"range_end"   gorm:"type:char(10);not null"`
	CreatedAt  time.Time `json:"created_at"  gorm:"not null"`
}

// TableName returns the database table name for WaitlistEntry.
func (WaitlistEntry) TableName() string { return "waitlist_entries" }
