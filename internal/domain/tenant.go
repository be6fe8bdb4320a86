package domain

import "time"

// Tenant is a property operator served by this deployment. The request router
// resolves tenants by Slug through a bounded TTL cache.
type Tenant struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Slug      string    `json:"slug"       gorm:"type:varchar(64);not null;uniqueIndex:ux_tenants_slug"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Active    bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Tenant.
func (Tenant) TableName() string { return "tenants" }
