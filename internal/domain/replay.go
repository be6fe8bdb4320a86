package domain

import "time"

// ReplayRecord persists a cached response for an Idempotency-Key so retried
// writes can be answered without running them again. Payload is opaque JSON
// owned by the caller.
type ReplayRecord struct {
	Key       string    `json:"key"        gorm:"column:replay_key;type:varchar(512);primaryKey"`
	Payload   []byte    `json:"-"          gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}

// TableName returns the database table name for ReplayRecord.
func (ReplayRecord) TableName() string { return "replay_records" }
