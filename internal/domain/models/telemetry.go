package models

import "time"

// User is a requester known to the service, keyed by the stable external
// identity the transport surface reports.
type User struct {
	ID         uint  `gorm:"primaryKey;autoIncrement"`
	ExternalID int64 `gorm:"uniqueIndex;not null"`

	FirstName string `gorm:"size:128"`
	LastName  string `gorm:"size:128"`
	Username  string `gorm:"size:64"`
	Lang      string `gorm:"size:16"`

	CreatedAt time.Time
}

// TableName overrides the GORM default.
func (User) TableName() string { return "users" }

// Event is one telemetry entry: an update received, a request admitted, an
// acquisition outcome. Payload is free-form.
type Event struct {
	ID      uint      `gorm:"primaryKey;autoIncrement"`
	UserID  uint      `gorm:"index;not null"`
	Ts      time.Time `gorm:"index"`
	Type    string    `gorm:"size:32;not null"`
	Payload string    `gorm:"type:text"`
}

// TableName overrides the GORM default.
func (Event) TableName() string { return "events" }

// Download records one successful acquisition for per-user statistics.
type Download struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	UserID      uint `gorm:"index;not null"`
	Ts          time.Time
	Source      string `gorm:"size:16"`
	URL         string `gorm:"type:text"`
	Title       string `gorm:"type:text"`
	DurationSec int
	FileSize    int64
	Ext         string `gorm:"size:8"`
}

// TableName overrides the GORM default.
func (Download) TableName() string { return "downloads" }

// UserStats aggregates a user's history for the profile surface.
type UserStats struct {
	Downloads int64 `json:"downloads"`
	Events    int64 `json:"events"`
}
