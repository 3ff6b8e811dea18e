package domain

import "time"

// DeviceToken is the local mirror of one push-delivery token from the Source
// Store. An owner may hold several rows (multi-device). Stale is set when the
// Push Gateway reports the token unregistered; a stale token is excluded from
// delivery until the Source Store shows it again.
type DeviceToken struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	OwnerUID   string    `json:"owner_uid" gorm:"index;not null"`
	Token      string    `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	Stale      bool      `json:"stale" gorm:"default:false"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
