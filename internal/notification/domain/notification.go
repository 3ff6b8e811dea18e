package domain

import "time"

// NotificationStatus is the delivery lifecycle state of one notification
type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

// Notification is one user-visible alert. Rows are created pending by
// whichever collaborator decides a recipient needs alerting; status, sent_at
// and the delivery tallies are mutated only by the dispatcher. A sent or
// failed row is immutable except through an explicit resend, which re-enters
// pending.
type Notification struct {
	ID            string             `json:"id" gorm:"primaryKey"`
	RecipientType string             `json:"recipient_type" gorm:"index:idx_recipient"`
	RecipientID   string             `json:"recipient_id" gorm:"index:idx_recipient"`
	Title         string             `json:"title" gorm:"not null"`
	Body          string             `json:"body"`
	Data          map[string]string  `json:"data" gorm:"serializer:json"`
	Type          string             `json:"type"`
	Priority      string             `json:"priority"`
	Status        NotificationStatus `json:"status" gorm:"default:pending;index"`
	SentCount     int                `json:"sent_count"`
	FailedCount   int                `json:"failed_count"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
