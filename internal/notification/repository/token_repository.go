package repository

import (
	"time"

	"presensi-backend/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines the interface for the local token mirror
type DeviceTokenRepository interface {
	SaveToken(ownerUID, token string, seenAt time.Time) error
	GetActiveTokens(ownerUID string) ([]domain.DeviceToken, error)
	MarkStale(token string) error
	DeleteUnseenBefore(cutoff time.Time) (int64, error)
}

// deviceTokenRepository implements DeviceTokenRepository using GORM
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a new instance of deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

// SaveToken upserts one observed token (atomic: INSERT ... ON CONFLICT).
// Re-observing a token in the Source Store clears any stale mark, so a
// device that re-registers the same token value becomes deliverable again.
func (r *deviceTokenRepository) SaveToken(ownerUID, token string, seenAt time.Time) error {
	deviceToken := &domain.DeviceToken{
		ID:         uuid.New().String(),
		OwnerUID:   ownerUID,
		Token:      token,
		Stale:      false,
		LastSeenAt: seenAt,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_uid", "stale", "last_seen_at", "updated_at"}),
	}).Create(deviceToken).Error
}

// GetActiveTokens returns every non-stale token for an owner, newest first.
func (r *deviceTokenRepository) GetActiveTokens(ownerUID string) ([]domain.DeviceToken, error) {
	var tokens []domain.DeviceToken
	err := r.db.Where("owner_uid = ? AND stale = ?", ownerUID, false).
		Order("last_seen_at DESC").Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// MarkStale flags a token the gateway reported as unregistered.
func (r *deviceTokenRepository) MarkStale(token string) error {
	return r.db.Model(&domain.DeviceToken{}).Where("token = ?", token).
		Updates(map[string]interface{}{"stale": true, "updated_at": time.Now()}).Error
}

// DeleteUnseenBefore removes tokens not observed in the Source Store since
// the cutoff and returns how many were removed.
func (r *deviceTokenRepository) DeleteUnseenBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("last_seen_at < ?", cutoff).Delete(&domain.DeviceToken{})
	return result.RowsAffected, result.Error
}
