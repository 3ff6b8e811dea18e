package repository

import (
	"time"

	"presensi-backend/internal/presence/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormPresenceRepository implements PresenceRepository using GORM
type gormPresenceRepository struct {
	db *gorm.DB
}

// NewGormPresenceRepository creates a new GORM-based PresenceRepository
func NewGormPresenceRepository(db *gorm.DB) PresenceRepository {
	return &gormPresenceRepository{db: db}
}

func (r *gormPresenceRepository) FindByFirestoreID(firestoreID string) (*domain.Presence, error) {
	var presence domain.Presence
	err := r.db.Where("firestore_id = ?", firestoreID).First(&presence).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &presence, nil
}

func (r *gormPresenceRepository) Create(presence *domain.Presence) error {
	if presence.ID == "" {
		presence.ID = uuid.New().String()
	}
	presence.CreatedAt = time.Now()
	presence.UpdatedAt = time.Now()
	return r.db.Create(presence).Error
}

func (r *gormPresenceRepository) UpdateFields(firestoreID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&domain.Presence{}).Where("firestore_id = ?", firestoreID).Updates(fields).Error
}

func (r *gormPresenceRepository) DeleteByFirestoreID(firestoreID string) error {
	return r.db.Where("firestore_id = ?", firestoreID).Delete(&domain.Presence{}).Error
}
