package repository

import (
	"time"

	"presensi-backend/internal/permit/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormPermitRepository implements PermitRepository using GORM
type gormPermitRepository struct {
	db *gorm.DB
}

// NewGormPermitRepository creates a new GORM-based PermitRepository
func NewGormPermitRepository(db *gorm.DB) PermitRepository {
	return &gormPermitRepository{db: db}
}

func (r *gormPermitRepository) FindByFirestoreID(firestoreID string) (*domain.Permit, error) {
	var permit domain.Permit
	err := r.db.Where("firestore_id = ?", firestoreID).First(&permit).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &permit, nil
}

func (r *gormPermitRepository) Create(permit *domain.Permit) error {
	if permit.ID == "" {
		permit.ID = uuid.New().String()
	}
	permit.CreatedAt = time.Now()
	permit.UpdatedAt = time.Now()
	return r.db.Create(permit).Error
}

func (r *gormPermitRepository) UpdateFields(firestoreID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&domain.Permit{}).Where("firestore_id = ?", firestoreID).Updates(fields).Error
}

func (r *gormPermitRepository) DeleteByFirestoreID(firestoreID string) error {
	return r.db.Where("firestore_id = ?", firestoreID).Delete(&domain.Permit{}).Error
}
