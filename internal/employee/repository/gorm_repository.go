package repository

import (
	"time"

	"presensi-backend/internal/employee/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormEmployeeRepository implements EmployeeRepository using GORM
type gormEmployeeRepository struct {
	db *gorm.DB
}

// NewGormEmployeeRepository creates a new GORM-based EmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &gormEmployeeRepository{db: db}
}

func (r *gormEmployeeRepository) FindByUID(uid string) (*domain.Employee, error) {
	var employee domain.Employee
	err := r.db.Where("uid = ?", uid).First(&employee).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

func (r *gormEmployeeRepository) Create(employee *domain.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.New().String()
	}
	employee.CreatedAt = time.Now()
	employee.UpdatedAt = time.Now()
	return r.db.Create(employee).Error
}

func (r *gormEmployeeRepository) UpdateFields(uid string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&domain.Employee{}).Where("uid = ?", uid).Updates(fields).Error
}

func (r *gormEmployeeRepository) DeleteByUID(uid string) error {
	return r.db.Where("uid = ?", uid).Delete(&domain.Employee{}).Error
}

func (r *gormEmployeeRepository) UpdateFCMToken(uid, token string) error {
	return r.db.Model(&domain.Employee{}).Where("uid = ?", uid).
		Updates(map[string]interface{}{"fcm_token": token, "updated_at": time.Now()}).Error
}
