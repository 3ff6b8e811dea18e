package repository

import "presensi-backend/internal/employee/domain"

// EmployeeRepository defines Local Store operations for employee mirror rows
type EmployeeRepository interface {
	FindByUID(uid string) (*domain.Employee, error)
	Create(employee *domain.Employee) error
	UpdateFields(uid string, fields map[string]interface{}) error
	DeleteByUID(uid string) error
	UpdateFCMToken(uid, token string) error
}
