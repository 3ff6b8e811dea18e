package repository

import "presensi-backend/internal/permit/domain"

// PermitRepository defines Local Store operations for permit mirror rows
type PermitRepository interface {
	FindByFirestoreID(firestoreID string) (*domain.Permit, error)
	Create(permit *domain.Permit) error
	UpdateFields(firestoreID string, fields map[string]interface{}) error
	DeleteByFirestoreID(firestoreID string) error
}
