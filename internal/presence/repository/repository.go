package repository

import "presensi-backend/internal/presence/domain"

// PresenceRepository defines Local Store operations for presence mirror rows
type PresenceRepository interface {
	FindByFirestoreID(firestoreID string) (*domain.Presence, error)
	Create(presence *domain.Presence) error
	UpdateFields(firestoreID string, fields map[string]interface{}) error
	DeleteByFirestoreID(firestoreID string) error
}
