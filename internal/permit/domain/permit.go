package domain

import "time"

// PermitStatus represents the review state of a leave/permit request
type PermitStatus string

const (
	PermitStatusPending  PermitStatus = "pending"
	PermitStatusApproved PermitStatus = "approved"
	PermitStatusRejected PermitStatus = "rejected"
)

// Permit mirrors one Source Store permit document (leave, sick, overtime
// requests). FirestoreID is the external key.
type Permit struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	FirestoreID    string     `json:"firestore_id" gorm:"uniqueIndex;not null"`
	UID            string     `json:"uid" gorm:"index"` // Requesting employee
	JenisPerizinan string     `json:"jenis_perizinan"`  // Permit type (sick, leave, ...)
	NamaKaryawan   string     `json:"nama_karyawan"`    // Employee display name
	Status         string     `json:"status" gorm:"default:pending"`
	Keterangan     string     `json:"keterangan"` // Free-form reason
	TanggalMulai   *time.Time `json:"tanggal_mulai,omitempty"`
	TanggalSelesai *time.Time `json:"tanggal_selesai,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
