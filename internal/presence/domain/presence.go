package domain

import "time"

// Presence mirrors one Source Store attendance document for a single
// employee and calendar day. FirestoreID is the external key.
type Presence struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	FirestoreID  string     `json:"firestore_id" gorm:"uniqueIndex;not null"`
	UID          string     `json:"uid" gorm:"index"`
	NamaKaryawan string     `json:"nama_karyawan"`
	Tanggal      *time.Time `json:"tanggal,omitempty"` // Attendance date, day granularity
	JamMasuk     string     `json:"jam_masuk"`         // Check-in time as recorded remotely
	JamKeluar    string     `json:"jam_keluar"`
	Status       string     `json:"status"` // present, late, absent
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
