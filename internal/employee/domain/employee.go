package domain

import "time"

// Employee mirrors one Source Store employee document. UID is the external
// key joining the row to its document and is immutable once set.
type Employee struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	UID       string     `json:"uid" gorm:"uniqueIndex;not null"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Jabatan   string     `json:"jabatan"` // Position title
	Telepon   string     `json:"telepon"`
	FCMToken  string     `json:"-"` // Latest known token, mirrored from the Source Store
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
