package repository

import (
	"context"
	"fmt"
	"time"

	empdomain "presensi-backend/internal/employee/domain"
	emprepo "presensi-backend/internal/employee/repository"
	permitdomain "presensi-backend/internal/permit/domain"
	permitrepo "presensi-backend/internal/permit/repository"
	presencedomain "presensi-backend/internal/presence/domain"
	presencerepo "presensi-backend/internal/presence/repository"
	"presensi-backend/internal/sync"
)

// localStore adapts the per-kind GORM repositories to the engine's
// LocalStore view. Snapshots are keyed by local column name so the engine
// can diff them against mapped remote records.
type localStore struct {
	employees emprepo.EmployeeRepository
	permits   permitrepo.PermitRepository
	presences presencerepo.PresenceRepository
}

// NewLocalStore creates the Local Store facade used by the engine.
func NewLocalStore(employees emprepo.EmployeeRepository, permits permitrepo.PermitRepository, presences presencerepo.PresenceRepository) sync.LocalStore {
	return &localStore{
		employees: employees,
		permits:   permits,
		presences: presences,
	}
}

func (s *localStore) FindByExternalKey(ctx context.Context, kind sync.EntityKind, key string) (map[string]interface{}, bool, error) {
	switch kind {
	case sync.KindEmployee:
		emp, err := s.employees.FindByUID(key)
		if err != nil || emp == nil {
			return nil, false, err
		}
		return map[string]interface{}{
			"uid":       emp.UID,
			"name":      emp.Name,
			"email":     emp.Email,
			"jabatan":   emp.Jabatan,
			"telepon":   emp.Telepon,
			"fcm_token": emp.FCMToken,
			"joined_at": emp.JoinedAt,
		}, true, nil
	case sync.KindPermit:
		permit, err := s.permits.FindByFirestoreID(key)
		if err != nil || permit == nil {
			return nil, false, err
		}
		return map[string]interface{}{
			"firestore_id":    permit.FirestoreID,
			"uid":             permit.UID,
			"jenis_perizinan": permit.JenisPerizinan,
			"nama_karyawan":   permit.NamaKaryawan,
			"status":          permit.Status,
			"keterangan":      permit.Keterangan,
			"tanggal_mulai":   permit.TanggalMulai,
			"tanggal_selesai": permit.TanggalSelesai,
		}, true, nil
	case sync.KindPresence:
		presence, err := s.presences.FindByFirestoreID(key)
		if err != nil || presence == nil {
			return nil, false, err
		}
		return map[string]interface{}{
			"firestore_id":  presence.FirestoreID,
			"uid":           presence.UID,
			"nama_karyawan": presence.NamaKaryawan,
			"tanggal":       presence.Tanggal,
			"jam_masuk":     presence.JamMasuk,
			"jam_keluar":    presence.JamKeluar,
			"status":        presence.Status,
		}, true, nil
	}
	return nil, false, fmt.Errorf("unknown entity kind %q", kind)
}

func (s *localStore) Create(ctx context.Context, kind sync.EntityKind, key string, fields map[string]interface{}) error {
	switch kind {
	case sync.KindEmployee:
		return s.employees.Create(&empdomain.Employee{
			UID:      key,
			Name:     asString(fields, "name"),
			Email:    asString(fields, "email"),
			Jabatan:  asString(fields, "jabatan"),
			Telepon:  asString(fields, "telepon"),
			FCMToken: asString(fields, "fcm_token"),
			JoinedAt: asTime(fields, "joined_at"),
		})
	case sync.KindPermit:
		return s.permits.Create(&permitdomain.Permit{
			FirestoreID:    key,
			UID:            asString(fields, "uid"),
			JenisPerizinan: asString(fields, "jenis_perizinan"),
			NamaKaryawan:   asString(fields, "nama_karyawan"),
			Status:         asString(fields, "status"),
			Keterangan:     asString(fields, "keterangan"),
			TanggalMulai:   asTime(fields, "tanggal_mulai"),
			TanggalSelesai: asTime(fields, "tanggal_selesai"),
		})
	case sync.KindPresence:
		return s.presences.Create(&presencedomain.Presence{
			FirestoreID:  key,
			UID:          asString(fields, "uid"),
			NamaKaryawan: asString(fields, "nama_karyawan"),
			Tanggal:      asTime(fields, "tanggal"),
			JamMasuk:     asString(fields, "jam_masuk"),
			JamKeluar:    asString(fields, "jam_keluar"),
			Status:       asString(fields, "status"),
		})
	}
	return fmt.Errorf("unknown entity kind %q", kind)
}

func (s *localStore) Update(ctx context.Context, kind sync.EntityKind, key string, fields map[string]interface{}) error {
	switch kind {
	case sync.KindEmployee:
		return s.employees.UpdateFields(key, fields)
	case sync.KindPermit:
		return s.permits.UpdateFields(key, fields)
	case sync.KindPresence:
		return s.presences.UpdateFields(key, fields)
	}
	return fmt.Errorf("unknown entity kind %q", kind)
}

func (s *localStore) Delete(ctx context.Context, kind sync.EntityKind, key string) error {
	switch kind {
	case sync.KindEmployee:
		return s.employees.DeleteByUID(key)
	case sync.KindPermit:
		return s.permits.DeleteByFirestoreID(key)
	case sync.KindPresence:
		return s.presences.DeleteByFirestoreID(key)
	}
	return fmt.Errorf("unknown entity kind %q", kind)
}

func asString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func asTime(fields map[string]interface{}, key string) *time.Time {
	if v, ok := fields[key].(*time.Time); ok {
		return v
	}
	return nil
}
