package sync

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind identifies one synced entity family
type EntityKind string

const (
	KindEmployee EntityKind = "employee"
	KindPermit   EntityKind = "permit"
	KindPresence EntityKind = "presence"
)

// Kinds lists every synced entity kind, in reconciliation order.
var Kinds = []EntityKind{KindEmployee, KindPermit, KindPresence}

// ParseKind resolves a kind name from an API path or change event.
func ParseKind(s string) (EntityKind, bool) {
	switch EntityKind(strings.ToLower(s)) {
	case KindEmployee:
		return KindEmployee, true
	case KindPermit:
		return KindPermit, true
	case KindPresence:
		return KindPresence, true
	}
	return "", false
}

// RemoteRecord is one Source Store document: its document ID plus raw fields.
type RemoteRecord struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// MappedField maps one remote field name onto one Local Store column.
// IsDate marks calendar-day fields that need normalized comparison.
type MappedField struct {
	Remote string
	Local  string
	IsDate bool
}

// Mapping is the per-kind field-mapping table. It is the single source of
// truth for both the bulk and single-record reconciliation paths.
type Mapping struct {
	Kind       EntityKind
	Collection string // Source Store collection name
	// External key resolution: either the document ID or a named remote field.
	KeyFromDocID bool
	KeyField     string
	LocalKey     string // Local Store column holding the external key
	Fields       []MappedField
}

// mappings is keyed by entity kind; changing a table here changes every
// reconciliation path at once.
var mappings = map[EntityKind]Mapping{
	KindEmployee: {
		Kind:         KindEmployee,
		Collection:   "employees",
		KeyFromDocID: false,
		KeyField:     "uid",
		LocalKey:     "uid",
		Fields: []MappedField{
			{Remote: "name", Local: "name"},
			{Remote: "email", Local: "email"},
			{Remote: "position", Local: "jabatan"},
			{Remote: "phone", Local: "telepon"},
			{Remote: "fcmToken", Local: "fcm_token"},
			{Remote: "joinedAt", Local: "joined_at", IsDate: true},
		},
	},
	KindPermit: {
		Kind:         KindPermit,
		Collection:   "permits",
		KeyFromDocID: true,
		LocalKey:     "firestore_id",
		Fields: []MappedField{
			{Remote: "uid", Local: "uid"},
			{Remote: "permitType", Local: "jenis_perizinan"},
			{Remote: "employeeName", Local: "nama_karyawan"},
			{Remote: "status", Local: "status"},
			{Remote: "reason", Local: "keterangan"},
			{Remote: "startDate", Local: "tanggal_mulai", IsDate: true},
			{Remote: "endDate", Local: "tanggal_selesai", IsDate: true},
		},
	},
	KindPresence: {
		Kind:         KindPresence,
		Collection:   "presences",
		KeyFromDocID: true,
		LocalKey:     "firestore_id",
		Fields: []MappedField{
			{Remote: "uid", Local: "uid"},
			{Remote: "name", Local: "nama_karyawan"},
			{Remote: "date", Local: "tanggal", IsDate: true},
			{Remote: "checkIn", Local: "jam_masuk"},
			{Remote: "checkOut", Local: "jam_keluar"},
			{Remote: "status", Local: "status"},
		},
	},
}

// MappingFor returns the field-mapping table for a kind.
func MappingFor(kind EntityKind) Mapping {
	return mappings[kind]
}

// ExternalKey resolves the external key of a remote record per the kind's
// mapping. The second return is false when the record carries no usable key.
func (m Mapping) ExternalKey(rec RemoteRecord) (string, bool) {
	if m.KeyFromDocID {
		if rec.ID == "" {
			return "", false
		}
		return rec.ID, true
	}
	v, ok := rec.Fields[m.KeyField].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MapFields converts a remote record into Local Store column values per the
// mapping table. Date fields parse defensively: empty or unparsable remote
// dates map to a nil value, never to an error.
func (m Mapping) MapFields(rec RemoteRecord) map[string]interface{} {
	out := make(map[string]interface{}, len(m.Fields))
	for _, f := range m.Fields {
		raw, ok := rec.Fields[f.Remote]
		if !ok {
			continue
		}
		if f.IsDate {
			out[f.Local] = parseDate(raw)
			continue
		}
		out[f.Local] = stringValue(raw)
	}
	return out
}

// Date layouts accepted from the Source Store, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// parseDate converts a remote date value to *time.Time, nil when absent
// or unparsable.
func parseDate(raw interface{}) *time.Time {
	switch v := raw.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	case string:
		if v == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
		return nil
	default:
		return nil
	}
}

// stringValue flattens a raw remote value into the string form stored locally.
func stringValue(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
