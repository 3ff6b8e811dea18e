package sync

import (
	"testing"
	"time"
)

func TestExternalKeyResolution(t *testing.T) {
	tests := []struct {
		name    string
		kind    EntityKind
		rec     RemoteRecord
		wantKey string
		wantOK  bool
	}{
		{
			name:    "permit uses document ID",
			kind:    KindPermit,
			rec:     RemoteRecord{ID: "p1", Fields: map[string]interface{}{"uid": "u1"}},
			wantKey: "p1",
			wantOK:  true,
		},
		{
			name:   "permit without document ID is unusable",
			kind:   KindPermit,
			rec:    RemoteRecord{Fields: map[string]interface{}{"uid": "u1"}},
			wantOK: false,
		},
		{
			name:    "employee uses uid field",
			kind:    KindEmployee,
			rec:     RemoteRecord{ID: "doc9", Fields: map[string]interface{}{"uid": "u42"}},
			wantKey: "u42",
			wantOK:  true,
		},
		{
			name:   "employee without uid is unusable",
			kind:   KindEmployee,
			rec:    RemoteRecord{ID: "doc9", Fields: map[string]interface{}{"name": "Ann"}},
			wantOK: false,
		},
		{
			name:    "presence uses document ID",
			kind:    KindPresence,
			rec:     RemoteRecord{ID: "pr1", Fields: map[string]interface{}{}},
			wantKey: "pr1",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := MappingFor(tt.kind).ExternalKey(tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("ExternalKey() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && key != tt.wantKey {
				t.Errorf("ExternalKey() = %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestMapFieldsPermit(t *testing.T) {
	rec := RemoteRecord{
		ID: "p1",
		Fields: map[string]interface{}{
			"permitType":   "sick",
			"employeeName": "Ann",
			"status":       "pending",
			"startDate":    "2024-01-05",
		},
	}

	fields := MappingFor(KindPermit).MapFields(rec)

	if fields["jenis_perizinan"] != "sick" {
		t.Errorf("jenis_perizinan = %v, want sick", fields["jenis_perizinan"])
	}
	if fields["nama_karyawan"] != "Ann" {
		t.Errorf("nama_karyawan = %v, want Ann", fields["nama_karyawan"])
	}
	if fields["status"] != "pending" {
		t.Errorf("status = %v, want pending", fields["status"])
	}

	start, ok := fields["tanggal_mulai"].(*time.Time)
	if !ok || start == nil {
		t.Fatalf("tanggal_mulai = %v, want parsed date", fields["tanggal_mulai"])
	}
	if start.Format("2006-01-02") != "2024-01-05" {
		t.Errorf("tanggal_mulai = %s, want 2024-01-05", start.Format("2006-01-02"))
	}
}

func TestParseDateDefensive(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		wantNil bool
		wantDay string
	}{
		{name: "calendar day", raw: "2024-01-05", wantDay: "2024-01-05"},
		{name: "datetime", raw: "2024-01-05 08:30:00", wantDay: "2024-01-05"},
		{name: "rfc3339", raw: "2024-01-05T08:30:00Z", wantDay: "2024-01-05"},
		{name: "indonesian format", raw: "05/01/2024", wantDay: "2024-01-05"},
		{name: "native time", raw: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), wantDay: "2024-01-05"},
		{name: "empty string", raw: "", wantNil: true},
		{name: "garbage", raw: "tomorrow-ish", wantNil: true},
		{name: "wrong type", raw: 42, wantNil: true},
		{name: "nil", raw: nil, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDate(tt.raw)
			if tt.wantNil {
				if got != nil {
					t.Errorf("parseDate(%v) = %v, want nil", tt.raw, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseDate(%v) = nil, want %s", tt.raw, tt.wantDay)
			}
			if got.Format("2006-01-02") != tt.wantDay {
				t.Errorf("parseDate(%v) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.wantDay)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	if _, ok := ParseKind("permit"); !ok {
		t.Error("ParseKind(permit) should resolve")
	}
	if _, ok := ParseKind("Employee"); !ok {
		t.Error("ParseKind should be case-insensitive")
	}
	if _, ok := ParseKind("invoice"); ok {
		t.Error("ParseKind(invoice) should not resolve")
	}
}
