package sync

import "time"

// Change records one field moving from a local value to a remote one.
type Change struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// ChangeSet maps local column names to their pending changes. It is ephemeral:
// produced by Diff, consumed immediately by the engine, never persisted.
type ChangeSet map[string]Change

// Diff computes the field-level difference between a local row snapshot
// (keyed by local column) and a remote record (keyed by remote field), over
// the tracked fields of one mapping table. Date fields are normalized to a
// calendar-day string before comparison so differing timestamp
// representations of the same day do not register as changes.
//
// An empty ChangeSet means the row is in sync; that is the common case and
// is distinct from "no remote record found", which callers handle before
// diffing. Diff is pure: it never touches either store.
func Diff(local map[string]interface{}, rec RemoteRecord, fields []MappedField) ChangeSet {
	changes := make(ChangeSet)
	for _, f := range fields {
		raw, ok := rec.Fields[f.Remote]
		if !ok {
			continue
		}

		if f.IsDate {
			localDay := canonicalDate(local[f.Local])
			remoteDay := canonicalDate(raw)
			if localDay != remoteDay {
				changes[f.Local] = Change{From: local[f.Local], To: parseDate(raw)}
			}
			continue
		}

		remoteVal := stringValue(raw)
		localVal := stringValue(local[f.Local])
		if localVal != remoteVal {
			changes[f.Local] = Change{From: local[f.Local], To: remoteVal}
		}
	}
	return changes
}

// canonicalDate reduces any supported date representation to "YYYY-MM-DD",
// or "" when the value is absent or unparsable.
func canonicalDate(raw interface{}) string {
	var t *time.Time
	switch v := raw.(type) {
	case time.Time:
		t = &v
	case *time.Time:
		t = v
	default:
		t = parseDate(raw)
	}
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
