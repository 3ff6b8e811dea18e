package sync

import (
	"context"
	"fmt"
	"log"
	gosync "sync"
)

// LocalStore is the engine's view of the relational mirror. Snapshots are
// keyed by local column name so they can be diffed against mapped remote
// records.
type LocalStore interface {
	FindByExternalKey(ctx context.Context, kind EntityKind, key string) (map[string]interface{}, bool, error)
	Create(ctx context.Context, kind EntityKind, key string, fields map[string]interface{}) error
	Update(ctx context.Context, kind EntityKind, key string, fields map[string]interface{}) error
	Delete(ctx context.Context, kind EntityKind, key string) error
}

// SourceStore is the engine's read-only view of the remote document store.
type SourceStore interface {
	ListEntities(ctx context.Context, kind EntityKind, pageSize int) ([]RemoteRecord, error)
	GetEntity(ctx context.Context, kind EntityKind, key string) (*RemoteRecord, error)
}

// Report tallies one reconciliation pass. Skipped counts records whose
// external key could not be resolved; they are accounted, never dropped.
type Report struct {
	Kind      EntityKind `json:"kind"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Unchanged int        `json:"unchanged"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	DryRun    bool       `json:"dry_run,omitempty"`
}

func (r Report) String() string {
	return fmt.Sprintf("%s: created=%d updated=%d unchanged=%d skipped=%d failed=%d",
		r.Kind, r.Created, r.Updated, r.Unchanged, r.Skipped, r.Failed)
}

// Engine drives the detect→map→upsert cycle for every entity kind. The bulk
// pass and the single-record event path share the same mapping and diff
// logic; neither duplicates it.
type Engine struct {
	local  LocalStore
	source SourceStore
	events chan Event

	mu    gosync.Mutex
	locks map[string]*keyLock
}

// keyLock is one entry in the per-key lock table. refs counts holders and
// waiters so the entry can be evicted once the last one releases.
type keyLock struct {
	mu   gosync.Mutex
	refs int
}

// NewEngine creates a reconciliation engine over the two stores.
func NewEngine(local LocalStore, source SourceStore) *Engine {
	return &Engine{
		local:  local,
		source: source,
		events: make(chan Event, 256),
		locks:  make(map[string]*keyLock),
	}
}

// lockKey serializes writes per external key so a scheduled pass and an
// event-driven update for the same key cannot race. It returns the release
// func; the table entry is dropped when the last holder releases, so the
// table stays bounded by the number of in-flight keys.
func (e *Engine) lockKey(kind EntityKind, key string) func() {
	id := string(kind) + "/" + key

	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &keyLock{}
		e.locks[id] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
		e.mu.Unlock()
	}
}

// Reconcile runs a full-batch pass for one kind over the given remote
// records. Running it twice with identical input yields zero writes on the
// second run.
func (e *Engine) Reconcile(ctx context.Context, kind EntityKind, records []RemoteRecord) (Report, error) {
	return e.reconcile(ctx, kind, records, false)
}

// DryRun computes the same report as Reconcile without touching the Local
// Store or emitting events.
func (e *Engine) DryRun(ctx context.Context, kind EntityKind, records []RemoteRecord) (Report, error) {
	return e.reconcile(ctx, kind, records, true)
}

func (e *Engine) reconcile(ctx context.Context, kind EntityKind, records []RemoteRecord, dry bool) (Report, error) {
	report := Report{Kind: kind, DryRun: dry}
	mapping := MappingFor(kind)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := e.applyRecord(ctx, mapping, rec, dry)
		if err != nil {
			report.Failed++
			log.Printf("[Sync] %s record %q: %v", kind, rec.ID, err)
			continue
		}
		switch outcome {
		case outcomeCreated:
			report.Created++
		case outcomeUpdated:
			report.Updated++
		case outcomeUnchanged:
			report.Unchanged++
		case outcomeSkipped:
			report.Skipped++
		}
	}

	log.Printf("[Sync] Reconciled %s", report)
	return report, nil
}

// ReconcileOne is the single-record path used by change events and the
// admin "sync one entity" trigger.
func (e *Engine) ReconcileOne(ctx context.Context, kind EntityKind, rec RemoteRecord) (Report, error) {
	return e.Reconcile(ctx, kind, []RemoteRecord{rec})
}

// SyncKey fetches one entity from the Source Store by external key and
// reconciles it. A missing remote document is reported as skipped.
func (e *Engine) SyncKey(ctx context.Context, kind EntityKind, key string) (Report, error) {
	rec, err := e.source.GetEntity(ctx, kind, key)
	if err != nil {
		return Report{Kind: kind}, fmt.Errorf("failed to fetch %s/%s: %w", kind, key, err)
	}
	if rec == nil {
		return Report{Kind: kind, Skipped: 1}, nil
	}
	return e.ReconcileOne(ctx, kind, *rec)
}

// Delete removes the local mirror row for an external key (webhook delete
// operations).
func (e *Engine) Delete(ctx context.Context, kind EntityKind, key string) error {
	unlock := e.lockKey(kind, key)
	defer unlock()

	if err := e.local.Delete(ctx, kind, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", kind, key, err)
	}
	e.emit(Event{Kind: kind, Op: OpDeleted, Key: key})
	return nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
	outcomeUnchanged
)

func (e *Engine) applyRecord(ctx context.Context, mapping Mapping, rec RemoteRecord, dry bool) (outcome, error) {
	key, ok := mapping.ExternalKey(rec)
	if !ok {
		log.Printf("[Sync] Skipping %s record %q: missing external key", mapping.Kind, rec.ID)
		return outcomeSkipped, nil
	}

	unlock := e.lockKey(mapping.Kind, key)
	defer unlock()

	local, found, err := e.local.FindByExternalKey(ctx, mapping.Kind, key)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("lookup failed: %w", err)
	}

	if !found {
		if dry {
			return outcomeCreated, nil
		}
		fields := mapping.MapFields(rec)
		if err := e.local.Create(ctx, mapping.Kind, key, fields); err != nil {
			return outcomeSkipped, fmt.Errorf("create failed: %w", err)
		}
		e.emit(Event{Kind: mapping.Kind, Op: OpCreated, Key: key, Record: rec})
		return outcomeCreated, nil
	}

	changes := Diff(local, rec, mapping.Fields)
	if len(changes) == 0 {
		return outcomeUnchanged, nil
	}
	if dry {
		return outcomeUpdated, nil
	}

	fields := make(map[string]interface{}, len(changes))
	for column, change := range changes {
		fields[column] = change.To
	}
	if err := e.local.Update(ctx, mapping.Kind, key, fields); err != nil {
		return outcomeSkipped, fmt.Errorf("update failed: %w", err)
	}
	e.emit(Event{Kind: mapping.Kind, Op: OpUpdated, Key: key, Changes: changes, Record: rec})
	return outcomeUpdated, nil
}
