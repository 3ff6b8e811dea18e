package scheduler

import (
	"context"
	"log"
	gosync "sync"
	"time"

	"presensi-backend/internal/sync"

	"golang.org/x/sync/errgroup"
)

// Loop states reported through Status.
const (
	stateIdle     = "idle"
	stateChecking = "checking"
	stateApplying = "applying"
)

// Cache freshness values for Status.CacheStatus.
const (
	CacheEmpty = "empty"
	CacheFresh = "fresh"
	CacheStale = "stale"
)

// Status is the scheduler's externally visible state snapshot.
type Status struct {
	IsListening bool      `json:"is_listening"`
	State       string    `json:"state"`
	CacheStatus string    `json:"cache_status"`
	LastCheckAt time.Time `json:"last_check_at"`
}

// Health is the coarse healthCheck answer for external monitoring.
type Health struct {
	Status  string `json:"status"` // ok, degraded, down
	Message string `json:"message"`
}

// Scheduler runs the polling reconciliation loop: Idle → Checking →
// (Applying | Idle) → … with a fixed sleep interval. Transient errors are
// logged and retried on the next tick; the loop itself never terminates on
// them.
type Scheduler struct {
	engine   *sync.Engine
	source   sync.SourceStore
	interval time.Duration
	pageSize int

	// MaxIterations limits the loop for tests; 0 means run forever.
	MaxIterations int

	stopChan chan struct{}
	doneChan chan struct{}

	mu            gosync.Mutex
	listening     bool
	state         string
	lastCheckAt   time.Time
	lastSuccessAt time.Time
	lastErr       error
}

// NewScheduler creates a scheduler over the engine and Source Store.
func NewScheduler(engine *sync.Engine, source sync.SourceStore, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Scheduler{
		engine:   engine,
		source:   source,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		state:    stateIdle,
	}
}

// Start begins the polling loop in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.listening = true
	s.mu.Unlock()

	log.Printf("[Scheduler] Starting sync loop (interval: %s)", s.interval)

	go func() {
		defer close(s.doneChan)

		// Run immediately on start
		iterations := 0
		s.runIteration(ctx)
		iterations++

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			if s.MaxIterations > 0 && iterations >= s.MaxIterations {
				s.setListening(false)
				log.Printf("[Scheduler] Reached %d iterations, stopping", iterations)
				return
			}
			select {
			case <-ticker.C:
				s.runIteration(ctx)
				iterations++
			case <-s.stopChan:
				s.setListening(false)
				log.Println("[Scheduler] Sync loop stopped")
				return
			case <-ctx.Done():
				s.setListening(false)
				log.Println("[Scheduler] Context cancelled, sync loop stopped")
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for any in-flight iteration to
// finish, so no Local Store write is interrupted mid-flight.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.doneChan
}

// RunOnce performs one full reconciliation pass over every kind and returns
// the per-kind reports. It backs the admin "run full sync now" trigger and
// the loop itself. The pass moves through Checking while the snapshots are
// fetched and Applying while they are reconciled, then settles back to Idle.
func (s *Scheduler) RunOnce(ctx context.Context) ([]sync.Report, error) {
	s.setState(stateChecking)
	defer s.setState(stateIdle)

	snapshots, err := s.fetchSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	s.setState(stateApplying)
	return s.applySnapshots(ctx, snapshots)
}

// fetchSnapshots lists every kind's remote records. Kinds are independent,
// so the fetches run in parallel.
func (s *Scheduler) fetchSnapshots(ctx context.Context) (map[sync.EntityKind][]sync.RemoteRecord, error) {
	var mu gosync.Mutex
	snapshots := make(map[sync.EntityKind][]sync.RemoteRecord, len(sync.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range sync.Kinds {
		g.Go(func() error {
			records, err := s.source.ListEntities(gctx, kind, 0)
			if err != nil {
				return err
			}
			mu.Lock()
			snapshots[kind] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// applySnapshots reconciles the fetched snapshots, one parallel pass per
// kind, since kinds touch disjoint tables.
func (s *Scheduler) applySnapshots(ctx context.Context, snapshots map[sync.EntityKind][]sync.RemoteRecord) ([]sync.Report, error) {
	var (
		mu      gosync.Mutex
		reports []sync.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range sync.Kinds {
		records := snapshots[kind]
		g.Go(func() error {
			report, err := s.engine.Reconcile(gctx, kind, records)
			if err != nil {
				return err
			}
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}

// DryRun computes per-kind reports without writing to the Local Store.
func (s *Scheduler) DryRun(ctx context.Context) ([]sync.Report, error) {
	var reports []sync.Report
	for _, kind := range sync.Kinds {
		records, err := s.source.ListEntities(ctx, kind, 0)
		if err != nil {
			return reports, err
		}
		report, err := s.engine.DryRun(ctx, kind, records)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *Scheduler) runIteration(ctx context.Context) {
	s.mu.Lock()
	s.lastCheckAt = time.Now()
	s.mu.Unlock()

	_, err := s.RunOnce(ctx)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.lastSuccessAt = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("[Scheduler] Sync iteration failed (retrying in %s): %v", s.interval, err)
	}
}

func (s *Scheduler) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Scheduler) setListening(v bool) {
	s.mu.Lock()
	s.listening = v
	s.mu.Unlock()
}

// Status reports the loop's current state and snapshot freshness.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := CacheEmpty
	if !s.lastSuccessAt.IsZero() {
		if time.Since(s.lastSuccessAt) <= s.interval*2 {
			cache = CacheFresh
		} else {
			cache = CacheStale
		}
	}

	return Status{
		IsListening: s.listening,
		State:       s.state,
		CacheStatus: cache,
		LastCheckAt: s.lastCheckAt,
	}
}

// HealthCheck reduces Status to ok/degraded/down for monitoring.
func (s *Scheduler) HealthCheck() Health {
	status := s.Status()

	s.mu.Lock()
	lastErr := s.lastErr
	s.mu.Unlock()

	if !status.IsListening {
		return Health{Status: "down", Message: "sync loop is not running"}
	}
	if lastErr != nil {
		return Health{Status: "degraded", Message: lastErr.Error()}
	}
	if status.CacheStatus == CacheStale {
		return Health{Status: "degraded", Message: "last successful sync is stale"}
	}
	return Health{Status: "ok", Message: "sync loop healthy"}
}
