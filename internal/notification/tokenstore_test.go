package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	empdomain "presensi-backend/internal/employee/domain"
	"presensi-backend/internal/notification/domain"
	"presensi-backend/pkg/firestore"
)

// fakeTokenSource serves canned Source Store tokens, optionally failing.
type fakeTokenSource struct {
	tokens map[string][]firestore.TokenRecord
	err    error
}

func (s *fakeTokenSource) TokensForOwner(ctx context.Context, uid string) ([]firestore.TokenRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tokens[uid], nil
}

// fakeTokenRepo is an in-memory DeviceTokenRepository.
type fakeTokenRepo struct {
	rows map[string]*domain.DeviceToken // keyed by token value
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{rows: make(map[string]*domain.DeviceToken)}
}

func (r *fakeTokenRepo) SaveToken(ownerUID, token string, seenAt time.Time) error {
	if row, ok := r.rows[token]; ok {
		row.OwnerUID = ownerUID
		row.Stale = false
		row.LastSeenAt = seenAt
		return nil
	}
	r.rows[token] = &domain.DeviceToken{OwnerUID: ownerUID, Token: token, LastSeenAt: seenAt}
	return nil
}

func (r *fakeTokenRepo) GetActiveTokens(ownerUID string) ([]domain.DeviceToken, error) {
	var out []domain.DeviceToken
	for _, row := range r.rows {
		if row.OwnerUID == ownerUID && !row.Stale {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) MarkStale(token string) error {
	if row, ok := r.rows[token]; ok {
		row.Stale = true
	}
	return nil
}

func (r *fakeTokenRepo) DeleteUnseenBefore(cutoff time.Time) (int64, error) {
	var removed int64
	for token, row := range r.rows {
		if row.LastSeenAt.Before(cutoff) {
			delete(r.rows, token)
			removed++
		}
	}
	return removed, nil
}

// fakeEmployeeRepo covers only what the token store touches.
type fakeEmployeeRepo struct {
	employees map[string]*empdomain.Employee
}

func (r *fakeEmployeeRepo) FindByUID(uid string) (*empdomain.Employee, error) {
	return r.employees[uid], nil
}

func (r *fakeEmployeeRepo) Create(e *empdomain.Employee) error { return nil }

func (r *fakeEmployeeRepo) UpdateFields(uid string, fields map[string]interface{}) error { return nil }

func (r *fakeEmployeeRepo) DeleteByUID(uid string) error { return nil }

func (r *fakeEmployeeRepo) UpdateFCMToken(uid, token string) error {
	if e, ok := r.employees[uid]; ok {
		e.FCMToken = token
	}
	return nil
}

func TestTokensForRefreshesMirror(t *testing.T) {
	source := &fakeTokenSource{tokens: map[string][]firestore.TokenRecord{
		"u1": {{Token: "tok-a", OwnerUID: "u1"}, {Token: "tok-b", OwnerUID: "u1"}},
	}}
	repo := newFakeTokenRepo()
	store := NewTokenStore(source, repo, &fakeEmployeeRepo{}, time.Hour)

	tokens, err := store.TokensFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("TokensFor() error: %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("tokens = %d, want 2 (multi-device fan-out)", len(tokens))
	}
	if len(repo.rows) != 2 {
		t.Errorf("mirror rows = %d, want 2", len(repo.rows))
	}
}

func TestTokensForFallsBackToMirror(t *testing.T) {
	repo := newFakeTokenRepo()
	if err := repo.SaveToken("u1", "tok-cached", time.Now()); err != nil {
		t.Fatal(err)
	}
	source := &fakeTokenSource{err: errors.New("unavailable")}
	store := NewTokenStore(source, repo, &fakeEmployeeRepo{}, time.Hour)

	tokens, err := store.TokensFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("TokensFor() error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Token != "tok-cached" {
		t.Errorf("tokens = %v, want the mirrored token", tokens)
	}
}

func TestRemoteObservationRevivesStaleToken(t *testing.T) {
	repo := newFakeTokenRepo()
	if err := repo.SaveToken("u1", "tok-a", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkStale("tok-a"); err != nil {
		t.Fatal(err)
	}

	source := &fakeTokenSource{tokens: map[string][]firestore.TokenRecord{
		"u1": {{Token: "tok-a", OwnerUID: "u1"}},
	}}
	store := NewTokenStore(source, repo, &fakeEmployeeRepo{}, time.Hour)

	tokens, err := store.TokensFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("TokensFor() error: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("re-registered token not revived: %v", tokens)
	}
}

func TestSyncLocalToken(t *testing.T) {
	tests := []struct {
		name        string
		remote      []firestore.TokenRecord
		current     string
		wantUpdated bool
		wantToken   string
	}{
		{
			name:        "differing token is overwritten",
			remote:      []firestore.TokenRecord{{Token: "tok-new"}},
			current:     "tok-old",
			wantUpdated: true,
			wantToken:   "tok-new",
		},
		{
			name:        "matching token is a no-op",
			remote:      []firestore.TokenRecord{{Token: "tok-same"}},
			current:     "tok-same",
			wantUpdated: false,
			wantToken:   "tok-same",
		},
		{
			name:        "no remote tokens is a no-op",
			remote:      nil,
			current:     "tok-old",
			wantUpdated: false,
			wantToken:   "tok-old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			employees := &fakeEmployeeRepo{employees: map[string]*empdomain.Employee{
				"u1": {UID: "u1", FCMToken: tt.current},
			}}
			source := &fakeTokenSource{tokens: map[string][]firestore.TokenRecord{"u1": tt.remote}}
			store := NewTokenStore(source, newFakeTokenRepo(), employees, time.Hour)

			updated, err := store.SyncLocalToken(context.Background(), "u1")
			if err != nil {
				t.Fatalf("SyncLocalToken() error: %v", err)
			}
			if updated != tt.wantUpdated {
				t.Errorf("updated = %v, want %v", updated, tt.wantUpdated)
			}
			if got := employees.employees["u1"].FCMToken; got != tt.wantToken {
				t.Errorf("mirror token = %q, want %q", got, tt.wantToken)
			}
		})
	}
}

func TestCleanupRemovesUnseenTokens(t *testing.T) {
	repo := newFakeTokenRepo()
	if err := repo.SaveToken("u1", "tok-old", time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveToken("u1", "tok-fresh", time.Now()); err != nil {
		t.Fatal(err)
	}

	store := NewTokenStore(&fakeTokenSource{}, repo, &fakeEmployeeRepo{}, 24*time.Hour)

	removed, err := store.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := repo.rows["tok-fresh"]; !ok {
		t.Error("fresh token was removed")
	}
}
