package notification

import (
	"context"
	"log"
	"time"

	emprepo "presensi-backend/internal/employee/repository"
	"presensi-backend/internal/notification/domain"
	"presensi-backend/internal/notification/repository"
	"presensi-backend/pkg/firestore"
)

// RemoteTokenSource reads push tokens from the Source Store.
type RemoteTokenSource interface {
	TokensForOwner(ctx context.Context, uid string) ([]firestore.TokenRecord, error)
}

// TokenStore resolves delivery tokens per recipient. The Source Store is the
// authority: TokensFor refreshes the local mirror from it on every call and
// only falls back to the mirror alone when the remote is unreachable.
type TokenStore struct {
	source    RemoteTokenSource
	tokens    repository.DeviceTokenRepository
	employees emprepo.EmployeeRepository
	retention time.Duration
}

// NewTokenStore creates a token store with the given retention window for
// cleanup.
func NewTokenStore(source RemoteTokenSource, tokens repository.DeviceTokenRepository, employees emprepo.EmployeeRepository, retention time.Duration) *TokenStore {
	return &TokenStore{
		source:    source,
		tokens:    tokens,
		employees: employees,
		retention: retention,
	}
}

// TokensFor returns every valid delivery token for one owner. All non-stale
// tokens are fan-out targets (multi-device).
func (s *TokenStore) TokensFor(ctx context.Context, ownerUID string) ([]domain.DeviceToken, error) {
	remote, err := s.source.TokensForOwner(ctx, ownerUID)
	if err != nil {
		log.Printf("[TokenStore] Source Store unreachable for %s, using local mirror: %v", ownerUID, err)
	} else {
		now := time.Now()
		for _, rec := range remote {
			if saveErr := s.tokens.SaveToken(ownerUID, rec.Token, now); saveErr != nil {
				log.Printf("[TokenStore] Failed to mirror token for %s: %v", ownerUID, saveErr)
			}
		}
	}

	return s.tokens.GetActiveTokens(ownerUID)
}

// SyncLocalToken copies the owner's latest Source Store token into the
// employee mirror row when it differs. Stale local values are overwritten,
// never merged.
func (s *TokenStore) SyncLocalToken(ctx context.Context, ownerUID string) (bool, error) {
	remote, err := s.source.TokensForOwner(ctx, ownerUID)
	if err != nil {
		return false, err
	}
	if len(remote) == 0 {
		return false, nil
	}
	latest := remote[0].Token

	employee, err := s.employees.FindByUID(ownerUID)
	if err != nil {
		return false, err
	}
	if employee == nil || employee.FCMToken == latest {
		return false, nil
	}

	if err := s.employees.UpdateFCMToken(ownerUID, latest); err != nil {
		return false, err
	}
	return true, nil
}

// MarkStale records gateway feedback that a token is no longer registered.
func (s *TokenStore) MarkStale(token string) error {
	return s.tokens.MarkStale(token)
}

// Cleanup removes tokens not observed in the Source Store within the
// retention window.
func (s *TokenStore) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.tokens.DeleteUnseenBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Printf("[TokenStore] Removed %d tokens unseen since %s", removed, cutoff.Format(time.RFC3339))
	}
	return removed, nil
}
