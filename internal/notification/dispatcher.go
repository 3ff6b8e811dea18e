package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"presensi-backend/internal/notification/domain"
	"presensi-backend/internal/notification/repository"
	"presensi-backend/pkg/fcm"

	"github.com/cenkalti/backoff/v5"
)

// Gateway is the Push Gateway adapter: one token, one message, one classified
// outcome.
type Gateway interface {
	SendMessage(ctx context.Context, token string, msg fcm.Message) fcm.SendResult
}

// TokenResolver is the dispatcher's view of the token store.
type TokenResolver interface {
	TokensFor(ctx context.Context, ownerUID string) ([]domain.DeviceToken, error)
	MarkStale(token string) error
}

// Recipient identifies one delivery target.
type Recipient struct {
	Type string `json:"recipient_type"`
	ID   string `json:"recipient_id"`
}

// DeliveryResult is the outcome for one token.
type DeliveryResult struct {
	Token   string
	Success bool
	Err     error
}

// RecipientResult is the outcome for one recipient across all their devices.
type RecipientResult struct {
	Recipient Recipient `json:"recipient"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// BatchSummary aggregates a fan-out so callers can tell full success,
// partial success and full failure apart.
type BatchSummary struct {
	SuccessCount int               `json:"success_count"`
	FailCount    int               `json:"fail_count"`
	Results      []RecipientResult `json:"results"`
}

// Options carries per-send notification attributes.
type Options struct {
	Type      string
	Priority  string
	ImageURL  string
	ActionURL string
}

var errTokenUnregistered = errors.New("token not registered")
var errNoTokens = errors.New("recipient has no delivery tokens")

// Dispatcher builds push payloads, resolves recipient tokens, calls the Push
// Gateway and records delivery outcomes. Gateway-reported unregistered tokens
// are marked stale immediately; transient failures are retried up to the
// configured attempt limit and never invalidate a token.
type Dispatcher struct {
	tokens          TokenResolver
	gateway         Gateway
	notifications   repository.NotificationRepository
	retryAttempts   int
	defaultPriority string
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(tokens TokenResolver, gateway Gateway, notifications repository.NotificationRepository, retryAttempts int, defaultPriority string) *Dispatcher {
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	return &Dispatcher{
		tokens:          tokens,
		gateway:         gateway,
		notifications:   notifications,
		retryAttempts:   retryAttempts,
		defaultPriority: defaultPriority,
	}
}

// Send delivers one notification to every device of one recipient. A
// recipient with zero tokens fails closed without contacting the gateway;
// that case is logged distinctly from gateway failures. The send succeeds
// when at least one token accepts.
func (d *Dispatcher) Send(ctx context.Context, recipient Recipient, title, body string, data map[string]string, opts Options) bool {
	_, err := d.send(ctx, recipient, title, body, data, opts)
	return err == nil
}

func (d *Dispatcher) send(ctx context.Context, recipient Recipient, title, body string, data map[string]string, opts Options) ([]DeliveryResult, error) {
	tokens, err := d.tokens.TokensFor(ctx, recipient.ID)
	if err != nil {
		log.Printf("[Dispatcher] Token lookup failed for %s/%s: %v", recipient.Type, recipient.ID, err)
		return nil, fmt.Errorf("token lookup failed: %w", err)
	}
	if len(tokens) == 0 {
		log.Printf("[Dispatcher] No tokens registered for %s/%s, failing closed", recipient.Type, recipient.ID)
		return nil, errNoTokens
	}

	msg := fcm.Message{
		Title:       title,
		Body:        body,
		Data:        data,
		ImageURL:    opts.ImageURL,
		ClickAction: opts.ActionURL,
		Priority:    opts.Priority,
	}
	if msg.Priority == "" {
		msg.Priority = d.defaultPriority
	}

	results := make([]DeliveryResult, 0, len(tokens))
	delivered := 0
	for _, t := range tokens {
		res := d.deliver(ctx, t.Token, msg)
		results = append(results, res)

		switch {
		case res.Success:
			delivered++
			log.Printf("[Dispatcher] Delivered to %s/%s token %s", recipient.Type, recipient.ID, tokenPrefix(t.Token))
		case errors.Is(res.Err, errTokenUnregistered):
			log.Printf("[Dispatcher] Token %s for %s/%s is unregistered, marking stale", tokenPrefix(t.Token), recipient.Type, recipient.ID)
			if markErr := d.tokens.MarkStale(t.Token); markErr != nil {
				log.Printf("[Dispatcher] Failed to mark token %s stale: %v", tokenPrefix(t.Token), markErr)
			}
		default:
			log.Printf("[Dispatcher] Delivery to %s/%s token %s failed: %v", recipient.Type, recipient.ID, tokenPrefix(t.Token), res.Err)
		}
	}

	if delivered == 0 {
		return results, fmt.Errorf("no token accepted delivery for %s/%s", recipient.Type, recipient.ID)
	}
	return results, nil
}

// deliver attempts one token with bounded retries. Unregistered-token
// rejections are permanent and never retried.
func (d *Dispatcher) deliver(ctx context.Context, token string, msg fcm.Message) DeliveryResult {
	op := func() (bool, error) {
		res := d.gateway.SendMessage(ctx, token, msg)
		if res.Success {
			return true, nil
		}
		if res.ErrorCode == fcm.ErrorCodeInvalidToken {
			return false, backoff.Permanent(fmt.Errorf("%w: %v", errTokenUnregistered, res.Err))
		}
		if res.Err != nil {
			return false, res.Err
		}
		return false, errors.New("gateway rejected message")
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(d.retryAttempts)))
	if err != nil {
		return DeliveryResult{Token: token, Success: false, Err: err}
	}
	return DeliveryResult{Token: token, Success: true}
}

// SendToAll fans one notification out to many recipients in parallel. One
// recipient's failure never aborts the rest; the per-recipient results come
// back in input order and the summary counts are order-independent.
func (d *Dispatcher) SendToAll(ctx context.Context, recipients []Recipient, title, body string, data map[string]string, opts Options) BatchSummary {
	results := make([]RecipientResult, len(recipients))

	var wg gosync.WaitGroup
	for i, recipient := range recipients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.send(ctx, recipient, title, body, data, opts)
			results[i] = RecipientResult{Recipient: recipient, Success: err == nil}
			if err != nil {
				results[i].Error = err.Error()
			}
		}()
	}
	wg.Wait()

	summary := BatchSummary{Results: results}
	for _, r := range results {
		if r.Success {
			summary.SuccessCount++
		} else {
			summary.FailCount++
		}
	}
	log.Printf("[Dispatcher] Fan-out complete: %d success, %d failures", summary.SuccessCount, summary.FailCount)
	return summary
}

// Dispatch delivers a stored notification and records the verdict on the
// row: sent when at least one recipient succeeded, failed otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.Notification) error {
	recipient := Recipient{Type: n.RecipientType, ID: n.RecipientID}
	opts := Options{Type: n.Type, Priority: n.Priority}

	results, sendErr := d.send(ctx, recipient, n.Title, n.Body, n.Data, opts)

	sent, failed := 0, 0
	for _, r := range results {
		if r.Success {
			sent++
		} else {
			failed++
		}
	}

	status := domain.StatusSent
	var sentAt *time.Time
	if sendErr != nil {
		status = domain.StatusFailed
	} else {
		now := time.Now()
		sentAt = &now
	}
	if err := d.notifications.RecordOutcome(n.ID, status, sent, failed, sentAt); err != nil {
		return fmt.Errorf("failed to record outcome for notification %s: %w", n.ID, err)
	}
	return sendErr
}

// Resend re-enters a notification into pending and dispatches it again.
func (d *Dispatcher) Resend(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := d.notifications.FindByID(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("notification %s not found", id)
	}

	if err := d.notifications.MarkPending(id); err != nil {
		return nil, err
	}
	if err := d.Dispatch(ctx, n); err != nil {
		log.Printf("[Dispatcher] Resend of %s failed: %v", id, err)
	}
	return d.notifications.FindByID(id)
}

// tokenPrefix truncates a token for logs so full values never leak.
func tokenPrefix(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
