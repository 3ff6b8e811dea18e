package sync

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestListenerReentersSessionAfterError(t *testing.T) {
	l := &Listener{topicName: "changes", subName: "changes-sub", retryWait: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	sessions := make(chan int, 8)
	calls := 0

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.runSessions(ctx, func(ctx context.Context) error {
			calls++
			sessions <- calls
			if calls < 3 {
				return errors.New("transient pubsub failure")
			}
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	// Two failed sessions must each be followed by a fresh one.
	for want := 1; want <= 3; want++ {
		select {
		case got := <-sessions:
			if got != want {
				t.Fatalf("session order = %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("listener did not re-enter session %d after an error", want)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop on context cancellation")
	}
	if calls != 3 {
		t.Errorf("sessions after cancellation = %d, want 3", calls)
	}
}

func TestListenerRetriesQuietSessionEnd(t *testing.T) {
	l := &Listener{topicName: "changes", subName: "changes-sub", retryWait: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := make(chan struct{}, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.runSessions(ctx, func(ctx context.Context) error {
			select {
			case sessions <- struct{}{}:
			default:
			}
			// Receive returning nil without cancellation still means the
			// session ended and must be re-entered.
			return nil
		})
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-sessions:
		case <-time.After(time.Second):
			t.Fatal("listener did not re-enter after a session ended without error")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop on context cancellation")
	}
}
