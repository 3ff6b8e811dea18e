package notification

import (
	"context"
	"fmt"
	"log"

	"presensi-backend/internal/notification/domain"
	"presensi-backend/internal/notification/repository"
	"presensi-backend/internal/sync"
)

// Trigger subscribes to reconciliation events and turns the ones that need a
// user-visible alert into notifications. It keeps the write path decoupled
// from delivery: the engine only publishes, the trigger owns the side effect.
type Trigger struct {
	dispatcher    *Dispatcher
	notifications repository.NotificationRepository
	events        <-chan sync.Event
	priority      string
}

// NewTrigger wires the event stream to the dispatcher.
func NewTrigger(dispatcher *Dispatcher, notifications repository.NotificationRepository, events <-chan sync.Event, priority string) *Trigger {
	return &Trigger{
		dispatcher:    dispatcher,
		notifications: notifications,
		events:        events,
		priority:      priority,
	}
}

// Start consumes events until the context is cancelled. Dispatch is
// asynchronous relative to the triggering write; a failed delivery is
// recorded on the notification row, never propagated back to the engine.
func (t *Trigger) Start(ctx context.Context) {
	log.Println("[Trigger] Notification trigger started")
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Println("[Trigger] Notification trigger stopped")
				return
			case ev := <-t.events:
				t.handle(ctx, ev)
			}
		}
	}()
}

func (t *Trigger) handle(ctx context.Context, ev sync.Event) {
	n := t.notificationFor(ev)
	if n == nil {
		return
	}

	if err := t.notifications.Create(n); err != nil {
		log.Printf("[Trigger] Failed to create notification for %s %s/%s: %v", ev.Op, ev.Kind, ev.Key, err)
		return
	}
	if err := t.dispatcher.Dispatch(ctx, n); err != nil {
		log.Printf("[Trigger] Dispatch for %s %s/%s failed: %v", ev.Op, ev.Kind, ev.Key, err)
	}
}

// notificationFor decides which events warrant an alert. Permit status
// changes and new presence anomalies notify the owning employee; everything
// else stays silent.
func (t *Trigger) notificationFor(ev sync.Event) *domain.Notification {
	uid, _ := ev.Record.Fields["uid"].(string)
	if uid == "" {
		return nil
	}

	switch ev.Kind {
	case sync.KindPermit:
		if ev.Op == sync.OpUpdated {
			if _, changed := ev.Changes["status"]; !changed {
				return nil
			}
		}

		status, _ := ev.Record.Fields["status"].(string)
		permitType, _ := ev.Record.Fields["permitType"].(string)

		title := "Pengajuan izin diterima"
		body := fmt.Sprintf("Pengajuan %s kamu sedang diproses", permitType)
		if ev.Op == sync.OpUpdated {
			title = "Status izin diperbarui"
			body = fmt.Sprintf("Pengajuan %s kamu sekarang %s", permitType, status)
		}

		return &domain.Notification{
			RecipientType: "employee",
			RecipientID:   uid,
			Title:         title,
			Body:          body,
			Type:          "permit_" + string(ev.Op),
			Priority:      t.priority,
			Status:        domain.StatusPending,
			Data: map[string]string{
				"kind":   string(ev.Kind),
				"key":    ev.Key,
				"status": status,
			},
		}
	case sync.KindPresence:
		status, _ := ev.Record.Fields["status"].(string)
		if ev.Op != sync.OpCreated || status != "late" {
			return nil
		}
		return &domain.Notification{
			RecipientType: "employee",
			RecipientID:   uid,
			Title:         "Kehadiran tercatat terlambat",
			Body:          "Presensi hari ini tercatat terlambat, hubungi admin bila tidak sesuai",
			Type:          "presence_late",
			Priority:      t.priority,
			Status:        domain.StatusPending,
			Data: map[string]string{
				"kind": string(ev.Kind),
				"key":  ev.Key,
			},
		}
	}
	return nil
}
