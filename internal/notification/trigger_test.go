package notification

import (
	"context"
	"testing"

	"presensi-backend/internal/notification/domain"
	"presensi-backend/internal/sync"
)

func TestNotificationForPermitEvents(t *testing.T) {
	trigger := NewTrigger(nil, nil, nil, "high")

	tests := []struct {
		name     string
		event    sync.Event
		wantNil  bool
		wantType string
	}{
		{
			name: "new permit notifies the requester",
			event: sync.Event{
				Kind: sync.KindPermit,
				Op:   sync.OpCreated,
				Key:  "p1",
				Record: sync.RemoteRecord{ID: "p1", Fields: map[string]interface{}{
					"uid": "u1", "permitType": "sick", "status": "pending",
				}},
			},
			wantType: "permit_created",
		},
		{
			name: "status change notifies the requester",
			event: sync.Event{
				Kind:    sync.KindPermit,
				Op:      sync.OpUpdated,
				Key:     "p1",
				Changes: sync.ChangeSet{"status": {From: "pending", To: "approved"}},
				Record: sync.RemoteRecord{ID: "p1", Fields: map[string]interface{}{
					"uid": "u1", "permitType": "sick", "status": "approved",
				}},
			},
			wantType: "permit_updated",
		},
		{
			name: "update without status change stays silent",
			event: sync.Event{
				Kind:    sync.KindPermit,
				Op:      sync.OpUpdated,
				Key:     "p1",
				Changes: sync.ChangeSet{"keterangan": {From: "a", To: "b"}},
				Record: sync.RemoteRecord{ID: "p1", Fields: map[string]interface{}{
					"uid": "u1", "permitType": "sick", "status": "pending",
				}},
			},
			wantNil: true,
		},
		{
			name: "record without uid stays silent",
			event: sync.Event{
				Kind:   sync.KindPermit,
				Op:     sync.OpCreated,
				Key:    "p2",
				Record: sync.RemoteRecord{ID: "p2", Fields: map[string]interface{}{"permitType": "sick"}},
			},
			wantNil: true,
		},
		{
			name: "late presence notifies the employee",
			event: sync.Event{
				Kind: sync.KindPresence,
				Op:   sync.OpCreated,
				Key:  "pr1",
				Record: sync.RemoteRecord{ID: "pr1", Fields: map[string]interface{}{
					"uid": "u1", "status": "late",
				}},
			},
			wantType: "presence_late",
		},
		{
			name: "on-time presence stays silent",
			event: sync.Event{
				Kind: sync.KindPresence,
				Op:   sync.OpCreated,
				Key:  "pr2",
				Record: sync.RemoteRecord{ID: "pr2", Fields: map[string]interface{}{
					"uid": "u1", "status": "present",
				}},
			},
			wantNil: true,
		},
		{
			name: "employee events stay silent",
			event: sync.Event{
				Kind:   sync.KindEmployee,
				Op:     sync.OpCreated,
				Key:    "u1",
				Record: sync.RemoteRecord{Fields: map[string]interface{}{"uid": "u1"}},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := trigger.notificationFor(tt.event)
			if tt.wantNil {
				if n != nil {
					t.Errorf("notificationFor() = %+v, want nil", n)
				}
				return
			}
			if n == nil {
				t.Fatal("notificationFor() = nil, want a notification")
			}
			if n.Type != tt.wantType {
				t.Errorf("type = %s, want %s", n.Type, tt.wantType)
			}
			if n.RecipientID != "u1" || n.RecipientType != "employee" {
				t.Errorf("recipient = %s/%s, want employee/u1", n.RecipientType, n.RecipientID)
			}
			if n.Status != domain.StatusPending {
				t.Errorf("status = %s, want pending", n.Status)
			}
		})
	}
}

func TestTriggerCreatesAndDispatches(t *testing.T) {
	resolver := newFakeResolver(map[string][]string{"u1": {"tok-1"}})
	gateway := newFakeGateway()
	repo := newFakeNotificationRepo()
	dispatcher := NewDispatcher(resolver, gateway, repo, 1, "high")
	trigger := NewTrigger(dispatcher, repo, nil, "high")

	trigger.handle(context.Background(), sync.Event{
		Kind: sync.KindPermit,
		Op:   sync.OpCreated,
		Key:  "p1",
		Record: sync.RemoteRecord{ID: "p1", Fields: map[string]interface{}{
			"uid": "u1", "permitType": "sick", "status": "pending",
		}},
	})

	if len(repo.stored) != 1 {
		t.Fatalf("stored notifications = %d, want 1", len(repo.stored))
	}
	for _, n := range repo.stored {
		if n.Status != domain.StatusSent {
			t.Errorf("status = %s, want sent after dispatch", n.Status)
		}
	}
	if gateway.attemptCount("tok-1") != 1 {
		t.Errorf("gateway attempts = %d, want 1", gateway.attemptCount("tok-1"))
	}
}
