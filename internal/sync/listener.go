package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// ChangeMessage is the wire form of one inbound change notification:
// a remote record plus the operation that produced it.
type ChangeMessage struct {
	Kind      string       `json:"kind"`
	Operation string       `json:"operation"` // create, update, delete
	Record    RemoteRecord `json:"record"`
}

// Listener consumes Source Store change notifications from Pub/Sub and
// routes each into the engine's single-record path, so remote edits land
// locally without waiting for the next polling pass.
type Listener struct {
	pubsubClient *pubsub.Client
	engine       *Engine
	topicName    string
	subName      string
	retryWait    time.Duration
}

// NewListener creates the change listener for one topic.
func NewListener(projectID, topicName string, engine *Engine, credentialsFile string) (*Listener, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Listener{
		pubsubClient: client,
		engine:       engine,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
		retryWait:    10 * time.Second,
	}, nil
}

// Start blocks receiving change messages until the context is cancelled. A
// failed session (subscription checks or Receive returning an error) is
// logged and re-entered after retryWait; only context cancellation stops the
// listener.
func (l *Listener) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting change listener with topic: %s, subscription: %s", l.topicName, l.subName)
	l.runSessions(ctx, l.listenOnce)
}

func (l *Listener) runSessions(ctx context.Context, session func(context.Context) error) {
	for {
		err := session(ctx)
		if ctx.Err() != nil {
			log.Println("[PubSub] Change listener stopped")
			return
		}
		if err != nil {
			log.Printf("[PubSub] Listener session failed (retrying in %s): %v", l.retryWait, err)
		}

		select {
		case <-time.After(l.retryWait):
		case <-ctx.Done():
			log.Println("[PubSub] Change listener stopped")
			return
		}
	}
}

// listenOnce runs one receive session: ensure the subscription exists, then
// block in Receive until it returns.
func (l *Listener) listenOnce(ctx context.Context) error {
	sub := l.pubsubClient.Subscription(l.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check subscription existence: %w", err)
	}

	if !exists {
		topic := l.pubsubClient.Topic(l.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check topic existence: %w", err)
		}
		if !topicExists {
			return fmt.Errorf("topic %s does not exist", l.topicName)
		}

		sub, err = l.pubsubClient.CreateSubscription(ctx, l.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		log.Printf("[PubSub] Created subscription: %s", l.subName)
	}

	log.Printf("[PubSub] Listening for change messages on subscription: %s", l.subName)
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		l.handleMessage(ctx, msg.Data)
		msg.Ack()
	})
}

// HandleChange applies one inbound change notification through the
// single-record reconciliation path. Shared by Pub/Sub and webhook entry
// points.
func (l *Listener) HandleChange(ctx context.Context, change ChangeMessage) (Report, error) {
	return l.engine.ApplyChange(ctx, change)
}

func (l *Listener) handleMessage(ctx context.Context, data []byte) {
	var change ChangeMessage
	if err := json.Unmarshal(data, &change); err != nil {
		log.Printf("[PubSub] Failed to unmarshal change message: %v", err)
		return
	}

	report, err := l.engine.ApplyChange(ctx, change)
	if err != nil {
		log.Printf("[PubSub] Failed to apply %s %s change: %v", change.Operation, change.Kind, err)
		return
	}
	log.Printf("[PubSub] Applied %s change: %s", change.Operation, report)
}

// ApplyChange routes one change message into the engine: deletes remove the
// local row by external key, everything else goes through ReconcileOne.
func (e *Engine) ApplyChange(ctx context.Context, change ChangeMessage) (Report, error) {
	kind, ok := ParseKind(change.Kind)
	if !ok {
		return Report{}, fmt.Errorf("unknown entity kind %q", change.Kind)
	}

	if change.Operation == "delete" {
		key, hasKey := MappingFor(kind).ExternalKey(change.Record)
		if !hasKey {
			return Report{Kind: kind, Skipped: 1}, nil
		}
		if err := e.Delete(ctx, kind, key); err != nil {
			return Report{Kind: kind}, err
		}
		return Report{Kind: kind}, nil
	}

	return e.ReconcileOne(ctx, kind, change.Record)
}
