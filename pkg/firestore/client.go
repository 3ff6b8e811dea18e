package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/cenkalti/backoff/v5"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Document is one Source Store record: its document ID plus raw field values.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// TokenRecord is a push token as stored in the Source Store.
type TokenRecord struct {
	Token     string
	OwnerUID  string
	UpdatedAt time.Time
}

// Client is the read-only Source Store adapter. Every call carries a bounded
// timeout and a bounded retry count so a flaky remote cannot hang the sync loop.
type Client struct {
	client        *fs.Client
	retryAttempts int
	retryTimeout  time.Duration
}

// NewClient connects to the Source Store project.
func NewClient(ctx context.Context, projectID, credentialsFile string, retryAttempts int, retryTimeout time.Duration) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_PROJECT_ID is not configured")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := fs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	if retryTimeout <= 0 {
		retryTimeout = 15 * time.Second
	}

	log.Println("[Firestore] Client initialized successfully")
	return &Client{
		client:        client,
		retryAttempts: retryAttempts,
		retryTimeout:  retryTimeout,
	}, nil
}

// ListDocuments returns up to pageSize documents from a collection
// (all documents when pageSize <= 0).
func (c *Client) ListDocuments(ctx context.Context, collection string, pageSize int) ([]Document, error) {
	op := func() ([]Document, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.retryTimeout)
		defer cancel()

		query := c.client.Collection(collection).Query
		if pageSize > 0 {
			query = query.Limit(pageSize)
		}

		var docs []Document
		iter := query.Documents(callCtx)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, err
			}
			docs = append(docs, Document{ID: snap.Ref.ID, Fields: snap.Data()})
		}
		return docs, nil
	}

	docs, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.retryAttempts)))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", collection, err)
	}
	return docs, nil
}

// GetDocument fetches a single document by ID. A missing document returns
// (nil, nil) so callers can tell absence apart from a transport failure.
func (c *Client) GetDocument(ctx context.Context, collection, id string) (*Document, error) {
	op := func() (*Document, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.retryTimeout)
		defer cancel()

		snap, err := c.client.Collection(collection).Doc(id).Get(callCtx)
		if status.Code(err) == codes.NotFound {
			return nil, backoff.Permanent(errNotFound)
		}
		if err != nil {
			return nil, err
		}
		return &Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
	}

	doc, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.retryAttempts)))
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

var errNotFound = errors.New("document not found")

// TokensForOwner returns all device tokens registered for one owner UID,
// newest first.
func (c *Client) TokensForOwner(ctx context.Context, uid string) ([]TokenRecord, error) {
	op := func() ([]TokenRecord, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.retryTimeout)
		defer cancel()

		var tokens []TokenRecord
		iter := c.client.Collection("device_tokens").
			Where("uid", "==", uid).
			OrderBy("updatedAt", fs.Desc).
			Documents(callCtx)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, err
			}

			data := snap.Data()
			rec := TokenRecord{OwnerUID: uid}
			if v, ok := data["token"].(string); ok {
				rec.Token = v
			}
			if v, ok := data["updatedAt"].(time.Time); ok {
				rec.UpdatedAt = v
			}
			if rec.Token != "" {
				tokens = append(tokens, rec)
			}
		}
		return tokens, nil
	}

	tokens, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.retryAttempts)))
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens for %s: %w", uid, err)
	}
	return tokens, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
