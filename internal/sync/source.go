package sync

import (
	"context"

	"presensi-backend/pkg/firestore"
)

// firestoreSource adapts the Firestore client to the engine's SourceStore
// view, resolving collection names through the mapping tables.
type firestoreSource struct {
	client *firestore.Client
}

// NewFirestoreSource wraps a Firestore client as a SourceStore.
func NewFirestoreSource(client *firestore.Client) SourceStore {
	return &firestoreSource{client: client}
}

func (s *firestoreSource) ListEntities(ctx context.Context, kind EntityKind, pageSize int) ([]RemoteRecord, error) {
	docs, err := s.client.ListDocuments(ctx, MappingFor(kind).Collection, pageSize)
	if err != nil {
		return nil, err
	}
	records := make([]RemoteRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, RemoteRecord{ID: doc.ID, Fields: doc.Fields})
	}
	return records, nil
}

func (s *firestoreSource) GetEntity(ctx context.Context, kind EntityKind, key string) (*RemoteRecord, error) {
	doc, err := s.client.GetDocument(ctx, MappingFor(kind).Collection, key)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &RemoteRecord{ID: doc.ID, Fields: doc.Fields}, nil
}
