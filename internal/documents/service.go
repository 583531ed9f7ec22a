package documents

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"docsummary-backend/internal/shared/storage/object"
	"docsummary-backend/internal/shared/telemetry"
)

// Service contains business logic for documents.
type Service struct {
	Store object.ObjectStore // optional
	Repo  DocumentsRepo
	Now   func() time.Time
}

// Archive saves the original bytes when an object store is configured and
// returns the storage key, or "" when archiving is disabled.
func (s *Service) Archive(ctx context.Context, owner, fileName string, content []byte) (string, error) {
	if s.Store == nil {
		return "", nil
	}
	key, _, _, err := s.Store.Save(ctx, owner, fileName, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", fileName, err)
	}
	return key, nil
}

// Discard removes archived objects of a request that was not committed.
// Failures are logged and otherwise ignored.
func (s *Service) Discard(ctx context.Context, keys []string) {
	if s.Store == nil {
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.Store.Delete(ctx, key); err != nil {
			telemetry.Warn("documents.discard_failed", map[string]any{
				"storage_key": key,
				"error":       err.Error(),
			})
		}
	}
}

// Commit persists docs in one transaction and returns them with ids assigned.
func (s *Service) Commit(ctx context.Context, docs []Document) ([]Document, error) {
	if len(docs) == 0 {
		return []Document{}, nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	stamp := now().UTC()
	staged := make([]Document, len(docs))
	for i, doc := range docs {
		doc.UpdatedAt = stamp
		staged[i] = doc
	}
	// One row needs no explicit transaction.
	if len(staged) == 1 {
		id, err := s.Repo.Insert(ctx, staged[0])
		if err != nil {
			return nil, err
		}
		staged[0].ID = id
		return staged, nil
	}
	ids, err := s.Repo.InsertBatch(ctx, staged)
	if err != nil {
		return nil, err
	}
	for i := range staged {
		staged[i].ID = ids[i]
	}
	return staged, nil
}

// ListByUser returns the user's documents in upload order.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID)
}
