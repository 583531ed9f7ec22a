package documents

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
// When Users is set, inserts for unknown owners fail like the foreign key would.
type MemoryRepo struct {
	Users UserChecker

	mu     sync.RWMutex
	nextID int64
	data   map[string][]Document // userId -> documents
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo(users UserChecker) *MemoryRepo {
	return &MemoryRepo{
		Users: users,
		data:  make(map[string][]Document),
	}
}

// Insert stores a single document.
func (r *MemoryRepo) Insert(ctx context.Context, doc Document) (int64, error) {
	ids, err := r.InsertBatch(ctx, []Document{doc})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// InsertBatch validates every row before storing any of them.
func (r *MemoryRepo) InsertBatch(ctx context.Context, docs []Document) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if doc.UserID == "" || doc.Filename == "" {
			return nil, fmt.Errorf("insert document %d: %w", i, ErrInvalidInput)
		}
		if r.Users == nil {
			continue
		}
		ok, err := r.Users.Exists(ctx, doc.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("insert document %d (%s): %w: %s", i, doc.Filename, ErrUnknownUser, doc.UserID)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		r.nextID++
		doc.ID = r.nextID
		r.data[doc.UserID] = append(r.data[doc.UserID], doc)
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// ListByUser returns a copy of the user's documents in insertion order.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, len(r.data[userID]))
	copy(out, r.data[userID])
	return out, nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
