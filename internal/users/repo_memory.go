package users

import (
	"context"
	"sync"
	"time"

	"docsummary-backend/internal/documents"
)

// DocumentLister supplies a user's documents to the in-memory join.
type DocumentLister interface {
	ListByUser(ctx context.Context, userID string) ([]documents.Document, error)
}

type MemoryRepo struct {
	Docs DocumentLister

	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Create(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return User{}, ErrDuplicateUser
	}
	user.CreatedAt = time.Now().UTC()
	r.users[user.Username] = user
	return user, nil
}

func (r *MemoryRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) Exists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	switch err {
	case nil:
		return true, nil
	case ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func (r *MemoryRepo) GetWithDocuments(ctx context.Context, username string) (Profile, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	profile := Profile{User: user, Documents: []documents.Document{}}
	if r.Docs == nil {
		return profile, nil
	}
	docs, err := r.Docs.ListByUser(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	profile.Documents = append(profile.Documents, docs...)
	return profile, nil
}

var _ Repo = (*MemoryRepo)(nil)
