package users

import "context"

// Repo persists users. Rows are never updated or deleted.
type Repo interface {
	Create(ctx context.Context, user User) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Exists(ctx context.Context, username string) (bool, error)
	GetWithDocuments(ctx context.Context, username string) (Profile, error)
}
