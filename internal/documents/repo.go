package documents

import "context"

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Insert(ctx context.Context, doc Document) (int64, error)
	// InsertBatch writes every row or none.
	InsertBatch(ctx context.Context, docs []Document) ([]int64, error)
	ListByUser(ctx context.Context, userID string) ([]Document, error)
}

// UserChecker reports whether a username exists.
type UserChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}
