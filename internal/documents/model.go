package documents

import "time"

// Document is one summarized upload owned by a user.
type Document struct {
	ID         int64
	UserID     string
	Filename   string
	Summary    *string
	StorageKey string
	UpdatedAt  time.Time
}
