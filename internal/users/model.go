package users

import (
	"time"

	"docsummary-backend/internal/documents"
)

// User is a registered account. PasswordHash holds the bcrypt hash.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is a user together with every document they uploaded.
type Profile struct {
	User      User
	Documents []documents.Document
}
