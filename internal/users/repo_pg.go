package users

import (
	"context"
	"database/sql"
	"errors"

	"docsummary-backend/internal/documents"
	"docsummary-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO users (username, password)
VALUES ($1, $2)
RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query, user.Username, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrDuplicateUser
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const query = `
SELECT username, password, created_at
FROM users
WHERE username = $1`
	var user User
	err := r.DB.QueryRowContext(ctx, query, username).Scan(&user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) Exists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetWithDocuments loads the user and their documents with a single join.
func (r *PGRepo) GetWithDocuments(ctx context.Context, username string) (Profile, error) {
	const query = `
SELECT u.username, u.password, u.created_at,
       d.id, d.summary, d.filename, d.storage_key, d.updated_at
FROM users u
LEFT JOIN document d ON d.user_id = u.username
WHERE u.username = $1
ORDER BY d.id ASC`

	rows, err := r.DB.QueryContext(ctx, query, username)
	if err != nil {
		return Profile{}, err
	}
	defer rows.Close()

	var (
		profile Profile
		found   bool
	)
	profile.Documents = []documents.Document{}
	for rows.Next() {
		var (
			docID      sql.NullInt64
			summary    sql.NullString
			filename   sql.NullString
			storageKey sql.NullString
			updatedAt  sql.NullTime
		)
		if err := rows.Scan(
			&profile.User.Username,
			&profile.User.PasswordHash,
			&profile.User.CreatedAt,
			&docID,
			&summary,
			&filename,
			&storageKey,
			&updatedAt,
		); err != nil {
			return Profile{}, err
		}
		found = true
		if !docID.Valid {
			continue
		}
		doc := documents.Document{
			ID:         docID.Int64,
			UserID:     profile.User.Username,
			Filename:   filename.String,
			StorageKey: storageKey.String,
			UpdatedAt:  updatedAt.Time,
		}
		if summary.Valid {
			s := summary.String
			doc.Summary = &s
		}
		profile.Documents = append(profile.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return Profile{}, err
	}
	if !found {
		return Profile{}, ErrNotFound
	}
	return profile, nil
}

var _ Repo = (*PGRepo)(nil)
