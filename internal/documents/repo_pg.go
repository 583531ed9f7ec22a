package documents

import (
	"context"
	"database/sql"
	"fmt"

	"docsummary-backend/internal/shared/storage/db"
)

const insertDocumentSQL = `
INSERT INTO document (user_id, summary, filename, storage_key, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Insert writes one row and returns its generated id.
func (r *PGRepo) Insert(ctx context.Context, doc Document) (int64, error) {
	return insertOne(ctx, r.DB, doc)
}

// InsertBatch inserts docs in order inside a single transaction.
func (r *PGRepo) InsertBatch(ctx context.Context, docs []Document) ([]int64, error) {
	if len(docs) == 0 {
		return []int64{}, nil
	}
	ids := make([]int64, 0, len(docs))
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		for i, doc := range docs {
			id, err := insertOne(ctx, tx, doc)
			if err != nil {
				return fmt.Errorf("insert document %d (%s): %w", i, doc.Filename, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func insertOne(ctx context.Context, q queryRower, doc Document) (int64, error) {
	if doc.UserID == "" || doc.Filename == "" {
		return 0, ErrInvalidInput
	}
	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}
	var id int64
	err := q.QueryRowContext(ctx, insertDocumentSQL,
		doc.UserID,
		doc.Summary,
		doc.Filename,
		storageKey,
		doc.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownUser, doc.UserID)
		}
		return 0, err
	}
	return id, nil
}

// ListByUser returns the user's documents in upload order.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	const query = `
SELECT id, user_id, summary, filename, storage_key, updated_at
FROM document
WHERE user_id = $1
ORDER BY id ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var doc Document
		var summary sql.NullString
		var storageKey sql.NullString
		if err := rows.Scan(&doc.ID, &doc.UserID, &summary, &doc.Filename, &storageKey, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		if summary.Valid {
			s := summary.String
			doc.Summary = &s
		}
		if storageKey.Valid {
			doc.StorageKey = storageKey.String
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ DocumentsRepo = (*PGRepo)(nil)
