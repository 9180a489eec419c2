package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailbucket/internal/model"
)

type EmailRepository struct {
	db *pgxpool.Pool
}

func NewEmailRepository(db *pgxpool.Pool) *EmailRepository {
	return &EmailRepository{db: db}
}

// GetKnownIDs returns the set of thread ids already stored for the user.
func (r *EmailRepository) GetKnownIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	query := `
        SELECT id
        FROM emails
        WHERE user_id = $1
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known[id] = struct{}{}
	}
	return known, rows.Err()
}

// UpsertEmails inserts new records in one batch. Re-synced ids only
// refresh last_synced_at; bucket_id is never touched here.
func (r *EmailRepository) UpsertEmails(ctx context.Context, records []model.EmailRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
        INSERT INTO emails (id, user_id, subject, sender, preview, sent_at, bucket_id, last_synced_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)
        ON CONFLICT (id) DO UPDATE
        SET last_synced_at = EXCLUDED.last_synced_at
    `
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.ID,
			rec.UserID,
			rec.Subject,
			rec.Sender,
			rec.Preview,
			rec.SentAt,
			rec.LastSyncedAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert email: %w", err)
		}
	}
	return nil
}

// ListByUser returns every stored email record for the user.
func (r *EmailRepository) ListByUser(ctx context.Context, userID string) ([]model.EmailRecord, error) {
	query := `
        SELECT id, user_id, subject, sender, preview, sent_at, bucket_id, last_synced_at
        FROM emails
        WHERE user_id = $1
        ORDER BY last_synced_at DESC, id
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []model.EmailRecord
	for rows.Next() {
		var e model.EmailRecord
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Subject,
			&e.Sender,
			&e.Preview,
			&e.SentAt,
			&e.BucketID,
			&e.LastSyncedAt,
		); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// UpdateBucketAssignment writes one classification result. Idempotent,
// keyed by email id.
func (r *EmailRepository) UpdateBucketAssignment(ctx context.Context, emailID, bucketID string) error {
	query := `
        UPDATE emails
        SET bucket_id = $1
        WHERE id = $2
    `
	_, err := r.db.Exec(ctx, query, bucketID, emailID)
	return err
}
