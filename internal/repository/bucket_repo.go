package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailbucket/internal/model"
)

type BucketRepository struct {
	db *pgxpool.Pool
}

func NewBucketRepository(db *pgxpool.Pool) *BucketRepository {
	return &BucketRepository{db: db}
}

// defaultBuckets seeds a fresh user with a usable category set.
var defaultBuckets = []struct {
	name        string
	description string
}{
	{"Work", "Professional correspondence, meetings and project updates"},
	{"Personal", "Mail from friends, family and personal services"},
	{"Newsletters", "Subscriptions, digests and periodic announcements"},
	{"Spam", "Unsolicited or low value promotional mail"},
}

// GetBuckets returns the user's bucket definitions.
func (r *BucketRepository) GetBuckets(ctx context.Context, userID string) ([]model.Bucket, error) {
	query := `
        SELECT id, user_id, name, COALESCE(description, '')
        FROM buckets
        WHERE user_id = $1
        ORDER BY name
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []model.Bucket
	for rows.Next() {
		var b model.Bucket
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Description); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// EnsureDefaults bootstraps the default bucket set for a user that has
// none yet. Existing names are left alone.
func (r *BucketRepository) EnsureDefaults(ctx context.Context, userID string) error {
	query := `
        INSERT INTO buckets (id, user_id, name, description)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, name) DO NOTHING
    `
	for _, b := range defaultBuckets {
		if _, err := r.db.Exec(ctx, query, uuid.NewString(), userID, b.name, b.description); err != nil {
			return fmt.Errorf("failed to seed bucket %q: %w", b.name, err)
		}
	}
	return nil
}
