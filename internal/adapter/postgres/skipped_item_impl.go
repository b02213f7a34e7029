package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/news-harvester/internal/entity"
)

// SkippedItemRepoImpl provides a concrete implementation for the SkippedItemRepository interface using PostgreSQL.
type SkippedItemRepoImpl struct {
	db *pgxpool.Pool
}

// NewSkippedItemRepo creates a new instance of SkippedItemRepoImpl.
func NewSkippedItemRepo(db *pgxpool.Pool) *SkippedItemRepoImpl {
	return &SkippedItemRepoImpl{db: db}
}

// SaveAll records every skipped item of a run in one batch.
func (r *SkippedItemRepoImpl) SaveAll(ctx context.Context, items []entity.SkippedItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`INSERT INTO skipped_items (run_id, url, reason, detail, skipped_at) VALUES ($1, $2, $3, $4, $5)`,
			item.RunID, item.URL, item.Reason, item.Detail, item.SkippedAt)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

// FindByRun retrieves the skipped items of a run in the order they were recorded.
func (r *SkippedItemRepoImpl) FindByRun(ctx context.Context, runID string) ([]entity.SkippedItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, url, reason, detail, skipped_at
		 FROM skipped_items
		 WHERE run_id = $1
		 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.SkippedItem
	for rows.Next() {
		var item entity.SkippedItem
		if err := rows.Scan(
			&item.ID,
			&item.RunID,
			&item.URL,
			&item.Reason,
			&item.Detail,
			&item.SkippedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
