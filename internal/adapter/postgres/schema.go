package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id               BIGSERIAL PRIMARY KEY,
	source           TEXT        NOT NULL,
	title            TEXT        NOT NULL,
	abstract         TEXT        NOT NULL DEFAULT '',
	text             TEXT        NOT NULL,
	web_link         TEXT        NOT NULL UNIQUE,
	local_link       TEXT,
	publication_date TIMESTAMPTZ,
	load_date        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	content_hash     TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS documents_content_hash_idx ON documents (content_hash);

CREATE TABLE IF NOT EXISTS document_metadata (
	document_id BIGINT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
	meta_key    TEXT   NOT NULL,
	meta_value  TEXT   NOT NULL,
	PRIMARY KEY (document_id, meta_key)
);

CREATE TABLE IF NOT EXISTS harvest_runs (
	id             TEXT PRIMARY KEY,
	source         TEXT        NOT NULL,
	status         TEXT        NOT NULL,
	interval_hours INTEGER     NOT NULL DEFAULT 0,
	max_count      INTEGER     NOT NULL DEFAULT 0,
	incremental    BOOLEAN     NOT NULL DEFAULT FALSE,
	outcome        TEXT        NOT NULL DEFAULT '',
	document_count INTEGER     NOT NULL DEFAULT 0,
	skipped_count  INTEGER     NOT NULL DEFAULT 0,
	failure_reason TEXT        NOT NULL DEFAULT '',
	submitted_at   TIMESTAMPTZ NOT NULL,
	started_at     TIMESTAMPTZ,
	finished_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS skipped_items (
	id         BIGSERIAL PRIMARY KEY,
	run_id     TEXT        NOT NULL REFERENCES harvest_runs (id) ON DELETE CASCADE,
	url        TEXT        NOT NULL,
	reason     TEXT        NOT NULL,
	detail     TEXT        NOT NULL DEFAULT '',
	skipped_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS skipped_items_run_id_idx ON skipped_items (run_id);
`

// Migrate creates the tables used by the repositories in this package.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
