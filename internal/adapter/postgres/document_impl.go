package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
)

// DocumentRepoImpl provides a concrete implementation for the DocumentRepository interface using PostgreSQL.
type DocumentRepoImpl struct {
	db *pgxpool.Pool
}

// NewDocumentRepo creates a new instance of DocumentRepoImpl.
func NewDocumentRepo(db *pgxpool.Pool) *DocumentRepoImpl {
	return &DocumentRepoImpl{db: db}
}

// Save upserts the document and its metadata within a single transaction.
// The stored id and load date are written back into doc.
func (r *DocumentRepoImpl) Save(ctx context.Context, source string, doc *entity.Document) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO documents (source, title, abstract, text, web_link, local_link, publication_date, content_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (web_link) DO UPDATE SET
		   title = EXCLUDED.title,
		   abstract = EXCLUDED.abstract,
		   text = EXCLUDED.text,
		   local_link = EXCLUDED.local_link,
		   publication_date = EXCLUDED.publication_date,
		   content_hash = EXCLUDED.content_hash,
		   load_date = NOW()
		 RETURNING id, load_date`,
		source,
		doc.Title,
		doc.Abstract,
		doc.Text,
		doc.WebLink,
		doc.LocalLink,
		doc.PublicationDate,
		doc.ContentHash,
	).Scan(&id, &doc.LoadDate)
	if err != nil {
		return 0, fmt.Errorf("failed to save document %s: %w", doc.WebLink, err)
	}

	if len(doc.Metadata) > 0 {
		batch := &pgx.Batch{}
		for key, value := range doc.Metadata {
			batch.Queue(`INSERT INTO document_metadata (document_id, meta_key, meta_value) VALUES ($1, $2, $3)
			             ON CONFLICT (document_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`,
				id, key, value)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("failed to save metadata of %s: %w", doc.WebLink, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	doc.ID = &id
	return id, nil
}

// FindByWebLink retrieves a stored document together with its metadata.
func (r *DocumentRepoImpl) FindByWebLink(ctx context.Context, webLink string) (*entity.Document, error) {
	var doc entity.Document
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id, title, abstract, text, web_link, local_link, publication_date, load_date, content_hash
		 FROM documents
		 WHERE web_link = $1`,
		webLink,
	).Scan(
		&id,
		&doc.Title,
		&doc.Abstract,
		&doc.Text,
		&doc.WebLink,
		&doc.LocalLink,
		&doc.PublicationDate,
		&doc.LoadDate,
		&doc.ContentHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.ID = &id

	rows, err := r.db.Query(ctx, `SELECT meta_key, meta_value FROM document_metadata WHERE document_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doc.Metadata = make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		doc.Metadata[key] = value
	}
	return &doc, rows.Err()
}
