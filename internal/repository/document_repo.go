package repository

import (
	"context"

	"github.com/user/news-harvester/internal/entity"
)

// DocumentRepository defines the interface for storing harvested documents.
type DocumentRepository interface {
	// Save stores the document, keyed by its web link. It returns the stored id.
	Save(ctx context.Context, source string, doc *entity.Document) (int64, error)
	// FindByWebLink retrieves a stored document.
	FindByWebLink(ctx context.Context, webLink string) (*entity.Document, error)
}

// CheckpointRepository remembers the most recent document of the last run per source.
type CheckpointRepository interface {
	// LastKnown returns ErrNotFound when no run has completed for source yet.
	LastKnown(ctx context.Context, source string) (*entity.Document, error)
	SaveLastKnown(ctx context.Context, source string, doc *entity.Document) error
}
