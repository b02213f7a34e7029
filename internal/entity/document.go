package entity

import (
	"time"

	"github.com/user/news-harvester/pkg/utils"
)

// Document is one harvested article, normalized for downstream storage.
type Document struct {
	ID              *int64            `json:"id,omitempty"` // Assigned by the persistence layer
	Title           string            `json:"title"`
	Abstract        string            `json:"abstract"`
	Text            string            `json:"text"`
	WebLink         string            `json:"web_link"`
	LocalLink       *string           `json:"local_link,omitempty"`
	Metadata        map[string]string `json:"metadata"`
	PublicationDate *time.Time        `json:"publication_date,omitempty"`
	LoadDate        *time.Time        `json:"load_date,omitempty"`
	ContentHash     string            `json:"content_hash"`
}

// ComputeContentHash fingerprints a document by its title and web link.
// The result is stable across repeated extraction of the same article.
func ComputeContentHash(title, webLink string) string {
	return utils.Fingerprint(title, webLink)
}

// SameContent reports whether two documents carry the same fingerprint.
// Documents loaded from an older store may lack a hash, so it is derived on demand.
func (d *Document) SameContent(other *Document) bool {
	if d == nil || other == nil {
		return false
	}
	return d.hash() == other.hash()
}

func (d *Document) hash() string {
	if d.ContentHash != "" {
		return d.ContentHash
	}
	return ComputeContentHash(d.Title, d.WebLink)
}
