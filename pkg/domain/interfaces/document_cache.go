package interfaces

import (
	"context"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// DocumentCacheRepository defines the interface for CachedDocument persistence.
// It guarantees the expensive fetch/parse step executes at most once per
// document id per cache lifetime.
type DocumentCacheRepository interface {
	// Get retrieves a cached document by id. Read-through with no side
	// effect on miss; a miss returns ErrNotFound.
	Get(ctx context.Context, id types.DocumentID) (*model.CachedDocument, error)

	// Put upserts a cached document keyed by document id. Idempotent: an
	// existing record with the same extraction method/version is left
	// untouched; a differing method/version replaces it.
	Put(ctx context.Context, doc *model.CachedDocument) error

	// Exists reports whether a cached document exists for the id
	Exists(ctx context.Context, id types.DocumentID) (bool, error)

	// FindByContentHash returns cached documents whose extracted text hashes
	// to the given value, enabling duplicate collapse across document ids
	FindByContentHash(ctx context.Context, patientID types.PatientID, hash string) ([]*model.CachedDocument, error)
}
