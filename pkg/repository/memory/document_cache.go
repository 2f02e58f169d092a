package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type documentCacheRepository struct {
	mu   sync.RWMutex
	docs map[types.DocumentID]*model.CachedDocument
}

func newDocumentCacheRepository() *documentCacheRepository {
	return &documentCacheRepository{
		docs: make(map[types.DocumentID]*model.CachedDocument),
	}
}

func (r *documentCacheRepository) Get(ctx context.Context, id types.DocumentID) (*model.CachedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.docs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "cached document not found", goerr.V("documentID", id))
	}

	return doc.Clone(), nil
}

func (r *documentCacheRepository) Put(ctx context.Context, doc *model.CachedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := doc.Clone()
	stored.UpdatedAt = now

	if existing, exists := r.docs[doc.DocumentID]; exists {
		// Idempotent for identical provenance; re-extraction with a new
		// method/version replaces the record.
		if existing.SameProvenance(doc) {
			return nil
		}
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}

	r.docs[doc.DocumentID] = stored
	return nil
}

func (r *documentCacheRepository) Exists(ctx context.Context, id types.DocumentID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.docs[id]
	return exists, nil
}

func (r *documentCacheRepository) FindByContentHash(ctx context.Context, patientID types.PatientID, hash string) ([]*model.CachedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.CachedDocument, 0)
	for _, doc := range r.docs {
		if doc.PatientID == patientID && doc.ContentHash == hash {
			result = append(result, doc.Clone())
		}
	}

	return result, nil
}
