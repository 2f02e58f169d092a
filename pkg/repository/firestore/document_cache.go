package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// cachedDocumentDoc is the Firestore document representation of
// model.CachedDocument. DocumentDate is stored as UTC midnight.
type cachedDocumentDoc struct {
	DocumentID    string    `firestore:"DocumentID"`
	PatientID     string    `firestore:"PatientID"`
	Text          string    `firestore:"Text"`
	ContentHash   string    `firestore:"ContentHash"`
	Method        string    `firestore:"Method"`
	MethodVersion string    `firestore:"MethodVersion"`
	Locator       string    `firestore:"Locator"`
	DocumentDate  time.Time `firestore:"DocumentDate"`
	DocumentType  string    `firestore:"DocumentType"`
	Category      string    `firestore:"Category"`
	Success       bool      `firestore:"Success"`
	Error         string    `firestore:"Error"`
	CreatedAt     time.Time `firestore:"CreatedAt"`
	UpdatedAt     time.Time `firestore:"UpdatedAt"`
}

func toCachedDocumentDoc(d *model.CachedDocument) *cachedDocumentDoc {
	return &cachedDocumentDoc{
		DocumentID:    string(d.DocumentID),
		PatientID:     string(d.PatientID),
		Text:          d.Text,
		ContentHash:   d.ContentHash,
		Method:        d.Method,
		MethodVersion: d.MethodVersion,
		Locator:       d.Locator,
		DocumentDate:  types.DateToTime(d.DocumentDate),
		DocumentType:  d.DocumentType,
		Category:      d.Category,
		Success:       d.Success,
		Error:         d.Error,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func fromCachedDocumentDoc(d *cachedDocumentDoc) *model.CachedDocument {
	return &model.CachedDocument{
		DocumentID:    types.DocumentID(d.DocumentID),
		PatientID:     types.PatientID(d.PatientID),
		Text:          d.Text,
		ContentHash:   d.ContentHash,
		Method:        d.Method,
		MethodVersion: d.MethodVersion,
		Locator:       d.Locator,
		DocumentDate:  types.DateOf(d.DocumentDate),
		DocumentType:  d.DocumentType,
		Category:      d.Category,
		Success:       d.Success,
		Error:         d.Error,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func snapshotToCachedDocument(doc *firestore.DocumentSnapshot) (*model.CachedDocument, error) {
	var d cachedDocumentDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromCachedDocumentDoc(&d), nil
}

type documentCacheRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDocumentCacheRepository(client *firestore.Client) *documentCacheRepository {
	return &documentCacheRepository{
		client: client,
	}
}

func (r *documentCacheRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "document_cache")
}

func (r *documentCacheRepository) Get(ctx context.Context, id types.DocumentID) (*model.CachedDocument, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "cached document not found", goerr.V("documentID", id))
		}
		return nil, goerr.Wrap(err, "failed to get cached document", goerr.V("documentID", id))
	}

	d, err := snapshotToCachedDocument(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal cached document", goerr.V("documentID", id))
	}

	return d, nil
}

// Put runs in a transaction so an in-flight write either completes atomically
// or is not observed at all.
func (r *documentCacheRepository) Put(ctx context.Context, doc *model.CachedDocument) error {
	docRef := r.collection().Doc(string(doc.DocumentID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		stored := doc.Clone()
		stored.CreatedAt = now
		stored.UpdatedAt = now

		snap, err := tx.Get(docRef)
		if err == nil {
			existing, err := snapshotToCachedDocument(snap)
			if err != nil {
				return goerr.Wrap(err, "failed to unmarshal existing cached document")
			}
			if existing.SameProvenance(doc) {
				return nil
			}
			stored.CreatedAt = existing.CreatedAt
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to read cached document in transaction")
		}

		return tx.Set(docRef, toCachedDocumentDoc(stored))
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put cached document", goerr.V("documentID", doc.DocumentID))
	}

	return nil
}

func (r *documentCacheRepository) Exists(ctx context.Context, id types.DocumentID) (bool, error) {
	_, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to check cached document", goerr.V("documentID", id))
	}
	return true, nil
}

func (r *documentCacheRepository) FindByContentHash(ctx context.Context, patientID types.PatientID, hash string) ([]*model.CachedDocument, error) {
	iter := r.collection().
		Where("PatientID", "==", string(patientID)).
		Where("ContentHash", "==", hash).
		Documents(ctx)
	defer iter.Stop()

	docs := make([]*model.CachedDocument, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cached documents", goerr.V("hash", hash))
		}

		d, err := snapshotToCachedDocument(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal cached document")
		}

		docs = append(docs, d)
	}

	return docs, nil
}
