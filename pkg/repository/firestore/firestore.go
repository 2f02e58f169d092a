package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/clinmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("record not found")

// Firestore is the persisted repository backend. The document cache is
// retained across runs; retention is a cache-policy choice, not a
// correctness requirement.
type Firestore struct {
	client        *firestore.Client
	documentCache *documentCacheRepository
	report        *reportRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes all collection names, isolating test data
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.documentCache.collectionPrefix = prefix
		f.report.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:        client,
		documentCache: newDocumentCacheRepository(client),
		report:        newReportRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) DocumentCache() interfaces.DocumentCacheRepository {
	return f.documentCache
}

func (f *Firestore) Report() interfaces.ReportRepository {
	return f.report
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
