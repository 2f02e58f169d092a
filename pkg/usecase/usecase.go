package usecase

import (
	"sync"

	"github.com/clinmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/service/adjudicate"
	"github.com/clinmon-lab/asclepius/pkg/service/consistency"
	"github.com/clinmon-lab/asclepius/pkg/service/extract"
	"github.com/clinmon-lab/asclepius/pkg/service/prioritizer"
	"github.com/clinmon-lab/asclepius/pkg/service/timeline"
)

// UseCases wires the per-patient pipeline stages together
type UseCases struct {
	repo      interfaces.Repository
	rows      interfaces.RowSource
	blobs     interfaces.BlobFetcher
	extractor extract.Service

	builder     *timeline.Builder
	prioritizer *prioritizer.Prioritizer
	detector    *consistency.Detector
	adjudicator *adjudicate.Adjudicator

	method        string
	methodVersion string
	concurrency   int

	mu       sync.Mutex
	docLocks map[types.DocumentID]*sync.Mutex
}

type Option func(*UseCases)

// WithBuilder replaces the default timeline builder
func WithBuilder(b *timeline.Builder) Option {
	return func(uc *UseCases) {
		uc.builder = b
	}
}

// WithPrioritizer replaces the default document prioritizer
func WithPrioritizer(p *prioritizer.Prioritizer) Option {
	return func(uc *UseCases) {
		uc.prioritizer = p
	}
}

// WithDetector replaces the default inconsistency detector
func WithDetector(d *consistency.Detector) Option {
	return func(uc *UseCases) {
		uc.detector = d
	}
}

// WithAdjudicator replaces the default source adjudicator
func WithAdjudicator(a *adjudicate.Adjudicator) Option {
	return func(uc *UseCases) {
		uc.adjudicator = a
	}
}

// WithConcurrency sets the number of patients processed in parallel during a
// batch run (default 4)
func WithConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

// WithProvenance sets the extraction method and version stamped on cached
// documents. Bumping the version invalidates every cached record on its next
// read.
func WithProvenance(method, version string) Option {
	return func(uc *UseCases) {
		uc.method = method
		uc.methodVersion = version
	}
}

func New(repo interfaces.Repository, rows interfaces.RowSource, blobs interfaces.BlobFetcher, extractor extract.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		rows:      rows,
		blobs:     blobs,
		extractor: extractor,

		builder:     timeline.New(),
		prioritizer: prioritizer.New(),
		detector:    consistency.New(),
		adjudicator: adjudicate.New(),

		method:        "plaintext",
		methodVersion: "v1",
		concurrency:   4,

		docLocks: make(map[types.DocumentID]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// lockDocument serializes cache fill for one document id so concurrent
// patients sharing a document fetch it exactly once
func (uc *UseCases) lockDocument(id types.DocumentID) func() {
	uc.mu.Lock()
	lock, ok := uc.docLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		uc.docLocks[id] = lock
	}
	uc.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
