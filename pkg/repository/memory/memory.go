package memory

import (
	"github.com/clinmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("record not found")

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-memory repository for development and tests
type Memory struct {
	documentCache *documentCacheRepository
	report        *reportRepository
}

var _ interfaces.Repository = &Memory{}

// New creates a new in-memory repository
func New() *Memory {
	return &Memory{
		documentCache: newDocumentCacheRepository(),
		report:        newReportRepository(),
	}
}

func (x *Memory) DocumentCache() interfaces.DocumentCacheRepository {
	return x.documentCache
}

func (x *Memory) Report() interfaces.ReportRepository {
	return x.report
}

func (x *Memory) Close() error {
	return nil
}
