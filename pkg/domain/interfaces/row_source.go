package interfaces

import (
	"context"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// RowSource supplies raw event rows and candidate documents for one patient.
// Implementations issue read-only, parameterized queries; no query dialect
// leaks through this boundary.
type RowSource interface {
	// QueryEventRows returns all raw event rows for the patient
	QueryEventRows(ctx context.Context, patientID types.PatientID) ([]*model.RawRow, error)

	// QueryCandidateDocuments returns the candidate document pool for the
	// patient
	QueryCandidateDocuments(ctx context.Context, patientID types.PatientID) ([]*model.CandidateDocument, error)
}
