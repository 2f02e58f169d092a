package model

import (
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// FailedDocument records a document whose fetch or extraction failed. The
// final report names every failure explicitly rather than omitting it.
type FailedDocument struct {
	DocumentID types.DocumentID
	Reason     types.PriorityReason
	Error      string
}

// PatientReport is the self-contained output artifact of one patient run,
// suitable for downstream human review
type PatientReport struct {
	RunID           types.RunID
	PatientID       types.PatientID
	Timeline        *Timeline
	Selected        []*PrioritizedDocument
	Inconsistencies []*Inconsistency
	Adjudications   []*Adjudication
	FailedDocuments []FailedDocument
	CreatedAt       time.Time
}

// Partial reports whether the run produced an incomplete result
func (x *PatientReport) Partial() bool {
	return len(x.FailedDocuments) > 0
}

// RunCheckpoint is the lightweight companion status record of a patient run.
// It is written on every phase transition, including on failure, so no work
// is silently lost.
type RunCheckpoint struct {
	RunID          types.RunID
	PatientID      types.PatientID
	Phase          types.RunPhase
	EventCount     int
	SelectedCount  int
	ExtractedCount int
	FailedCount    int
	Error          string
	UpdatedAt      time.Time
}
