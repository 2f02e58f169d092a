package interfaces

import (
	"context"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
)

// ReportRepository defines the interface for run output persistence
type ReportRepository interface {
	// PutReport stores the output artifact of a patient run
	PutReport(ctx context.Context, report *model.PatientReport) error

	// GetReport retrieves the latest report for a patient
	GetReport(ctx context.Context, patientID types.PatientID) (*model.PatientReport, error)

	// PutCheckpoint upserts the companion status record of a run. Written on
	// every phase transition, including failure.
	PutCheckpoint(ctx context.Context, cp *model.RunCheckpoint) error

	// GetCheckpoint retrieves the latest checkpoint for a patient
	GetCheckpoint(ctx context.Context, patientID types.PatientID) (*model.RunCheckpoint, error)
}
