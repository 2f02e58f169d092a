package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type reportRepository struct {
	mu          sync.RWMutex
	reports     map[types.PatientID]*model.PatientReport
	checkpoints map[types.PatientID]*model.RunCheckpoint
}

func newReportRepository() *reportRepository {
	return &reportRepository{
		reports:     make(map[types.PatientID]*model.PatientReport),
		checkpoints: make(map[types.PatientID]*model.RunCheckpoint),
	}
}

func (r *reportRepository) PutReport(ctx context.Context, report *model.PatientReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *report
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.reports[report.PatientID] = &stored
	return nil
}

func (r *reportRepository) GetReport(ctx context.Context, patientID types.PatientID) (*model.PatientReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, exists := r.reports[patientID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "report not found", goerr.V("patientID", patientID))
	}

	copied := *report
	return &copied, nil
}

func (r *reportRepository) PutCheckpoint(ctx context.Context, cp *model.RunCheckpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *cp
	stored.UpdatedAt = time.Now().UTC()
	r.checkpoints[cp.PatientID] = &stored
	return nil
}

func (r *reportRepository) GetCheckpoint(ctx context.Context, patientID types.PatientID) (*model.RunCheckpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp, exists := r.checkpoints[patientID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "checkpoint not found", goerr.V("patientID", patientID))
	}

	copied := *cp
	return &copied, nil
}
