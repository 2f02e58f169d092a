package firestore

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// reportDoc stores the full PatientReport as a JSON payload plus queryable
// metadata. The report is a self-contained artifact; Firestore only needs to
// key it by patient.
type reportDoc struct {
	RunID     string    `firestore:"RunID"`
	PatientID string    `firestore:"PatientID"`
	Partial   bool      `firestore:"Partial"`
	Payload   []byte    `firestore:"Payload"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

type checkpointDoc struct {
	RunID          string    `firestore:"RunID"`
	PatientID      string    `firestore:"PatientID"`
	Phase          string    `firestore:"Phase"`
	EventCount     int       `firestore:"EventCount"`
	SelectedCount  int       `firestore:"SelectedCount"`
	ExtractedCount int       `firestore:"ExtractedCount"`
	FailedCount    int       `firestore:"FailedCount"`
	Error          string    `firestore:"Error"`
	UpdatedAt      time.Time `firestore:"UpdatedAt"`
}

type reportRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newReportRepository(client *firestore.Client) *reportRepository {
	return &reportRepository{
		client: client,
	}
}

func (r *reportRepository) reports() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "reports")
}

func (r *reportRepository) checkpoints() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "checkpoints")
}

func (r *reportRepository) PutReport(ctx context.Context, report *model.PatientReport) error {
	stored := *report
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(&stored)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal report", goerr.V("patientID", report.PatientID))
	}

	doc := &reportDoc{
		RunID:     string(stored.RunID),
		PatientID: string(stored.PatientID),
		Partial:   stored.Partial(),
		Payload:   payload,
		CreatedAt: stored.CreatedAt,
	}

	if _, err := r.reports().Doc(string(report.PatientID)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put report", goerr.V("patientID", report.PatientID))
	}

	return nil
}

func (r *reportRepository) GetReport(ctx context.Context, patientID types.PatientID) (*model.PatientReport, error) {
	snap, err := r.reports().Doc(string(patientID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "report not found", goerr.V("patientID", patientID))
		}
		return nil, goerr.Wrap(err, "failed to get report", goerr.V("patientID", patientID))
	}

	var doc reportDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal report doc", goerr.V("patientID", patientID))
	}

	var report model.PatientReport
	if err := json.Unmarshal(doc.Payload, &report); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal report payload", goerr.V("patientID", patientID))
	}

	return &report, nil
}

func (r *reportRepository) PutCheckpoint(ctx context.Context, cp *model.RunCheckpoint) error {
	doc := &checkpointDoc{
		RunID:          string(cp.RunID),
		PatientID:      string(cp.PatientID),
		Phase:          string(cp.Phase),
		EventCount:     cp.EventCount,
		SelectedCount:  cp.SelectedCount,
		ExtractedCount: cp.ExtractedCount,
		FailedCount:    cp.FailedCount,
		Error:          cp.Error,
		UpdatedAt:      time.Now().UTC(),
	}

	if _, err := r.checkpoints().Doc(string(cp.PatientID)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put checkpoint", goerr.V("patientID", cp.PatientID))
	}

	return nil
}

func (r *reportRepository) GetCheckpoint(ctx context.Context, patientID types.PatientID) (*model.RunCheckpoint, error) {
	snap, err := r.checkpoints().Doc(string(patientID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "checkpoint not found", goerr.V("patientID", patientID))
		}
		return nil, goerr.Wrap(err, "failed to get checkpoint", goerr.V("patientID", patientID))
	}

	var doc checkpointDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal checkpoint", goerr.V("patientID", patientID))
	}

	return &model.RunCheckpoint{
		RunID:          types.RunID(doc.RunID),
		PatientID:      types.PatientID(doc.PatientID),
		Phase:          types.RunPhase(doc.Phase),
		EventCount:     doc.EventCount,
		SelectedCount:  doc.SelectedCount,
		ExtractedCount: doc.ExtractedCount,
		FailedCount:    doc.FailedCount,
		Error:          doc.Error,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}
