package bq

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/clinmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/clinmon-lab/asclepius/pkg/domain/model"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// Source reads event rows and candidate documents from BigQuery views. All
// queries are parameterized and scoped to a single patient; the views are
// read-only from this process's point of view.
type Source struct {
	client        *bigquery.Client
	eventsView    string
	documentsView string
}

var _ interfaces.RowSource = (*Source)(nil)

// New creates a Source over the given fully-qualified view names
// (`project.dataset.view`)
func New(client *bigquery.Client, eventsView, documentsView string) (*Source, error) {
	if client == nil {
		return nil, goerr.New("BigQuery client is required")
	}
	if eventsView == "" || documentsView == "" {
		return nil, goerr.New("events view and documents view are required")
	}

	return &Source{
		client:        client,
		eventsView:    eventsView,
		documentsView: documentsView,
	}, nil
}

// eventRow mirrors the unified event view schema
type eventRow struct {
	EventID      string             `bigquery:"event_id"`
	PatientID    string             `bigquery:"patient_id"`
	EventDate    string             `bigquery:"event_date"`
	EventType    string             `bigquery:"event_type"`
	Category     string             `bigquery:"category"`
	Subtype      string             `bigquery:"subtype"`
	Description  string             `bigquery:"description"`
	Status       string             `bigquery:"status"`
	SourceView   string             `bigquery:"source_view"`
	SourceDomain string             `bigquery:"source_domain"`
	Codes        []eventCodeRow     `bigquery:"codes"`
	Metadata     []eventMetadataRow `bigquery:"metadata"`
}

type eventCodeRow struct {
	System string `bigquery:"system"`
	Code   string `bigquery:"code"`
}

type eventMetadataRow struct {
	Key   string `bigquery:"key"`
	Value string `bigquery:"value"`
}

// documentRow mirrors the candidate document view schema
type documentRow struct {
	DocumentID   string     `bigquery:"document_id"`
	PatientID    string     `bigquery:"patient_id"`
	DocumentDate types.Date `bigquery:"document_date"`
	DocumentType string     `bigquery:"document_type"`
	Category     string     `bigquery:"category"`
	Locator      string     `bigquery:"locator"`
}

// QueryEventRows returns every raw event row for the patient. Rows come back
// untyped; normalization happens in the timeline builder.
func (x *Source) QueryEventRows(ctx context.Context, patientID types.PatientID) ([]*model.RawRow, error) {
	if patientID == "" {
		return nil, goerr.New("patient ID is required")
	}

	query := x.client.Query(fmt.Sprintf(
		"SELECT * FROM `%s` WHERE patient_id = @patient_id", x.eventsView))
	query.Parameters = []bigquery.QueryParameter{
		{Name: "patient_id", Value: string(patientID)},
	}

	it, err := query.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query event rows",
			goerr.V("patientID", patientID),
			goerr.V("view", x.eventsView))
	}

	var rows []*model.RawRow
	for {
		var row eventRow
		if err := it.Next(&row); err == iterator.Done {
			break
		} else if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate event rows",
				goerr.V("patientID", patientID))
		}
		rows = append(rows, row.toRawRow())
	}

	logging.From(ctx).Debug("queried event rows",
		"patientID", patientID,
		"rows", len(rows),
	)

	return rows, nil
}

// QueryCandidateDocuments returns the candidate document pool for the patient
func (x *Source) QueryCandidateDocuments(ctx context.Context, patientID types.PatientID) ([]*model.CandidateDocument, error) {
	if patientID == "" {
		return nil, goerr.New("patient ID is required")
	}

	query := x.client.Query(fmt.Sprintf(
		"SELECT * FROM `%s` WHERE patient_id = @patient_id", x.documentsView))
	query.Parameters = []bigquery.QueryParameter{
		{Name: "patient_id", Value: string(patientID)},
	}

	it, err := query.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query candidate documents",
			goerr.V("patientID", patientID),
			goerr.V("view", x.documentsView))
	}

	var docs []*model.CandidateDocument
	for {
		var row documentRow
		if err := it.Next(&row); err == iterator.Done {
			break
		} else if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate candidate documents",
				goerr.V("patientID", patientID))
		}
		docs = append(docs, &model.CandidateDocument{
			DocumentID:   types.DocumentID(row.DocumentID),
			PatientID:    types.PatientID(row.PatientID),
			Date:         row.DocumentDate,
			DocumentType: row.DocumentType,
			Category:     row.Category,
			Locator:      row.Locator,
		})
	}

	logging.From(ctx).Debug("queried candidate documents",
		"patientID", patientID,
		"documents", len(docs),
	)

	return docs, nil
}

func (r *eventRow) toRawRow() *model.RawRow {
	out := &model.RawRow{
		EventID:      r.EventID,
		PatientID:    r.PatientID,
		Date:         r.EventDate,
		Type:         r.EventType,
		Category:     r.Category,
		Subtype:      r.Subtype,
		Description:  r.Description,
		Status:       r.Status,
		SourceView:   r.SourceView,
		SourceDomain: r.SourceDomain,
	}
	if len(r.Codes) > 0 {
		out.Codes = make(map[string][]string, len(r.Codes))
		for _, c := range r.Codes {
			out.Codes[c.System] = append(out.Codes[c.System], c.Code)
		}
	}
	if len(r.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for _, m := range r.Metadata {
			out.Metadata[m.Key] = m.Value
		}
	}
	return out
}
