package config

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/clinmon-lab/asclepius/pkg/service/bq"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// BigQuery holds CLI flags for the source data warehouse
type BigQuery struct {
	projectID     string
	eventsView    string
	documentsView string
}

// Flags returns CLI flags for BigQuery configuration
func (b *BigQuery) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-project-id",
			Usage:       "BigQuery project ID holding the clinical source views",
			Sources:     cli.EnvVars("ASCLEPIUS_BIGQUERY_PROJECT_ID"),
			Destination: &b.projectID,
		},
		&cli.StringFlag{
			Name:        "bigquery-events-view",
			Usage:       "Fully-qualified unified event view (project.dataset.view)",
			Sources:     cli.EnvVars("ASCLEPIUS_BIGQUERY_EVENTS_VIEW"),
			Destination: &b.eventsView,
		},
		&cli.StringFlag{
			Name:        "bigquery-documents-view",
			Usage:       "Fully-qualified candidate document view (project.dataset.view)",
			Sources:     cli.EnvVars("ASCLEPIUS_BIGQUERY_DOCUMENTS_VIEW"),
			Destination: &b.documentsView,
		},
	}
}

// Configure creates the BigQuery-backed row source. The returned closer shuts
// down the underlying client.
func (b *BigQuery) Configure(ctx context.Context) (*bq.Source, func(), error) {
	if b.projectID == "" {
		return nil, nil, goerr.New("bigquery-project-id is required")
	}

	client, err := bigquery.NewClient(ctx, b.projectID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	source, err := bq.New(client, b.eventsView, b.documentsView)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	closer := func() {
		if err := client.Close(); err != nil {
			logging.Default().Error("failed to close BigQuery client", "error", err.Error())
		}
	}

	return source, closer, nil
}
