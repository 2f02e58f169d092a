package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/clinmon-lab/asclepius/pkg/cli/config"
	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/service/adjudicate"
	"github.com/clinmon-lab/asclepius/pkg/service/consistency"
	"github.com/clinmon-lab/asclepius/pkg/service/extract"
	"github.com/clinmon-lab/asclepius/pkg/service/prioritizer"
	"github.com/clinmon-lab/asclepius/pkg/service/timeline"
	"github.com/clinmon-lab/asclepius/pkg/usecase"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdRun() *cli.Command {
	var patientIDs []string
	var concurrency int
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var bqCfg config.BigQuery
	var storageCfg config.Storage

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "patient-id",
			Usage:       "Patient ID to process (repeatable)",
			Required:    true,
			Sources:     cli.EnvVars("ASCLEPIUS_PATIENT_IDS"),
			Destination: &patientIDs,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Number of patients processed in parallel",
			Value:       4,
			Sources:     cli.EnvVars("ASCLEPIUS_CONCURRENCY"),
			Destination: &concurrency,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, bqCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the pipeline for a batch of patients",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Load(); err != nil {
				return goerr.Wrap(err, "failed to load pipeline configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize Gemini client")
			}

			extractor, err := extract.New(llmClient, appCfg.ExtractOptions()...)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize extraction service")
			}

			rows, closeRows, err := bqCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize BigQuery source")
			}
			defer closeRows()

			blobs, closeBlobs, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize blob fetcher")
			}
			defer closeBlobs()

			uc := usecase.New(repo, rows, blobs, extractor,
				usecase.WithBuilder(timeline.New(appCfg.TimelineOptions()...)),
				usecase.WithPrioritizer(prioritizer.New(appCfg.PrioritizerOptions()...)),
				usecase.WithDetector(consistency.New(appCfg.DetectorOptions()...)),
				usecase.WithAdjudicator(adjudicate.New(appCfg.AdjudicatorOptions()...)),
				usecase.WithConcurrency(concurrency),
				usecase.WithProvenance(appCfg.Extraction.Method, appCfg.Extraction.MethodVersion),
			)

			ids := make([]types.PatientID, len(patientIDs))
			for i, id := range patientIDs {
				ids[i] = types.PatientID(id)
			}

			batch, err := uc.RunBatch(ctx, ids)
			if err != nil {
				return goerr.Wrap(err, "batch run failed")
			}

			printBatchSummary(batch)

			if batch.Failed > 0 {
				return goerr.New("some patients failed", goerr.V("failed", batch.Failed))
			}
			return nil
		},
	}
}

func printBatchSummary(batch *usecase.BatchResult) {
	okColor := color.New(color.FgGreen, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)
	failColor := color.New(color.FgRed, color.Bold)

	fmt.Fprintf(os.Stdout, "\n%s %d  %s %d  %s %d\n\n",
		okColor.Sprint("completed:"), batch.Completed,
		warnColor.Sprint("partial:"), batch.Partial,
		failColor.Sprint("failed:"), batch.Failed,
	)

	for _, r := range batch.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(os.Stdout, "  %s %s: %v\n", failColor.Sprint("✗"), r.PatientID, r.Err)
		case r.Report.Partial():
			fmt.Fprintf(os.Stdout, "  %s %s: %d documents failed\n",
				warnColor.Sprint("!"), r.PatientID, len(r.Report.FailedDocuments))
		default:
			fmt.Fprintf(os.Stdout, "  %s %s: %d events, %d adjudications\n",
				okColor.Sprint("✓"), r.PatientID,
				len(r.Report.Timeline.Events), len(r.Report.Adjudications))
		}
	}
}
