package config

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/clinmon-lab/asclepius/pkg/service/gcs"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Storage holds CLI flags for the document blob store
type Storage struct {
	// no flags today; document locators carry their own bucket. The struct
	// exists so credentials flags can land here without touching callers.
}

// Flags returns CLI flags for blob store configuration
func (s *Storage) Flags() []cli.Flag {
	return nil
}

// Configure creates the Cloud Storage-backed blob fetcher. The returned
// closer shuts down the underlying client.
func (s *Storage) Configure(ctx context.Context) (*gcs.Fetcher, func(), error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create storage client")
	}

	fetcher, err := gcs.New(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	closer := func() {
		if err := client.Close(); err != nil {
			logging.Default().Error("failed to close storage client", "error", err.Error())
		}
	}

	return fetcher, closer, nil
}
