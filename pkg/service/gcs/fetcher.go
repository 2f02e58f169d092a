package gcs

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/clinmon-lab/asclepius/pkg/domain/interfaces"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/clinmon-lab/asclepius/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidLocator indicates a document locator that is not a gs:// URL
var ErrInvalidLocator = goerr.New("invalid document locator")

// Fetcher retrieves raw document bytes from Cloud Storage. Locators use the
// `gs://bucket/object` form.
type Fetcher struct {
	client *storage.Client
}

var _ interfaces.BlobFetcher = (*Fetcher)(nil)

func New(client *storage.Client) (*Fetcher, error) {
	if client == nil {
		return nil, goerr.New("storage client is required")
	}
	return &Fetcher{client: client}, nil
}

// Fetch downloads the object and returns its bytes with the stored content
// type
func (x *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	bucket, object, err := parseLocator(locator)
	if err != nil {
		return nil, "", err
	}

	reader, err := x.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to open object",
			goerr.V("bucket", bucket),
			goerr.V("object", object))
	}
	defer safe.Close(ctx, reader)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to read object",
			goerr.V("bucket", bucket),
			goerr.V("object", object))
	}

	logging.From(ctx).Debug("fetched document blob",
		"locator", locator,
		"bytes", len(data),
		"contentType", reader.Attrs.ContentType,
	)

	return data, reader.Attrs.ContentType, nil
}

func parseLocator(locator string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(locator, "gs://")
	if !ok {
		return "", "", goerr.Wrap(ErrInvalidLocator, "locator must start with gs://",
			goerr.V("locator", locator))
	}

	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.Wrap(ErrInvalidLocator, "locator must name a bucket and object",
			goerr.V("locator", locator))
	}

	return bucket, object, nil
}
