package gcs

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestParseLocator(t *testing.T) {
	bucket, object, err := parseLocator("gs://clinical-docs/patient-1/note-42.pdf")
	gt.NoError(t, err).Required()
	gt.Value(t, bucket).Equal("clinical-docs")
	gt.Value(t, object).Equal("patient-1/note-42.pdf")
}

func TestParseLocatorRejectsOtherSchemes(t *testing.T) {
	for _, locator := range []string{
		"s3://bucket/object",
		"https://example.com/doc",
		"gs://bucket-only",
		"gs:///no-bucket",
		"",
	} {
		_, _, err := parseLocator(locator)
		gt.Error(t, err)
		if !errors.Is(err, ErrInvalidLocator) {
			t.Fatalf("expected ErrInvalidLocator for %q, got %v", locator, err)
		}
	}
}
