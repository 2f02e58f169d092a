package interfaces

import "context"

// BlobFetcher retrieves raw document bytes by locator. The core never
// interprets the bytes itself; they are handed to the extraction service.
type BlobFetcher interface {
	Fetch(ctx context.Context, locator string) (data []byte, contentType string, err error)
}
