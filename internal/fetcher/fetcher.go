// Package fetcher downloads supplier catalog feeds over HTTP and FTP and
// parses the CSV and XLSX files they ship.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote catalog data.
type Fetcher interface {
	// Download fetches the URL and returns the response body. The caller
	// must close it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
