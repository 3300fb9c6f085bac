package enrich

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// maxPreviewBytes caps logo downloads; infobox logos are small rasters or
// SVGs, anything larger is not a logo.
const maxPreviewBytes = 2 << 20

// HTTPImageFetcher downloads preview images over plain HTTP GET.
type HTTPImageFetcher struct {
	http *http.Client
}

// NewHTTPImageFetcher creates an image fetcher with a bounded timeout.
func NewHTTPImageFetcher() *HTTPImageFetcher {
	return &HTTPImageFetcher{
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads the image at imageURL.
func (f *HTTPImageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "preview: create request")
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "preview: download")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("preview: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPreviewBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "preview: read body")
	}
	if len(data) > maxPreviewBytes {
		return nil, eris.Errorf("preview: image exceeds %d bytes", maxPreviewBytes)
	}
	return data, nil
}
