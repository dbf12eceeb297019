package jwks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher is the injected HTTP capability used to retrieve a key set
// payload. It is invoked exactly once per cache fill, with method GET and
// no body. Timeouts and cancellation belong to the Fetcher (or the
// http.Client behind it), not to the cache.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// HTTPFetcher is the standard Fetcher implementation backed by an
// http.Client.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher. A nil client gets a default with a
// 30 second timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

// Fetch performs a GET against uri and returns the response body.
// Responses are capped at 1MB, which is generous for a JWKS document
// (typically <10KB).
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request for %s: %w", uri, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request to %s returned status %d, expected 200", uri, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("could not read response from %s: %w", uri, err)
	}

	return body, nil
}
