package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds a single snapshot request
const DefaultHTTPTimeout = 15 * time.Second

// HTTPSource fetches the snapshot with a GET request
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource. A nil client gets a dedicated one with
// the given timeout (DefaultHTTPTimeout when zero).
func NewHTTPSource(url string, client *http.Client, timeout time.Duration) *HTTPSource {
	if client == nil {
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPSource{url: url, client: client}
}

// Fetch issues the request. Non-2xx responses yield a *StatusError.
func (s *HTTPSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp.Body, nil
}

func (s *HTTPSource) String() string {
	return s.url
}
