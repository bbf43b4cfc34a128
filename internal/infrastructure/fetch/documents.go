package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"PaperScout/internal/ports"
)

const (
	userAgent       = "PaperScout/1.0"
	maxDocumentSize = 64 << 20
)

// HTTPDocuments downloads PDFs over HTTP.
type HTTPDocuments struct {
	client *http.Client
}

var _ ports.DocumentSource = (*HTTPDocuments)(nil)

// NewHTTPDocuments wires an HTTP client; nil uses a fresh client without
// a global timeout, since every call carries its own.
func NewHTTPDocuments(client *http.Client) *HTTPDocuments {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPDocuments{client: client}
}

// FetchDocument downloads url within timeout and returns the body.
func (h *HTTPDocuments) FetchDocument(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return body, nil
}
