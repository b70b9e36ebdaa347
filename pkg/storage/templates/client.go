package templates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/eventra-app/eventra-backend/pkg/logger"
)

// maxTemplateBytes bounds template downloads; certificate backgrounds are
// single raster images, anything larger indicates a misconfigured reference.
const maxTemplateBytes = 32 << 20

// Client resolves a template reference (http(s) URL or local file path) to
// the raw image bytes. Bytes are fetched once per batch and reused for every
// recipient.
type Client struct {
	httpClient *http.Client
	logg       *logger.Logger
}

// NewClient builds a template fetcher with the given per-fetch timeout.
func NewClient(timeout time.Duration, logg *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logg:       logg,
	}
}

// Fetch reads the template image bytes for the given reference.
func (c *Client) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("template reference is required")
	}

	parsed, err := url.Parse(ref)
	if err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		return c.fetchHTTP(ctx, ref)
	}
	return c.fetchFile(ref)
}

func (c *Client) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("building template request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching template: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && c.logg != nil {
			c.logg.Warn(ctx, "failed to close template response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching template: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading template body: %w", err)
	}
	if len(data) > maxTemplateBytes {
		return nil, fmt.Errorf("template exceeds %d bytes", maxTemplateBytes)
	}
	return data, nil
}

func (c *Client) fetchFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("locating template file: %w", err)
	}
	if info.Size() > maxTemplateBytes {
		return nil, fmt.Errorf("template exceeds %d bytes", maxTemplateBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	return data, nil
}
