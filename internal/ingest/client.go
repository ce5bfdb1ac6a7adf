package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// Source is where a table is read from: a local path or an http(s) URL.
type Source struct {
	Location string
	Client   HTTPClient
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Open reads the whole source. A failure here is fatal for the load; there
// is no retry.
func (s Source) Open(ctx context.Context) (io.Reader, error) {
	if s.Location == "" {
		return nil, errors.New("empty source")
	}
	if !isURL(s.Location) {
		b, err := os.ReadFile(s.Location)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", s.Location, err)
		}
		return bytes.NewReader(b), nil
	}
	c := s.Client
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.Location, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch %s: non-2xx: %d body=%s", s.Location, resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Location, err)
	}
	return bytes.NewReader(b), nil
}
