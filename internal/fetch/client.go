package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/KaramelBytes/ccsdb/internal/utils"
)

// Getter retrieves a resource by location. Implementations must be safe for
// use from multiple goroutines.
type Getter interface {
	Get(ctx context.Context, location string) ([]byte, error)
}

// Client reads resources from local paths or over plain HTTP GET.
// There is no retry here: callers that need retry semantics own them.
type Client struct {
	httpClient *http.Client
	// MaxBytes caps the size of a single resource; 0 means 64 MiB.
	MaxBytes int64
}

// NewClient returns a client with the given HTTP timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// NewClientWithHTTP allows injecting a custom http.Client (used in tests).
func NewClientWithHTTP(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{httpClient: hc}
}

// Get reads the whole resource.
func (c *Client) Get(ctx context.Context, location string) ([]byte, error) {
	if !utils.IsRemote(location) {
		b, err := os.ReadFile(location)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &NotFoundError{Location: location, Err: err}
			}
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return b, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		host := ""
		if u, perr := url.Parse(location); perr == nil {
			host = u.Host
		}
		return nil, &UnreachableError{Host: host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Location: location}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: location, StatusCode: resp.StatusCode, Body: string(b)}
	}
	limit := c.MaxBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrTooLarge, location, limit)
	}
	return b, nil
}
