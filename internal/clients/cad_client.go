package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// CADClient fetches the close-approach data set from the JPL SBDB CAD API.
type CADClient interface {
	Download(ctx context.Context, dest string) (int64, error)
	DownloadIfMissing(ctx context.Context, dest string) (bool, error)
}

type cadClient struct {
	url    string
	client *http.Client
}

func NewCADClient(url string) CADClient {
	return &cadClient{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConns:    2,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}
}

// Download writes the API response to dest, replacing it atomically.
func (c *cadClient) Download(ctx context.Context, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "neowatch/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("CAD API returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".cad-*.json")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("read response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("move %s into place: %w", dest, err)
	}
	return n, nil
}

// DownloadIfMissing downloads only when dest does not exist yet.
func (c *cadClient) DownloadIfMissing(ctx context.Context, dest string) (bool, error) {
	_, err := os.Stat(dest)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", dest, err)
	}

	if _, err := c.Download(ctx, dest); err != nil {
		return false, err
	}
	return true, nil
}
