package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/analytics"
)

const (
	metricsEndpoint = "/api/admin/metrics"
	exportEndpoint  = "/api/admin/export"
)

// Login sets the PIN used for admin calls and verifies it against the API.
func (c *Client) Login(ctx context.Context, pin string) error {
	c.auth.SetPin(pin)
	_, err := c.auth.GetToken(ctx)
	return err
}

func (c *Client) Metrics(ctx context.Context) (*analytics.Metrics, error) {
	resp, err := c.adminGet(ctx, metricsEndpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var metrics analytics.Metrics
	if err := json.NewDecoder(resp.Body).Decode(&metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return &metrics, nil
}

// Export streams the spreadsheet report into w.
func (c *Client) Export(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.adminGet(ctx, exportEndpoint)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return io.Copy(w, resp.Body)
}

func (c *Client) adminGet(ctx context.Context, endpoint string) (*http.Response, error) {
	token, err := c.auth.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	return resp, nil
}
