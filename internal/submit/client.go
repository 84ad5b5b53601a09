package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

const (
	feedbackEndpoint = "/api/feedback"
	healthEndpoint   = "/health"
)

// Client talks to the feedback API on behalf of a kiosk. Submit makes
// exactly one attempt; retrying is the offline queue's job.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *AuthManager
	log        zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		auth:       NewAuthManager(baseURL, httpClient, log),
		log:        log.With().Str("component", "submit-client").Logger(),
	}
}

func (c *Client) Submit(ctx context.Context, rec model.Submission) error {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+feedbackEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Feedback-Source", string(model.SourceKiosk))

	c.log.Debug().Int64("id", rec.ID).Msg("Sending submission")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewRetryableError(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var ack model.SubmitResponse
		if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.Duplicate {
			c.log.Info().Int64("id", rec.ID).Msg("Server already had submission")
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return errors.NewRetryableError(fmt.Errorf("HTTP %d", resp.StatusCode), "feedback API unavailable")
	default:
		// Rejected by validation; resending the same record will not help.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", errors.ErrSubmitRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// Probe checks that the API answers its health endpoint.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthEndpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
