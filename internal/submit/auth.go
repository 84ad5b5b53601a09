package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

const loginEndpoint = "/api/admin/login"

// AuthManager caches an admin token obtained with the dashboard PIN.
type AuthManager struct {
	baseURL   string
	client    *http.Client
	pin       string
	token     string
	expiresAt time.Time
	mu        sync.RWMutex
	log       zerolog.Logger
}

func NewAuthManager(baseURL string, client *http.Client, log zerolog.Logger) *AuthManager {
	return &AuthManager{
		baseURL: baseURL,
		client:  client,
		log:     log,
	}
}

func (a *AuthManager) SetPin(pin string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pin = pin
	a.token = ""
}

func (a *AuthManager) GetToken(ctx context.Context) (string, error) {
	a.mu.RLock()
	if a.token != "" && time.Now().Before(a.expiresAt.Add(-30*time.Second)) {
		token := a.token
		a.mu.RUnlock()
		return token, nil
	}
	a.mu.RUnlock()

	return a.refreshToken(ctx)
}

func (a *AuthManager) refreshToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.expiresAt.Add(-30*time.Second)) {
		return a.token, nil
	}
	if a.pin == "" {
		return "", fmt.Errorf("%w: no admin PIN configured", errors.ErrInvalidCredentials)
	}

	a.log.Debug().Msg("Requesting admin token")

	jsonData, err := json.Marshal(model.LoginRequest{Pin: a.pin})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+loginEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", errors.ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}

	var tokenResp model.AuthTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}

	a.token = tokenResp.Token
	a.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	a.log.Debug().Time("expires_at", a.expiresAt).Msg("Admin token acquired")

	return a.token, nil
}
