// Package his pushes scheduling results to the hospital information
// system's REST API.
package his

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ayurmitra/scheduler/auth"
	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/infra/logger"
)

// Config describes the hospital information system endpoint.
type Config struct {
	Enabled bool   `json:"enabled"`
	BaseURL string `json:"base_url"`
	// TimeoutMS bounds each request; 0 means 5000.
	TimeoutMS int       `json:"timeout_ms"`
	Auth      auth.Conf `json:"auth"`
}

// Notifier delivers run results to the hospital system. A nil Notifier is
// safe to call and does nothing.
type Notifier struct {
	client  *http.Client
	baseURL string
	cred    *auth.ClientCred
	log     logger.Logger
}

// New creates a Notifier. Bearer authentication is used when a token URL is
// configured.
func New(cfg Config, log logger.Logger) *Notifier {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	n := &Notifier{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     log,
	}
	if cfg.Auth.TokenURL != "" {
		n.cred = auth.NewClientCred(cfg.Auth)
	}
	return n
}

// NotifyRun posts the full run result to /api/scheduling/runs.
func (n *Notifier) NotifyRun(ctx context.Context, result *engine.Result) error {
	if n == nil {
		return nil
	}
	return n.post(ctx, "/api/scheduling/runs", result)
}

func (n *Notifier) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cred != nil {
		if err := n.cred.SetAuthHeader(req); err != nil {
			return fmt.Errorf("authorize request: %w", err)
		}
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}
