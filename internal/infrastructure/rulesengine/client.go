package rulesengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/scanlens/backend/internal/domain"
)

const maxResponseBody = 1 << 20

// Client posts compliance fields to an external rules engine
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a rules engine client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Evaluate sends fields to POST {baseURL}/evaluate and returns the verdict
func (c *Client) Evaluate(ctx context.Context, fields domain.ComplianceFields) (*domain.ComplianceReport, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRulesEngineFailure, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrRulesEngineFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[RulesEngine] Evaluate failed - Status: %d, Body: %s", resp.StatusCode, string(payload))
		return nil, fmt.Errorf("%w: status %d", domain.ErrRulesEngineFailure, resp.StatusCode)
	}

	var report domain.ComplianceReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if report.Issues == nil {
		report.Issues = []domain.ComplianceIssue{}
	}
	return &report, nil
}
