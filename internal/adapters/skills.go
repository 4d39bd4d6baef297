// Package adapters holds clients for external services. The only one today
// is the AI skill scorer, which turns a builder's delivery history into
// per-dimension skill assessments.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forgeline/forge-backend/internal/monitoring"
	"github.com/forgeline/forge-backend/internal/resilience"
	"github.com/forgeline/forge-backend/internal/types"
)

// SkillSignals is the merged evidence snapshot sent to the scorer.
type SkillSignals struct {
	BuilderID          string   `json:"builder_id"`
	Roles              []string `json:"roles"`
	Stacks             []string `json:"stacks"`
	TotalDeliveries    int      `json:"total_deliveries"`
	VerifiedDeliveries int      `json:"verified_deliveries"`
	ProjectCategories  []string `json:"project_categories"`
}

// SkillAssessment is the scorer's verdict for one builder.
type SkillAssessment struct {
	Skills        types.SkillScores `json:"skills"`
	Confidence    int               `json:"confidence"`
	Justification string            `json:"justification"`
}

// SkillScorerClient calls the external AI skill scorer over HTTP.
type SkillScorerClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	logger  *monitoring.Logger
	metrics *monitoring.Metrics
}

// NewSkillScorerClient creates a scorer client with retry and circuit
// breaker protection around the remote API.
func NewSkillScorerClient(baseURL, apiKey string, logger *monitoring.Logger, metrics *monitoring.Metrics) *SkillScorerClient {
	return &SkillScorerClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 3,
		}),
		retry:   resilience.SlowRetryConfig(),
		logger:  logger,
		metrics: metrics,
	}
}

// Assess posts the builder's signals to the scorer and returns the
// assessment. Scores and confidence are clamped to 0-100 regardless of
// what the scorer sends back.
func (c *SkillScorerClient) Assess(ctx context.Context, signals SkillSignals) (*SkillAssessment, error) {
	payload, err := json.Marshal(signals)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scorer request: %w", err)
	}

	start := time.Now()

	var resp *http.Response
	callErr := c.breaker.Call(func() error {
		var err error
		resp, err = resilience.RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
			return c.post(ctx, payload)
		})
		return err
	})

	duration := time.Since(start)

	if callErr != nil {
		c.record("POST", 0, duration, false)
		return nil, fmt.Errorf("skill scorer unavailable: %w", callErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.record("POST", resp.StatusCode, duration, false)
		return nil, fmt.Errorf("skill scorer error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var assessment SkillAssessment
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		c.record("POST", resp.StatusCode, duration, false)
		return nil, fmt.Errorf("failed to decode scorer response: %w", err)
	}

	c.record("POST", resp.StatusCode, duration, true)

	clampSkills(&assessment)
	return &assessment, nil
}

func (c *SkillScorerClient) post(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/assess", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.client.Do(req)
}

func (c *SkillScorerClient) record(method string, statusCode int, duration time.Duration, success bool) {
	if c.logger != nil {
		c.logger.ExternalAPILogger("skill_scorer", method, c.baseURL+"/v1/assess", statusCode, duration, success)
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPIRequest("skill_scorer", success)
	}
}

// BreakerStats exposes circuit state for the admin surface.
func (c *SkillScorerClient) BreakerStats() map[string]interface{} {
	return c.breaker.Stats()
}

func clampSkills(a *SkillAssessment) {
	a.Skills.Frontend = clamp100(a.Skills.Frontend)
	a.Skills.Backend = clamp100(a.Skills.Backend)
	a.Skills.Product = clamp100(a.Skills.Product)
	a.Skills.Design = clamp100(a.Skills.Design)
	a.Skills.Execution = clamp100(a.Skills.Execution)
	a.Confidence = clamp100(a.Confidence)
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
