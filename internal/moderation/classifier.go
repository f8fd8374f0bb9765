package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/veriwork/trustengine/internal/domain"
)

// Result is the classifier's verdict on a piece of review text.
type Result struct {
	Approved      bool     `json:"approved"`
	ToxicityScore float64  `json:"toxicity_score"`
	FlaggedTerms  []string `json:"flagged_terms,omitempty"`
	Reasons       []string `json:"reasons,omitempty"`
}

// Classifier classifies review text. Implementations are expected to be
// slow and unreliable relative to the rest of the engine; callers bound the
// call with a timeout and treat errors as a fail-safe signal, never as
// approval.
type Classifier interface {
	Classify(ctx context.Context, text, language string) (*Result, error)
}

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPClassifier calls a remote classification service over HTTP.
type HTTPClassifier struct {
	client  HTTPDoer
	baseURL string
}

// NewHTTPClassifier creates a classifier client against the given base URL.
func NewHTTPClassifier(client HTTPDoer, baseURL string) *HTTPClassifier {
	return &HTTPClassifier{client: client, baseURL: baseURL}
}

type classifyRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Classify posts the text to the classification service. The per-call
// timeout is applied here so every caller gets the same bound.
func (c *HTTPClassifier) Classify(ctx context.Context, text, language string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, domain.ClassifierTimeout)
	defer cancel()

	payload, err := json.Marshal(classifyRequest{Text: text, Language: language})
	if err != nil {
		return nil, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	return &result, nil
}
