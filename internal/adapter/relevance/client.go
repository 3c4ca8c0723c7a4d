// Package relevance is the HTTP client for the abstract classifier service.
package relevance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/litscan/litscan/internal/domain"
)

// Client calls the inference endpoint that scores abstracts with the
// pre-trained text classifier.
type Client struct {
	URL  string
	HTTP *http.Client
}

func New(url string) *Client {
	return &Client{URL: url, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	RNARelated  bool    `json:"rna_related"`
	Probability float64 `json:"probability"`
}

// Classify submits a cleaned abstract and returns the model's verdict.
func (c *Client) Classify(ctx domain.Context, text string) (bool, float64, error) {
	payload, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return false, 0, fmt.Errorf("op=relevance.Classify: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return false, 0, fmt.Errorf("op=relevance.Classify: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, 0, fmt.Errorf("op=relevance.Classify: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return false, 0, fmt.Errorf("op=relevance.Classify: unexpected status %d", resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, 0, fmt.Errorf("op=relevance.Classify: %w", err)
	}
	return decoded.RNARelated, decoded.Probability, nil
}
