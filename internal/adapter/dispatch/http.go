// Package dispatch hands jobs to consumers over their HTTP endpoint.
package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/litscan/litscan/internal/domain"
)

// HTTPDispatcher posts a job to a consumer's submit-job endpoint. One attempt
// per tick; a failed dispatch leaves the job pending for the next tick.
type HTTPDispatcher struct {
	HTTP *http.Client
}

func New(timeout time.Duration) *HTTPDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{HTTP: &http.Client{Timeout: timeout}}
}

// Dispatch sends the job id to the consumer and expects 201.
func (d *HTTPDispatcher) Dispatch(ctx domain.Context, c domain.Consumer, jobID string) error {
	payload, err := json.Marshal(map[string]string{"job_id": jobID})
	if err != nil {
		return fmt.Errorf("op=dispatch.Dispatch: %w", err)
	}
	url := fmt.Sprintf("http://%s:%s/submit-job", c.IP, c.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("op=dispatch.Dispatch: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("op=dispatch.Dispatch: consumer %s: %w", c.IP, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("op=dispatch.Dispatch: consumer %s: unexpected status %d", c.IP, resp.StatusCode)
	}
	return nil
}
