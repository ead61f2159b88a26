package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const maxRetries = 3

// retryBackoff is the first wait after a 429; it doubles per attempt.
var retryBackoff = 500 * time.Millisecond

// rateLimitError is returned on HTTP 429.
type rateLimitError struct {
	status int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", e.status)
}

// doJSON sends the request built by newReq and decodes a 2xx JSON body
// into out. Rate-limited calls are retried with exponential backoff while
// the request context allows.
func doJSON(hc *http.Client, newReq func() (*http.Request, error), out any) error {
	var lastErr error
	for attempt := range maxRetries {
		req, err := newReq()
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		err = doOnce(hc, req, out)
		if err == nil {
			return nil
		}
		if _, ok := err.(*rateLimitError); !ok {
			return err
		}
		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(retryBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-req.Context().Done():
				return req.Context().Err()
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

func doOnce(hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &rateLimitError{status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
