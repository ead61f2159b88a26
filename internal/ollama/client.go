// Package ollama talks to a local Ollama server. It is the reply provider
// of last resort: it runs without network access or API keys, so the
// companion can still answer when every cloud model is down.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	probeTimeout = 2 * time.Second
	listTimeout  = 10 * time.Second

	// keepAlive holds the model in memory between fallback replies, which
	// may be far apart.
	keepAlive = "30m"
)

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("ollama: empty reply")

// Message is one chat turn in Ollama's wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are sampling options for /api/chat. Zero values leave the
// model's defaults in place.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

// Client calls one Ollama instance.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New returns a client for baseURL. A nil httpClient means one without a
// timeout; callers bound calls with ctx.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: httpClient}
}

// do sends a JSON request and returns the response when it is a 200.
// Otherwise it closes the body and reports the server's error message.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		if apiErr.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

type tagsResponse struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	Name string `json:"name"`
}

// IsRunning reports whether the server answers at all.
func (c *Client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// ListModels returns the names of the locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HasModel reports whether name is installed. "llama3.2" matches an
// installed "llama3.2:latest".
func (c *Client) HasModel(ctx context.Context, name string) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if base, _, _ := strings.Cut(m, ":"); m == name || base == name {
			return true
		}
	}
	return false
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// PullProgress is one line of a streamed pull.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}

// PullModel downloads name and calls onProgress, when non-nil, for each
// progress line until the stream ends.
func (c *Client) PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/pull", pullRequest{Name: name, Stream: true})
	if err != nil {
		return fmt.Errorf("pulling %s: %w", name, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	for {
		var p PullProgress
		err := dec.Decode(&p)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading pull progress: %w", err)
		}
		if onProgress != nil {
			onProgress(p)
		}
	}
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	KeepAlive string    `json:"keep_alive,omitempty"`
	Options   *Options  `json:"options,omitempty"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Chat returns the model's reply to messages without streaming.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, opts *Options) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{
		Model:     model,
		Messages:  messages,
		KeepAlive: keepAlive,
		Options:   opts,
	})
	if err != nil {
		return "", fmt.Errorf("chat with %s: %w", model, err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding chat reply: %w", err)
	}
	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
