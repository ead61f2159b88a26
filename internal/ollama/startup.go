package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

const warmTimeout = 30 * time.Second

// ErrNotRunning means no Ollama server answered at the configured URL.
var ErrNotRunning = errors.New("Ollama is not running. Start it with: ollama serve")

// EnsureReady makes model usable as the local fallback: the server must
// be up, the model is pulled when missing, and one tiny request loads it
// into memory. Progress lines go to w. A failed warm-up is reported but
// not returned.
func EnsureReady(ctx context.Context, c *Client, model string, w io.Writer) error {
	if !c.IsRunning(ctx) {
		return ErrNotRunning
	}

	if !c.HasModel(ctx, model) {
		fmt.Fprintf(w, "model %s: pulling...\n", model)
		last := ""
		err := c.PullModel(ctx, model, func(p PullProgress) {
			line := p.Status
			if p.Total > 0 {
				line = fmt.Sprintf("%s %d%%", p.Status, p.Completed*100/p.Total)
			}
			if line != last {
				fmt.Fprintf(w, "  %s\n", line)
				last = line
			}
		})
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "model %s: ready\n", model)

	warmCtx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()
	ping := []Message{{Role: "user", Content: "hello"}}
	if _, err := c.Chat(warmCtx, model, ping, &Options{NumPredict: 1}); err != nil && !errors.Is(err, ErrEmptyReply) {
		fmt.Fprintf(w, "model %s: warm-up failed (non-fatal): %v\n", model, err)
		return nil
	}
	fmt.Fprintf(w, "model %s: warm\n", model)
	return nil
}
