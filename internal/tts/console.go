package tts

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kalambet/kindred/internal/emotion"
)

// Console prints the text instead of speaking it. It never fails, so it
// belongs last in a Chain.
type Console struct {
	w io.Writer
}

// NewConsole writes to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) Name() string { return "Console" }

func (c *Console) Synthesize(_ context.Context, text string, _ emotion.Tone) (Audio, error) {
	fmt.Fprintf(c.w, "[SPOKEN TEXT] %s\n", text)
	return Audio{}, nil
}
