package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	hc          *http.Client
}

func NewGemini(apiKey, model string, maxTokens int, temperature float64, hc *http.Client) *Gemini {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Gemini{
		apiKey:      apiKey,
		model:       model,
		baseURL:     geminiBaseURL,
		maxTokens:   maxTokens,
		temperature: temperature,
		hc:          hc,
	}
}

func (g *Gemini) Name() string { return "Gemini" }

func (g *Gemini) Complete(ctx context.Context, messages []Message) (string, error) {
	var req geminiRequest
	var turns []geminiContent
	for _, m := range messages {
		if m.Role == RoleSystem {
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
			continue
		}
		role := "model"
		if m.Role == RoleUser {
			role = "user"
		}
		turns = append(turns, geminiContent{Role: role, Parts: []geminiPart{{Text: m.Content}}})
	}
	req.Contents = alternate(turns)
	req.GenerationConfig.Temperature = g.temperature
	req.GenerationConfig.MaxOutputTokens = g.maxTokens

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(g.baseURL, "/") + "/models/" + url.PathEscape(g.model) + ":generateContent"

	var out geminiResponse
	err = doJSON(g.hc, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("x-goog-api-key", g.apiKey)
		return r, nil
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// alternate merges consecutive same-role turns and makes sure the
// conversation opens with a user turn, as generateContent requires.
func alternate(turns []geminiContent) []geminiContent {
	if len(turns) == 0 {
		return []geminiContent{{Role: "user", Parts: []geminiPart{{Text: "Hello."}}}}
	}
	out := []geminiContent{turns[0]}
	for _, t := range turns[1:] {
		last := &out[len(out)-1]
		if t.Role == last.Role {
			last.Parts = []geminiPart{{Text: last.Parts[0].Text + "\n" + t.Parts[0].Text}}
			continue
		}
		out = append(out, t)
	}
	if out[0].Role != "user" {
		out = append([]geminiContent{{Role: "user", Parts: []geminiPart{{Text: "Continue."}}}}, out...)
	}
	return out
}
