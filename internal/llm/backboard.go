package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	backboardAssistantName = "Care Assistant"
	backboardLLMProvider   = "openai"
	backboardModel         = "gpt-4o"
)

// backboardPrompt is installed once on the remote assistant. The per-turn
// system prompt built locally travels inside the message instead.
const backboardPrompt = `You are a calm, emotionally intelligent companion who speaks with one person over voice and remembers them across conversations.

Every reply is spoken aloud. Write the way people talk: one to four sentences, no markdown, no lists, no filler openers.

You are not a therapist or a medical professional and never claim to be.

Use what you remember about this person: their name, what comforts them, what worries them, how they like to be spoken to. Bring up earlier conversations only when it helps. If you do not know enough to personalize, ask one caring question to learn more.

Match their emotional register. Be gentle when they are hurting and relaxed when they are casual. Validate feelings in one sincere sentence rather than a paragraph. Ask follow-up questions sometimes, not after every reply.`

// Backboard is the memory-backed primary provider. The remote assistant
// and its thread are created on first use and reused for the process.
type Backboard struct {
	apiKey  string
	baseURL string
	hc      *http.Client

	mu          sync.Mutex
	assistantID string
	threadID    string
}

func NewBackboard(apiKey, baseURL string, hc *http.Client) *Backboard {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Backboard{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (b *Backboard) Name() string { return "Backboard" }

// Complete sends the newest user turn to the thread. Local context from
// the system prompt, everything from its first bracketed section on, is
// prefixed to the message so the remote model sees it.
func (b *Backboard) Complete(ctx context.Context, messages []Message) (string, error) {
	user := lastUser(messages)
	if user == "" {
		return "", fmt.Errorf("backboard: no user message")
	}
	_, threadID, err := b.ensureThread(ctx)
	if err != nil {
		return "", err
	}

	content := user
	if local := localContext(systemPrompt(messages)); local != "" {
		content = "[Local context for this user, use it to personalize your response]\n" +
			local + "\n\n[User says]: " + user
	}

	form := url.Values{}
	form.Set("content", content)
	form.Set("llm_provider", backboardLLMProvider)
	form.Set("model_name", backboardModel)
	form.Set("memory", "Auto")
	form.Set("stream", "false")

	var out struct {
		Content string `json:"content"`
	}
	err = doJSON(b.hc, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			b.baseURL+"/threads/"+url.PathEscape(threadID)+"/messages", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		b.auth(req)
		return req, nil
	}, &out)
	if err != nil {
		return "", fmt.Errorf("backboard message: %w", err)
	}
	return out.Content, nil
}

// StoreMemory adds a note to the assistant's long-term memory.
func (b *Backboard) StoreMemory(ctx context.Context, content string) error {
	assistantID, _, err := b.ensureThread(ctx)
	if err != nil {
		return err
	}
	err = b.postJSON(ctx, "/assistants/"+url.PathEscape(assistantID)+"/memories",
		map[string]string{"content": content}, nil)
	if err != nil {
		return fmt.Errorf("backboard memory: %w", err)
	}
	return nil
}

func (b *Backboard) ensureThread(ctx context.Context) (string, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.assistantID != "" && b.threadID != "" {
		return b.assistantID, b.threadID, nil
	}

	if b.assistantID == "" {
		var a struct {
			AssistantID string `json:"assistant_id"`
		}
		err := b.postJSON(ctx, "/assistants", map[string]string{
			"name":          backboardAssistantName,
			"system_prompt": backboardPrompt,
		}, &a)
		if err != nil {
			return "", "", fmt.Errorf("backboard create assistant: %w", err)
		}
		if a.AssistantID == "" {
			return "", "", fmt.Errorf("backboard create assistant: no id returned")
		}
		b.assistantID = a.AssistantID
	}

	var t struct {
		ThreadID string `json:"thread_id"`
	}
	err := b.postJSON(ctx, "/assistants/"+url.PathEscape(b.assistantID)+"/threads", map[string]string{}, &t)
	if err != nil {
		return "", "", fmt.Errorf("backboard create thread: %w", err)
	}
	if t.ThreadID == "" {
		return "", "", fmt.Errorf("backboard create thread: no id returned")
	}
	b.threadID = t.ThreadID
	return b.assistantID, b.threadID, nil
}

func (b *Backboard) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return doJSON(b.hc, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		b.auth(req)
		return req, nil
	}, out)
}

func (b *Backboard) auth(req *http.Request) {
	req.Header.Set("X-API-Key", b.apiKey)
}

// localContext returns the bracketed sections of a system prompt: the
// profile, schedule, memory and guidance blocks appended after the base
// identity text.
func localContext(system string) string {
	i := strings.Index(system, "\n[")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(system[i:])
}
