package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/kindred/internal/memory"
	"github.com/kalambet/kindred/internal/outbox"
	"github.com/kalambet/kindred/internal/storage"
)

// --- helpers ---

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestDeps(t *testing.T) (Deps, *storage.Store) {
	t.Helper()
	now := time.Date(2026, 3, 14, 8, 5, 0, 0, time.Local)
	mem, err := memory.OpenWithClock(t.TempDir(), fixedClock{now})
	if err != nil {
		t.Fatalf("opening memory store: %v", err)
	}
	jobs, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { jobs.Close() })

	return Deps{Store: mem, Outbox: outbox.NewQueue(jobs)}, jobs
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func mustOK(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	return text
}

func pending(t *testing.T, jobs *storage.Store) int {
	t.Helper()
	p, err := jobs.PendingJobs(outbox.JobType)
	if err != nil {
		t.Fatal(err)
	}
	return len(p)
}

// --- tests ---

func TestNew_RegistersTools(t *testing.T) {
	deps, _ := newTestDeps(t)
	s := New(deps)

	want := []string{
		"add_memory", "search_memories", "recent_memories",
		"add_reminder", "list_reminders", "cancel_reminder",
		"list_medications", "log_medication", "get_profile",
	}
	tools := s.ListTools()
	for _, name := range want {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestAddAndSearchMemories(t *testing.T) {
	deps, jobs := newTestDeps(t)

	mustOK(t, call(t, addMemory(deps), map[string]any{
		"content": "Loves gardening on Sundays",
		"tags":    []string{"hobby"},
	}))
	mustOK(t, call(t, addMemory(deps), map[string]any{"content": "Daughter lives in Lyon"}))

	var found []memory.Memory
	text := mustOK(t, call(t, searchMemories(deps), map[string]any{"query": "HOBBY"}))
	if err := json.Unmarshal([]byte(text), &found); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if len(found) != 1 || found[0].Content != "Loves gardening on Sundays" || found[0].Source != "mcp" {
		t.Errorf("found = %+v", found)
	}

	text = mustOK(t, call(t, searchMemories(deps), map[string]any{"query": "nothing like this"}))
	if text != "[]" {
		t.Errorf("empty search = %s, want []", text)
	}

	if n := pending(t, jobs); n != 2 {
		t.Errorf("outbox jobs = %d, want 2", n)
	}
}

func TestAddMemory_RequiresContent(t *testing.T) {
	deps, _ := newTestDeps(t)
	if r := call(t, addMemory(deps), map[string]any{}); !r.IsError {
		t.Error("expected error without content")
	}
}

func TestRecentMemories_Limit(t *testing.T) {
	deps, _ := newTestDeps(t)
	for _, c := range []string{"one", "two", "three"} {
		if err := deps.Store.AddMemory(c, "user"); err != nil {
			t.Fatal(err)
		}
	}

	var got []memory.Memory
	text := mustOK(t, call(t, recentMemories(deps), map[string]any{"limit": 2}))
	json.Unmarshal([]byte(text), &got)
	if len(got) != 2 || got[0].Content != "three" {
		t.Errorf("recent = %+v, want newest two", got)
	}
}

func TestReminders_AddListCancel(t *testing.T) {
	deps, jobs := newTestDeps(t)

	text := mustOK(t, call(t, addReminder(deps), map[string]any{
		"content":   "water the plants",
		"time":      "18:00",
		"recurring": true,
	}))
	id := strings.TrimPrefix(text, "Stored reminder ")
	if !strings.HasPrefix(id, "rem-") {
		t.Fatalf("unexpected response: %s", text)
	}

	var listed []memory.Reminder
	json.Unmarshal([]byte(mustOK(t, call(t, listReminders(deps), nil))), &listed)
	if len(listed) != 1 || listed[0].ID != id || !listed[0].Recurring || listed[0].RecurrenceInterval != "daily" {
		t.Fatalf("listed = %+v", listed)
	}

	mustOK(t, call(t, cancelReminder(deps), map[string]any{"id": id}))
	if text := mustOK(t, call(t, listReminders(deps), nil)); text != "[]" {
		t.Errorf("active after cancel = %s", text)
	}
	json.Unmarshal([]byte(mustOK(t, call(t, listReminders(deps), map[string]any{"all": true}))), &listed)
	if len(listed) != 1 || listed[0].Status != memory.StatusCancelled {
		t.Errorf("all = %+v", listed)
	}

	if n := pending(t, jobs); n != 1 {
		t.Errorf("outbox jobs = %d, want 1", n)
	}
}

func TestAddReminder_ValidatesTime(t *testing.T) {
	tests := []struct {
		time      string
		recurring bool
		wantErr   bool
	}{
		{"", false, false},
		{"", true, true},
		{"07:30", true, false},
		{"2026-03-15T09:00", false, false},
		{"2026-03-15T09:00", true, true},
		{"tomorrow", false, true},
		{"25:00", false, true},
	}
	for _, tt := range tests {
		deps, _ := newTestDeps(t)
		r := call(t, addReminder(deps), map[string]any{"content": "x", "time": tt.time, "recurring": tt.recurring})
		if r.IsError != tt.wantErr {
			t.Errorf("time=%q recurring=%v: IsError = %v, want %v (%s)", tt.time, tt.recurring, r.IsError, tt.wantErr, resultText(t, r))
		}
	}
}

func TestCancelReminder_NotFound(t *testing.T) {
	deps, _ := newTestDeps(t)
	r := call(t, cancelReminder(deps), map[string]any{"id": "rem-missing"})
	if !r.IsError || !strings.Contains(resultText(t, r), "not found") {
		t.Errorf("result = %s", resultText(t, r))
	}
}

func TestMedications_ListAndLog(t *testing.T) {
	deps, jobs := newTestDeps(t)
	med, err := deps.Store.AddMedication(memory.Medication{Name: "Metformin", Dosage: "500mg", Schedule: []string{"08:00", "20:00"}})
	if err != nil {
		t.Fatal(err)
	}

	var listed []medicationView
	json.Unmarshal([]byte(mustOK(t, call(t, listMedications(deps), nil))), &listed)
	if len(listed) != 1 || strings.Join(listed[0].DueNow, ",") != "08:00" {
		t.Fatalf("listed = %+v, want 08:00 due", listed)
	}

	text := mustOK(t, call(t, logMedication(deps), map[string]any{"medication_id": med.ID}))
	if text != "Logged Metformin as taken" {
		t.Errorf("response = %q", text)
	}

	log := deps.Store.LoadMedications().TakenLog
	if len(log) != 1 || log[0].ScheduledTime != "08:00" || log[0].Status != "taken" {
		t.Errorf("taken log = %+v", log)
	}
	if len(deps.Store.DueMedications()) != 0 {
		t.Error("slot still due after logging")
	}
	if n := pending(t, jobs); n != 1 {
		t.Errorf("outbox jobs = %d, want 1", n)
	}
}

func TestLogMedication_Skipped(t *testing.T) {
	deps, jobs := newTestDeps(t)
	med, _ := deps.Store.AddMedication(memory.Medication{Name: "Vitamin D", Schedule: []string{"20:00"}})

	mustOK(t, call(t, logMedication(deps), map[string]any{
		"medication_id":  med.ID,
		"scheduled_time": "20:00",
		"status":         "skipped",
		"notes":          "out of pills",
	}))
	log := deps.Store.LoadMedications().TakenLog
	if len(log) != 1 || log[0].Status != "skipped" || log[0].Notes != "out of pills" {
		t.Errorf("taken log = %+v", log)
	}
	if n := pending(t, jobs); n != 0 {
		t.Errorf("outbox jobs = %d, want 0 for a skipped dose", n)
	}
}

func TestLogMedication_Unknown(t *testing.T) {
	deps, _ := newTestDeps(t)
	if r := call(t, logMedication(deps), map[string]any{"medication_id": "med-nope"}); !r.IsError {
		t.Error("expected error for unknown medication")
	}
}

func TestGetProfile(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Store.UpdateProfile("preferred_name", "Ada")
	deps.Store.SetPreference("music", "jazz")

	var got struct {
		Profile     map[string]any `json:"profile"`
		Preferences map[string]struct {
			Value string `json:"value"`
		} `json:"preferences"`
	}
	if err := json.Unmarshal([]byte(mustOK(t, call(t, getProfile(deps), nil))), &got); err != nil {
		t.Fatal(err)
	}
	if got.Profile["preferred_name"] != "Ada" || got.Preferences["music"].Value != "jazz" {
		t.Errorf("got %+v", got)
	}
}

func TestProfileResource(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Store.UpdateProfile("preferred_name", "Ada")

	contents, err := profileResource(deps)(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "user://profile"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.MIMEType != "application/json" || !strings.Contains(tc.Text, `"preferred_name":"Ada"`) {
		t.Errorf("resource = %+v", tc)
	}
}
