// Package mcpserver exposes the companion's memory store to MCP clients
// as tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/kindred/internal/memory"
	"github.com/kalambet/kindred/internal/outbox"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Deps holds dependencies for the MCP server.
type Deps struct {
	Store   *memory.Store
	Outbox  *outbox.Queue // optional; notes are not synced when nil
	Version string
	Logger  *slog.Logger
}

// New creates an MCP server with the memory, reminder, medication and
// profile tools registered.
func New(deps Deps) *server.MCPServer {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := server.NewMCPServer(
		"kindred",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("kindred: the voice companion's memory. Notes, reminders, medications and what it knows about its user."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("add_memory",
			mcp.WithDescription("Store a note about the user for the companion to remember."),
			mcp.WithString("content", mcp.Description("The note"), mcp.Required()),
			mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.WithStringItems()),
		),
		addMemory(deps),
	)
	s.AddTool(
		mcp.NewTool("search_memories",
			mcp.WithDescription("Find notes whose content or tags contain the query, case-insensitively."),
			mcp.WithString("query", mcp.Description("Text to look for"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		searchMemories(deps),
	)
	s.AddTool(
		mcp.NewTool("recent_memories",
			mcp.WithDescription("Return the newest notes first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		recentMemories(deps),
	)
	s.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Schedule a reminder the companion will speak when it is due."),
			mcp.WithString("content", mcp.Description("What to remind the user about"), mcp.Required()),
			mcp.WithString("time", mcp.Description("HH:MM for a daily time, or YYYY-MM-DDTHH:MM for a single date")),
			mcp.WithBoolean("recurring", mcp.Description("Repeat every day at HH:MM")),
		),
		addReminder(deps),
	)
	s.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List active reminders."),
			mcp.WithBoolean("all", mcp.Description("Include completed and cancelled reminders")),
		),
		listReminders(deps),
	)
	s.AddTool(
		mcp.NewTool("cancel_reminder",
			mcp.WithDescription("Cancel a reminder by id."),
			mcp.WithString("id", mcp.Description("Reminder id"), mcp.Required()),
		),
		cancelReminder(deps),
	)
	s.AddTool(
		mcp.NewTool("list_medications",
			mcp.WithDescription("List medications with their schedules and today's due slots."),
		),
		listMedications(deps),
	)
	s.AddTool(
		mcp.NewTool("log_medication",
			mcp.WithDescription("Record that a scheduled dose was taken, skipped or missed."),
			mcp.WithString("medication_id", mcp.Description("Medication id"), mcp.Required()),
			mcp.WithString("scheduled_time", mcp.Description("Schedule slot HH:MM (defaults to the slot currently due)")),
			mcp.WithString("status", mcp.Description("taken, skipped or missed (default taken)"), mcp.Enum("taken", "skipped", "missed")),
			mcp.WithString("notes", mcp.Description("Optional notes")),
		),
		logMedication(deps),
	)
	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Return the user profile and learned preferences."),
		),
		getProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Current user profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		profileResource(deps),
	)
	s.AddResource(
		mcp.NewResource(
			"user://today",
			"Today's Activity",
			mcp.WithResourceDescription("Events and moods logged today"),
			mcp.WithMIMEType("application/json"),
		),
		todayResource(deps),
	)

	return s
}

func addMemory(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil || content == "" {
			return toolError("content is required"), nil
		}
		tags := req.GetStringSlice("tags", nil)

		if err := deps.Store.AddMemory(content, "mcp", tags...); err != nil {
			return toolError(fmt.Sprintf("failed to save: %v", err)), nil
		}
		if err := deps.Outbox.Enqueue("memory", content); err != nil {
			deps.Logger.Warn("queueing memory sync", "error", err)
		}
		return toolText("Stored memory"), nil
	}
}

func searchMemories(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil || query == "" {
			return toolError("query is required"), nil
		}
		mems := deps.Store.SearchMemories(query)
		if n := limit(req); len(mems) > n {
			mems = mems[len(mems)-n:]
		}
		return toolJSON(nonNil(mems))
	}
}

func recentMemories(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolJSON(nonNil(deps.Store.RecentMemories(limit(req))))
	}
}

func addReminder(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil || content == "" {
			return toolError("content is required"), nil
		}
		at := req.GetString("time", "")
		recurring := req.GetBool("recurring", false)

		if err := memory.ValidateReminderTime(at, recurring); err != nil {
			return toolError(err.Error()), nil
		}

		id, err := deps.Store.AddReminder(content, at, recurring, "")
		if err != nil {
			return toolError(fmt.Sprintf("failed to save reminder: %v", err)), nil
		}
		note := "Reminder: " + content
		if at != "" {
			note += " at " + at
		}
		if err := deps.Outbox.Enqueue("reminder", note); err != nil {
			deps.Logger.Warn("queueing reminder sync", "error", err)
		}
		return toolText(fmt.Sprintf("Stored reminder %s", id)), nil
	}
}

func listReminders(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rs := deps.Store.ActiveReminders()
		if req.GetBool("all", false) {
			rs = deps.Store.Reminders()
		}
		return toolJSON(nonNil(rs))
	}
}

func cancelReminder(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil || id == "" {
			return toolError("id is required"), nil
		}
		if err := deps.Store.CancelReminder(id); err != nil {
			if errors.Is(err, memory.ErrNotFound) {
				return toolError(fmt.Sprintf("reminder %s not found", id)), nil
			}
			return toolError(fmt.Sprintf("failed to cancel: %v", err)), nil
		}
		return toolText(fmt.Sprintf("Cancelled reminder %s", id)), nil
	}
}

type medicationView struct {
	memory.Medication
	DueNow []string `json:"due_now,omitempty"`
}

func listMedications(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		due := make(map[string][]string)
		for _, d := range deps.Store.DueMedications() {
			due[d.Medication.ID] = append(due[d.Medication.ID], d.ScheduledTime)
		}
		meds := deps.Store.LoadMedications().Medications
		out := make([]medicationView, len(meds))
		for i, m := range meds {
			out[i] = medicationView{Medication: m, DueNow: due[m.ID]}
		}
		return toolJSON(out)
	}
}

func logMedication(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("medication_id")
		if err != nil || id == "" {
			return toolError("medication_id is required"), nil
		}
		med, err := deps.Store.Medication(id)
		if err != nil {
			return toolError(fmt.Sprintf("medication %s not found", id)), nil
		}

		slot := req.GetString("scheduled_time", "")
		if slot == "" {
			slot = deps.Store.DueSlot(id)
		}
		status := req.GetString("status", "taken")
		notes := req.GetString("notes", "")

		if err := deps.Store.LogMedicationTaken(id, slot, "", status, notes); err != nil {
			return toolError(fmt.Sprintf("failed to log: %v", err)), nil
		}
		if status == "taken" {
			if err := deps.Outbox.Enqueue("medication", fmt.Sprintf("User took %s (%s)", med.Name, slot)); err != nil {
				deps.Logger.Warn("queueing medication sync", "error", err)
			}
		}
		return toolText(fmt.Sprintf("Logged %s as %s", med.Name, status)), nil
	}
}

type profileView struct {
	Profile     memory.Profile                    `json:"profile"`
	Preferences map[string]memory.PreferenceEntry `json:"preferences"`
}

func currentProfile(s *memory.Store) profileView {
	return profileView{Profile: s.Profile(), Preferences: s.Preferences()}
}

func getProfile(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolJSON(currentProfile(deps.Store))
	}
}

func profileResource(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(req.Params.URI, currentProfile(deps.Store))
	}
}

func todayResource(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		day, _ := deps.Store.ActivityFor(time.Now().Format("2006-01-02"))
		return jsonResource(req.Params.URI, day)
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func limit(req mcp.CallToolRequest) int {
	n := req.GetInt("limit", defaultLimit)
	if n <= 0 {
		n = defaultLimit
	}
	return min(n, maxLimit)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return toolText(string(b)), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
