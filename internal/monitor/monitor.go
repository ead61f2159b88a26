// Package monitor periodically checks the memory store for medications
// and reminders that are due and hands one prompt at a time to an
// Announcer.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kalambet/kindred/internal/emotion"
	"github.com/kalambet/kindred/internal/memory"
	"github.com/kalambet/kindred/internal/metrics"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 30 * time.Second

// Kind labels a proactive prompt.
type Kind string

const (
	KindMedication Kind = "medication"
	KindReminder   Kind = "reminder"
)

// Prompt is one proactive utterance.
type Prompt struct {
	Kind Kind
	Text string
	Tone emotion.Tone

	// Set for KindMedication.
	Medication *memory.DueMedication
	// Set for KindReminder.
	Reminder *memory.Reminder
}

// Store is the slice of the memory store the monitor reads and writes.
type Store interface {
	DueMedications() []memory.DueMedication
	DueReminders() []memory.Reminder
	MarkReminderDelivered(id string) error
	LogEvent(eventType, details, snippet string) error
}

// Gate reports whether the companion is busy thinking or talking.
type Gate interface {
	Busy() bool
}

// Announcer delivers a prompt to the user.
type Announcer interface {
	Announce(ctx context.Context, p Prompt)
}

// Monitor is safe for concurrent use.
type Monitor struct {
	store     Store
	gate      Gate
	announcer Announcer
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	day      string
	prompted map[string]bool
}

// New returns a Monitor. A zero interval uses DefaultInterval; a nil gate
// is never busy.
func New(store Store, gate Gate, announcer Announcer, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		store:     store,
		gate:      gate,
		announcer: announcer,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
		prompted:  make(map[string]bool),
	}
}

// SetClock overrides the clock used to key per-day state.
func (m *Monitor) SetClock(now func() time.Time) { m.now = now }

// Run ticks every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", m.interval), func() {
		m.Tick(ctx, m.now())
	})
	if err != nil {
		return fmt.Errorf("scheduling monitor: %w", err)
	}
	c.Start()
	m.logger.Info("monitor started", "interval", m.interval)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Tick delivers at most one due item, medications before reminders. It
// reports whether anything was announced.
func (m *Monitor) Tick(ctx context.Context, now time.Time) bool {
	if ctx.Err() != nil {
		return false
	}
	if m.gate != nil && m.gate.Busy() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollDay(now)

	if p, ok := m.nextMedication(); ok {
		m.announce(ctx, p)
		return true
	}
	if p, ok := m.nextReminder(); ok {
		m.announce(ctx, p)
		return true
	}
	return false
}

func (m *Monitor) rollDay(now time.Time) {
	day := now.Format("2006-01-02")
	if day != m.day {
		m.day = day
		clear(m.prompted)
	}
}

func (m *Monitor) nextMedication() (Prompt, bool) {
	for _, due := range m.store.DueMedications() {
		key := "med:" + due.Medication.ID + "@" + due.ScheduledTime
		if m.prompted[key] {
			continue
		}
		m.prompted[key] = true

		med := due.Medication
		if err := m.store.LogEvent("medication_reminder",
			fmt.Sprintf("Reminded user about %s (%s) at %s", med.Name, med.Dosage, due.ScheduledTime), ""); err != nil {
			m.logger.Warn("logging medication reminder", "error", err)
		}
		return Prompt{
			Kind:       KindMedication,
			Text:       MedicationText(med),
			Tone:       emotion.ToneEncouragement,
			Medication: &due,
		}, true
	}
	return Prompt{}, false
}

func (m *Monitor) nextReminder() (Prompt, bool) {
	for _, r := range m.store.DueReminders() {
		key := "rem:" + r.ID
		if m.prompted[key] {
			continue
		}
		m.prompted[key] = true

		if err := m.store.MarkReminderDelivered(r.ID); err != nil {
			m.logger.Warn("marking reminder delivered", "id", r.ID, "error", err)
		}
		if err := m.store.LogEvent("reminder_delivered", "Delivered reminder: "+r.Content, ""); err != nil {
			m.logger.Warn("logging reminder delivery", "error", err)
		}
		return Prompt{
			Kind:     KindReminder,
			Text:     ReminderText(r),
			Tone:     emotion.ToneEncouragement,
			Reminder: &r,
		}, true
	}
	return Prompt{}, false
}

func (m *Monitor) announce(ctx context.Context, p Prompt) {
	metrics.ProactivePrompts.WithLabelValues(string(p.Kind)).Inc()
	m.logger.Info("proactive prompt", "kind", p.Kind, "text", p.Text)
	if m.announcer != nil {
		m.announcer.Announce(ctx, p)
	}
}

// MedicationText is the spoken nudge for a due medication.
func MedicationText(med memory.Medication) string {
	name := med.Name
	if name == "" {
		name = "medication"
	}
	var b strings.Builder
	b.WriteString("Hey, just a gentle reminder. It's time to take your ")
	b.WriteString(name)
	if med.Dosage != "" {
		b.WriteString(", " + med.Dosage)
	}
	b.WriteString(".")
	if med.Instructions != "" {
		b.WriteString(" Remember: " + med.Instructions)
	}
	return b.String()
}

// ReminderText is the spoken form of a due reminder.
func ReminderText(r memory.Reminder) string {
	content := r.Content
	if content == "" {
		content = "something"
	}
	return "Hey, you asked me to remind you: " + content
}
