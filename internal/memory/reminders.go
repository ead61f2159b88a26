package memory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Reminder struct {
	ID                 string `json:"id"`
	Content            string `json:"content"`
	RemindTime         string `json:"remind_time"` // "HH:MM" daily, or "YYYY-MM-DDTHH:MM" once
	Recurring          bool   `json:"recurring"`
	RecurrenceInterval string `json:"recurrence_interval"`
	Status             string `json:"status"`
	Created            string `json:"created"`
	LastDelivered      string `json:"last_delivered"`
}

// RemindersDoc is the on-disk shape of reminders.json.
type RemindersDoc struct {
	Reminders []Reminder `json:"reminders"`
}

func (s *Store) reminders() RemindersDoc {
	var doc RemindersDoc
	readDoc(s, remindersFile, &doc)
	if doc.Reminders == nil {
		doc.Reminders = []Reminder{}
	}
	return doc
}

// AddReminder stores an active reminder and returns its id.
func (s *Store) AddReminder(content, remindTime string, recurring bool, interval string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if interval == "" && recurring {
		interval = "daily"
	}
	r := Reminder{
		ID:                 shortID("rem-"),
		Content:            content,
		RemindTime:         remindTime,
		Recurring:          recurring,
		RecurrenceInterval: interval,
		Status:             StatusActive,
		Created:            s.timestamp(),
	}
	doc := s.reminders()
	doc.Reminders = append(doc.Reminders, r)
	if err := writeDoc(s, remindersFile, doc); err != nil {
		return "", err
	}
	return r.ID, nil
}

// SaveReminders replaces the whole reminders document.
func (s *Store) SaveReminders(doc RemindersDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDoc(s, remindersFile, doc)
}

// Reminders returns every reminder regardless of status.
func (s *Store) Reminders() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reminders().Reminders
}

func (s *Store) ActiveReminders() []Reminder {
	var out []Reminder
	for _, r := range s.Reminders() {
		if r.Status == StatusActive {
			out = append(out, r)
		}
	}
	return out
}

// DueReminders returns active reminders whose time fell within the last
// ReminderWindow and that were not delivered today. Reminders without a
// time or with an unparseable one are skipped.
func (s *Store) DueReminders() []Reminder {
	now := s.now()
	today := now.Format(dateLayout)

	var due []Reminder
	for _, r := range s.ActiveReminders() {
		if r.LastDelivered != "" && strings.HasPrefix(r.LastDelivered, today) {
			continue
		}
		at, ok := reminderTime(now, r.RemindTime)
		if !ok {
			continue
		}
		if diff := now.Sub(at); diff >= 0 && diff <= ReminderWindow {
			due = append(due, r)
		}
	}
	return due
}

func reminderTime(now time.Time, rt string) (time.Time, bool) {
	switch {
	case len(rt) == 5 && strings.Contains(rt, ":"):
		return slotTime(now, rt)
	case strings.Contains(rt, "T"):
		t, err := time.ParseInLocation("2006-01-02T15:04", rt, now.Location())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// MarkReminderDelivered records delivery. One-time reminders complete;
// recurring ones stay active.
func (s *Store) MarkReminderDelivered(id string) error {
	return s.updateReminder(id, func(r *Reminder) {
		r.LastDelivered = s.timestamp()
		if !r.Recurring {
			r.Status = StatusCompleted
		}
	})
}

// CancelReminder soft-deletes a reminder.
func (s *Store) CancelReminder(id string) error {
	return s.updateReminder(id, func(r *Reminder) {
		r.Status = StatusCancelled
	})
}

func (s *Store) updateReminder(id string, fn func(*Reminder)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.reminders()
	for i := range doc.Reminders {
		if doc.Reminders[i].ID == id {
			fn(&doc.Reminders[i])
			return writeDoc(s, remindersFile, doc)
		}
	}
	return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
}

// ValidateReminderTime checks a remind time before it is stored. Daily
// reminders take "HH:MM"; one-off reminders may also take
// "YYYY-MM-DDTHH:MM" or no time at all.
func ValidateReminderTime(at string, recurring bool) error {
	if at == "" {
		if recurring {
			return errors.New("recurring reminders need a time")
		}
		return nil
	}
	if _, err := time.Parse("15:04", at); err == nil {
		return nil
	}
	if recurring {
		return fmt.Errorf("invalid time %q: recurring reminders take HH:MM", at)
	}
	if _, err := time.Parse("2006-01-02T15:04", at); err != nil {
		return fmt.Errorf("invalid time %q: want HH:MM or YYYY-MM-DDTHH:MM", at)
	}
	return nil
}
