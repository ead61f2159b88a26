package memory

import (
	"fmt"
	"time"
)

// Due windows after a scheduled time.
const (
	MedicationWindow = 10 * time.Minute
	ReminderWindow   = 5 * time.Minute
)

type Medication struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage"`
	Schedule     []string `json:"schedule"` // "HH:MM"
	Instructions string   `json:"instructions,omitempty"`
}

type TakenLogEntry struct {
	MedicationID  string `json:"medication_id"`
	ScheduledTime string `json:"scheduled_time"`
	ActualTime    string `json:"actual_time"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

// MedicationsDoc is the on-disk shape of medications.json.
type MedicationsDoc struct {
	Medications []Medication    `json:"medications"`
	TakenLog    []TakenLogEntry `json:"taken_log"`
}

// DueMedication is one schedule slot that needs a prompt.
type DueMedication struct {
	Medication     Medication
	ScheduledTime  string
	OverdueMinutes int
}

// UpcomingMedication is a schedule slot later today.
type UpcomingMedication struct {
	Medication    Medication
	ScheduledTime string
	MinutesUntil  int
}

func (s *Store) medications() MedicationsDoc {
	var doc MedicationsDoc
	readDoc(s, medicationsFile, &doc)
	if doc.Medications == nil {
		doc.Medications = []Medication{}
	}
	if doc.TakenLog == nil {
		doc.TakenLog = []TakenLogEntry{}
	}
	return doc
}

// LoadMedications returns the whole medications document.
func (s *Store) LoadMedications() MedicationsDoc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.medications()
}

// SaveMedications replaces the whole medications document.
func (s *Store) SaveMedications(doc MedicationsDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeDoc(s, medicationsFile, doc)
}

// Medication returns the medication with id.
func (s *Store) Medication(id string) (Medication, error) {
	for _, m := range s.LoadMedications().Medications {
		if m.ID == id {
			return m, nil
		}
	}
	return Medication{}, fmt.Errorf("medication %s: %w", id, ErrNotFound)
}

// AddMedication appends m, assigning an id when it has none.
func (s *Store) AddMedication(m Medication) (Medication, error) {
	for _, t := range m.Schedule {
		if _, err := time.Parse("15:04", t); err != nil {
			return Medication{}, fmt.Errorf("invalid schedule time %q: want HH:MM", t)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = shortID("med-")
	}
	doc := s.medications()
	doc.Medications = append(doc.Medications, m)
	if err := writeDoc(s, medicationsFile, doc); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// LogMedicationTaken appends to the taken log. An empty actualTime means
// now; an empty status means "taken".
func (s *Store) LogMedicationTaken(medicationID, scheduledTime, actualTime, status, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actualTime == "" {
		actualTime = s.timestamp()
	}
	if status == "" {
		status = "taken"
	}
	doc := s.medications()
	doc.TakenLog = append(doc.TakenLog, TakenLogEntry{
		MedicationID:  medicationID,
		ScheduledTime: scheduledTime,
		ActualTime:    actualTime,
		Status:        status,
		Notes:         notes,
	})
	return writeDoc(s, medicationsFile, doc)
}

// DueSlot returns the schedule slot of medication id that is due now,
// or "" when none is.
func (s *Store) DueSlot(id string) string {
	for _, d := range s.DueMedications() {
		if d.Medication.ID == id {
			return d.ScheduledTime
		}
	}
	return ""
}

// DueMedications returns slots scheduled between MedicationWindow ago and
// now that have no "taken" entry today. Malformed schedule entries are
// skipped.
func (s *Store) DueMedications() []DueMedication {
	now := s.now()
	doc := s.LoadMedications()
	today := now.Format(dateLayout)

	var due []DueMedication
	for _, m := range doc.Medications {
		for _, slot := range m.Schedule {
			if takenToday(doc.TakenLog, m.ID, slot, today) {
				continue
			}
			at, ok := slotTime(now, slot)
			if !ok {
				continue
			}
			diff := now.Sub(at)
			if diff >= 0 && diff <= MedicationWindow {
				due = append(due, DueMedication{
					Medication:     m,
					ScheduledTime:  slot,
					OverdueMinutes: int(diff / time.Minute),
				})
			}
		}
	}
	return due
}

// UpcomingMedications returns untaken slots within the next window.
func (s *Store) UpcomingMedications(within time.Duration) []UpcomingMedication {
	now := s.now()
	doc := s.LoadMedications()
	today := now.Format(dateLayout)

	var out []UpcomingMedication
	for _, m := range doc.Medications {
		for _, slot := range m.Schedule {
			if takenToday(doc.TakenLog, m.ID, slot, today) {
				continue
			}
			at, ok := slotTime(now, slot)
			if !ok {
				continue
			}
			diff := at.Sub(now)
			if diff > 0 && diff <= within {
				out = append(out, UpcomingMedication{
					Medication:    m,
					ScheduledTime: slot,
					MinutesUntil:  int(diff / time.Minute),
				})
			}
		}
	}
	return out
}

func takenToday(log []TakenLogEntry, id, slot, today string) bool {
	for _, e := range log {
		if e.MedicationID == id && e.ScheduledTime == slot &&
			e.Status == "taken" && len(e.ActualTime) >= len(today) && e.ActualTime[:len(today)] == today {
			return true
		}
	}
	return false
}

// slotTime places "HH:MM" on now's date in now's location.
func slotTime(now time.Time, hhmm string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02 15:04", now.Format(dateLayout)+" "+hhmm, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
