package memory

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func addAspirin(t *testing.T, s *Store) Medication {
	t.Helper()
	m, err := s.AddMedication(Medication{
		Name:         "Aspirin",
		Dosage:       "81mg",
		Schedule:     []string{"08:00", "20:00"},
		Instructions: "Take with food",
	})
	if err != nil {
		t.Fatalf("AddMedication: %v", err)
	}
	return m
}

func TestDueMedications_Window(t *testing.T) {
	tests := []struct {
		now  string
		want bool
	}{
		{"07:59", false},
		{"08:00", true},
		{"08:05", true},
		{"08:09", true},
		{"08:10", true},
		{"08:11", false},
	}
	for _, tt := range tests {
		s, _ := openTestStore(t, at(tt.now))
		addAspirin(t, s)
		due := s.DueMedications()
		if got := len(due) == 1; got != tt.want {
			t.Errorf("at %s: due=%v, want %v (%+v)", tt.now, got, tt.want, due)
		}
	}
}

func TestDueMedications_TakenTodayExcluded(t *testing.T) {
	s, clock := openTestStore(t, at("08:03"))
	m := addAspirin(t, s)

	due := s.DueMedications()
	if len(due) != 1 || due[0].ScheduledTime != "08:00" || due[0].OverdueMinutes != 3 {
		t.Fatalf("DueMedications() = %+v", due)
	}

	if err := s.LogMedicationTaken(m.ID, "08:00", "", "", "Confirmed via voice"); err != nil {
		t.Fatalf("LogMedicationTaken: %v", err)
	}
	if due := s.DueMedications(); len(due) != 0 {
		t.Errorf("still due after taking: %+v", due)
	}

	// A taken entry from yesterday does not satisfy today.
	clock.t = at("08:03").Add(24 * time.Hour)
	if due := s.DueMedications(); len(due) != 1 {
		t.Errorf("next day due = %+v, want one", due)
	}
}

func TestDueMedications_SkippedStatusStillDue(t *testing.T) {
	s, _ := openTestStore(t, at("08:03"))
	m := addAspirin(t, s)
	s.LogMedicationTaken(m.ID, "08:00", "", "skipped", "")
	if due := s.DueMedications(); len(due) != 1 {
		t.Errorf("skipped dose should stay due, got %+v", due)
	}
}

func TestDueMedications_MalformedScheduleSkipped(t *testing.T) {
	s, _ := openTestStore(t, at("08:03"))
	doc := MedicationsDoc{
		Medications: []Medication{
			{ID: "med-bad", Name: "Bad", Schedule: []string{"eight", "08:00"}},
		},
		TakenLog: []TakenLogEntry{},
	}
	if err := s.SaveMedications(doc); err != nil {
		t.Fatal(err)
	}
	due := s.DueMedications()
	if len(due) != 1 || due[0].ScheduledTime != "08:00" {
		t.Errorf("DueMedications() = %+v", due)
	}
}

func TestMedications_RoundTrip(t *testing.T) {
	s, _ := openTestStore(t, at("09:00"))
	doc := MedicationsDoc{
		Medications: []Medication{{ID: "med-1", Name: "A", Dosage: "1", Schedule: []string{"08:00"}}},
		TakenLog:    []TakenLogEntry{{MedicationID: "med-1", ScheduledTime: "08:00", ActualTime: "2026-03-14T08:02:00", Status: "taken"}},
	}
	if err := s.SaveMedications(doc); err != nil {
		t.Fatal(err)
	}
	if got := s.LoadMedications(); !reflect.DeepEqual(got, doc) {
		t.Errorf("LoadMedications() = %+v, want %+v", got, doc)
	}
}

func TestAddMedication(t *testing.T) {
	s, _ := openTestStore(t, at("09:00"))
	m := addAspirin(t, s)
	if !strings.HasPrefix(m.ID, "med-") || len(m.ID) != 12 {
		t.Errorf("ID = %q", m.ID)
	}
	if got, err := s.Medication(m.ID); err != nil || got.Name != "Aspirin" {
		t.Errorf("Medication(%q) = %+v, %v", m.ID, got, err)
	}
	if _, err := s.AddMedication(Medication{Name: "X", Schedule: []string{"25:99"}}); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestLogMedicationTaken_Defaults(t *testing.T) {
	s, _ := openTestStore(t, at("08:04"))
	s.LogMedicationTaken("med-1", "08:00", "", "", "")
	log := s.LoadMedications().TakenLog
	if len(log) != 1 {
		t.Fatalf("log = %+v", log)
	}
	if log[0].Status != "taken" || log[0].ActualTime != "2026-03-14T08:04:00" {
		t.Errorf("entry = %+v", log[0])
	}
}

func TestUpcomingMedications(t *testing.T) {
	s, _ := openTestStore(t, at("19:45"))
	addAspirin(t, s)

	up := s.UpcomingMedications(30 * time.Minute)
	if len(up) != 1 || up[0].ScheduledTime != "20:00" || up[0].MinutesUntil != 15 {
		t.Errorf("UpcomingMedications() = %+v", up)
	}
	if up := s.UpcomingMedications(10 * time.Minute); len(up) != 0 {
		t.Errorf("10m window = %+v", up)
	}
}

func TestDueSlot(t *testing.T) {
	s, clock := openTestStore(t, at("20:04"))
	m := addAspirin(t, s)

	if got := s.DueSlot(m.ID); got != "20:00" {
		t.Errorf("DueSlot at 20:04 = %q, want 20:00", got)
	}
	if got := s.DueSlot("med-other"); got != "" {
		t.Errorf("DueSlot(unknown) = %q, want empty", got)
	}
	clock.t = at("12:00")
	if got := s.DueSlot(m.ID); got != "" {
		t.Errorf("DueSlot at noon = %q, want empty", got)
	}
}
