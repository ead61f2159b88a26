package intent

import "testing"

func TestParseReminder_CallMom(t *testing.T) {
	r, ok := ParseReminder("remind me to call mom at 3:00 pm")
	if !ok {
		t.Fatal("ParseReminder returned ok=false")
	}
	if r.RemindTime != "15:00" {
		t.Errorf("RemindTime = %q, want %q", r.RemindTime, "15:00")
	}
	if r.Recurring {
		t.Error("Recurring = true, want false")
	}
	if r.Content != "call mom" {
		t.Errorf("Content = %q, want %q", r.Content, "call mom")
	}
}

func TestParseReminder_Times(t *testing.T) {
	tests := []struct {
		text        string
		wantTime    string
		recurring   bool
		wantContent string
	}{
		{"remind me to stretch at 15:30", "15:30", false, "stretch"},
		{"remind me at 9:15 am to water the plants", "09:15", false, "water the plants"},
		{"remind me at 12:00 am to lock up", "00:00", false, "lock up"},
		{"remind me to take vitamins every morning", "08:00", true, "take vitamins"},
		{"remind me this afternoon to email Sam", "14:00", false, "email Sam"},
		{"don't let me forget the laundry tonight", "20:00", false, "the laundry"},
		{"alert me at noon", "12:00", false, "alert me at noon"},
		{"remind me at 7pm to call dad", "19:00", false, "call dad"},
		{"remind me at 7 p.m. to call dad", "19:00", false, "call dad"},
		{"remind me daily to drink water", "", true, "drink water"},
		{"remind me about the thing at 25:00", "", false, "the thing"},
		{"remind me to take 2 amoxicillin tonight", "20:00", false, "take 2 amoxicillin"},
		{"remind me to take 1 amlodipine at 8:30", "08:30", false, "take 1 amlodipine"},
	}
	for _, tt := range tests {
		r, ok := ParseReminder(tt.text)
		if !ok {
			t.Errorf("ParseReminder(%q) ok=false", tt.text)
			continue
		}
		if r.RemindTime != tt.wantTime {
			t.Errorf("ParseReminder(%q).RemindTime = %q, want %q", tt.text, r.RemindTime, tt.wantTime)
		}
		if r.Recurring != tt.recurring {
			t.Errorf("ParseReminder(%q).Recurring = %v, want %v", tt.text, r.Recurring, tt.recurring)
		}
		if r.Content != tt.wantContent {
			t.Errorf("ParseReminder(%q).Content = %q, want %q", tt.text, r.Content, tt.wantContent)
		}
	}
}

func TestParseReminder_NoSignal(t *testing.T) {
	if _, ok := ParseReminder("I called mom at 3:00 pm"); ok {
		t.Error("expected ok=false without a reminder signal")
	}
}

func TestParseReminder_ShortRemainderKeepsFullText(t *testing.T) {
	r, ok := ParseReminder("Remind me!")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if r.Content != "Remind me!" {
		t.Errorf("Content = %q, want full text", r.Content)
	}
}

func TestReminderRequest_Summary(t *testing.T) {
	r := ReminderRequest{Content: "water plants", RemindTime: "08:00", Recurring: true}
	want := "User requested reminder: 'water plants' at 08:00 (recurring daily)"
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
