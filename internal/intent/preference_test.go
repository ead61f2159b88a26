package intent

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDetectPreferences(t *testing.T) {
	hits := DetectPreferences("I feel better when I go for a walk, and my family helps too. Just listen.")
	var cats []string
	for _, h := range hits {
		cats = append(cats, h.Category)
	}
	want := []string{"comfort_method", "communication_style", "emotional_state", "personal_info"}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("categories = %v, want %v", cats, want)
	}
}

func TestDetectPreferences_OncePerCategory(t *testing.T) {
	hits := DetectPreferences("I prefer tea and I usually want quiet")
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1: %+v", len(hits), hits)
	}
	if got := hits[0].MemoryText("I prefer tea"); got != "[comfort_method] User said: I prefer tea" {
		t.Errorf("MemoryText = %q", got)
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"My name is margaret.", "Margaret", true},
		{"hi, I'm Tom", "Tom", true},
		{"you can call me Bea!", "Bea", true},
		{"I'm tired today", "", false},
		{"I am really sad", "", false},
		{"nothing here", "", false},
		{"I'm overwhelmed today", "", false},
		{"I'm Overwhelmed", "", false},
		{"I'm exhausted", "", false},
		{"I am hungry", "", false},
		{"I'm lost", "", false},
		{"I'm heartbroken", "", false},
		{"I am Rosa, nice to meet you", "Rosa", true},
		{"my name is rosa", "Rosa", true},
	}
	for _, tt := range tests {
		got, ok := ExtractName(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractName(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExtractFacts(t *testing.T) {
	f := ExtractFacts("I really love gardening, but I hate traffic. I'm worried about my exams. What matters to me is family.")
	if !reflect.DeepEqual(f.Likes, []string{"gardening"}) {
		t.Errorf("Likes = %v", f.Likes)
	}
	if !reflect.DeepEqual(f.Dislikes, []string{"traffic"}) {
		t.Errorf("Dislikes = %v", f.Dislikes)
	}
	if !reflect.DeepEqual(f.Concerns, []string{"my exams"}) {
		t.Errorf("Concerns = %v", f.Concerns)
	}
	if !reflect.DeepEqual(f.Values, []string{"family"}) {
		t.Errorf("Values = %v", f.Values)
	}
	if ExtractFacts("the weather is grey").Empty() != true {
		t.Error("expected no facts")
	}
}

func TestExtractFacts_TruncatesByRune(t *testing.T) {
	f := ExtractFacts("I love " + strings.Repeat("é", 100))
	if len(f.Likes) != 1 {
		t.Fatalf("Likes = %v", f.Likes)
	}
	like := f.Likes[0]
	if !utf8.ValidString(like) || utf8.RuneCountInString(like) != 80 {
		t.Errorf("like = %q (%d runes), want 80 valid runes", like, utf8.RuneCountInString(like))
	}
}

func TestSessionSummary(t *testing.T) {
	if got := SessionSummary(nil); got != "" {
		t.Errorf("SessionSummary(nil) = %q", got)
	}
	msgs := []string{"1", "2", "I'm so stressed", "4", "5", "6", "I feel hopeful now"}
	want := "Topics: 2 | I'm so stressed | 4 | 5 | 6 | I feel hopeful now | Emotions expressed: stress, hope"
	if got := SessionSummary(msgs); got != want {
		t.Errorf("SessionSummary() = %q, want %q", got, want)
	}
}
