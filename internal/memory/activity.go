package memory

type Event struct {
	Timestamp           string `json:"timestamp"`
	EventType           string `json:"event_type"`
	Details             string `json:"details"`
	ConversationSnippet string `json:"conversation_snippet"`
}

type MoodLog struct {
	Timestamp string `json:"timestamp"`
	Mood      string `json:"mood"`
	Intensity int    `json:"intensity"`
	Notes     string `json:"notes,omitempty"`
}

// DayLog is one date's entry in activity_log.json.
type DayLog struct {
	Date     string    `json:"date"`
	Events   []Event   `json:"events"`
	MoodLogs []MoodLog `json:"mood_logs"`
	Summary  string    `json:"summary"`
}

// Exchange is one emotionally tagged turn, kept to learn what helps.
type Exchange struct {
	Timestamp         string `json:"timestamp"`
	EmotionDetected   string `json:"emotion_detected"`
	UserInputSample   string `json:"user_input_sample"`
	AssistantSample   string `json:"assistant_response_sample"`
	ResponseType      string `json:"response_type"`
	HelpfulnessRating *int   `json:"helpfulness_rating"`
}

type learningDoc struct {
	Exchanges []Exchange `json:"exchanges"`
}

// LogEvent appends an event to today's activity log.
func (s *Store) LogEvent(eventType, details, snippet string) error {
	return s.updateDay(func(d *DayLog) {
		d.Events = append(d.Events, Event{
			Timestamp:           s.timestamp(),
			EventType:           eventType,
			Details:             details,
			ConversationSnippet: snippet,
		})
	})
}

// LogMood appends a mood reading to today's activity log.
func (s *Store) LogMood(mood string, intensity int, notes string) error {
	return s.updateDay(func(d *DayLog) {
		d.MoodLogs = append(d.MoodLogs, MoodLog{
			Timestamp: s.timestamp(),
			Mood:      mood,
			Intensity: intensity,
			Notes:     notes,
		})
	})
}

// SetDaySummary replaces today's summary line.
func (s *Store) SetDaySummary(summary string) error {
	return s.updateDay(func(d *DayLog) { d.Summary = summary })
}

// ActivityFor returns the log for date ("YYYY-MM-DD").
func (s *Store) ActivityFor(date string) (DayLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.activity()[date]
	return d, ok
}

func (s *Store) activity() map[string]DayLog {
	var log map[string]DayLog
	readDoc(s, activityFile, &log)
	if log == nil {
		log = make(map[string]DayLog)
	}
	return log
}

func (s *Store) updateDay(fn func(*DayLog)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.activity()
	today := s.today()
	d, ok := log[today]
	if !ok {
		d = DayLog{Date: today, Events: []Event{}, MoodLogs: []MoodLog{}}
	}
	fn(&d)
	log[today] = d
	return writeDoc(s, activityFile, log)
}

// LogExchange records an emotional exchange. Samples are cut to 200 bytes.
func (s *Store) LogExchange(emotion, user, assistant, responseType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc learningDoc
	readDoc(s, learningFile, &doc)
	doc.Exchanges = append(doc.Exchanges, Exchange{
		Timestamp:       s.timestamp(),
		EmotionDetected: emotion,
		UserInputSample: truncate(user, 200),
		AssistantSample: truncate(assistant, 200),
		ResponseType:    responseType,
	})
	return writeDoc(s, learningFile, doc)
}

// Exchanges returns up to limit exchanges for emotion, newest first.
func (s *Store) Exchanges(emotion string, limit int) []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc learningDoc
	readDoc(s, learningFile, &doc)
	var out []Exchange
	for i := len(doc.Exchanges) - 1; i >= 0 && len(out) < limit; i-- {
		if doc.Exchanges[i].EmotionDetected == emotion {
			out = append(out, doc.Exchanges[i])
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
