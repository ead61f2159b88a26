package questions

// Context groups questions by what they explore.
type Context string

const (
	GeneralWellbeing     Context = "general_wellbeing"
	EmotionalExploration Context = "emotional_exploration"
	Coping               Context = "coping"
	Values               Context = "values"
	Relationships        Context = "relationships"
	Goals                Context = "goals"
	ProblemSolving       Context = "problem_solving"
	Reflection           Context = "reflection"
)

// Question is one follow-up. Questions sharing a VariabilityID are
// interchangeable and share a cooldown.
type Question struct {
	Text          string
	Context       Context
	VariabilityID string
}

var banks = map[Context][]Question{
	GeneralWellbeing: {
		{"How are you doing with everything today?", GeneralWellbeing, "check_in_basic"},
		{"What's been on your mind lately?", GeneralWellbeing, "check_in_basic"},
		{"Tell me what a typical day is like for you right now.", GeneralWellbeing, "routine_exploration"},
		{"What's something small that made you feel better this week?", GeneralWellbeing, "wellbeing_anchor"},
	},
	EmotionalExploration: {
		{"Can you tell me more about what that feels like?", EmotionalExploration, "deepen_emotion"},
		{"What was the hardest part of that for you?", EmotionalExploration, "difficulty_focus"},
		{"When did you first notice you were feeling this way?", EmotionalExploration, "emotion_timeline"},
		{"How long has this been going on?", EmotionalExploration, "duration_check"},
		{"What made you decide to talk about this with me?", EmotionalExploration, "sharing_decision"},
	},
	Coping: {
		{"What helps you get through difficult moments like this?", Coping, "coping_strategies"},
		{"When things have been hard before, what helped you move forward?", Coping, "past_resilience"},
		{"Who or what do you lean on when you need support?", Coping, "support_system"},
		{"What's something you're proud of managing, even if it felt small?", Coping, "small_wins"},
		{"Have you been able to do anything that usually makes you feel better?", Coping, "self_care_check"},
	},
	Values: {
		{"What matters most to you right now?", Values, "values_clarity"},
		{"When do you feel most like yourself?", Values, "authentic_self"},
		{"What would help you feel more at peace?", Values, "peace_seeking"},
		{"If things could be different, what would that look like?", Values, "future_vision"},
	},
	Relationships: {
		{"How are the people closest to you doing with all of this?", Relationships, "relationship_impact"},
		{"Is there someone you'd like to talk to about what you're going through?", Relationships, "support_seeking"},
		{"What does support look like for you? How do people best help you?", Relationships, "support_preferences"},
	},
	Goals: {
		{"What's something you'd like to work toward, even just a small step?", Goals, "next_steps"},
		{"What would make a difference for you this week?", Goals, "weekly_win"},
		{"If you could focus on one thing, what would be most helpful right now?", Goals, "priority_focus"},
	},
	ProblemSolving: {
		{"What's the part of this you have the most control over?", ProblemSolving, "control_focus"},
		{"Have you tried anything to address this? What happened?", ProblemSolving, "attempted_solutions"},
		{"What would help right now, some practical idea or just someone to listen?", ProblemSolving, "support_type"},
	},
	Reflection: {
		{"Looking back, what do you notice about how you handled that?", Reflection, "experience_reflection"},
		{"What's one thing you've learned about yourself recently?", Reflection, "self_learning"},
		{"If you were talking to a friend in this situation, what would you tell them?", Reflection, "perspective_shift"},
	},
}

// Bank returns a copy of the questions for c.
func Bank(c Context) []Question {
	return append([]Question(nil), banks[c]...)
}
