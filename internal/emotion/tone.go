package emotion

// Tone is the delivery label shared by prompt guidance and speech
// synthesis. Both consumers key off the same set.
type Tone string

const (
	ToneDistress      Tone = "distress"
	ToneSadness       Tone = "sadness"
	ToneAnxiety       Tone = "anxiety"
	ToneAnger         Tone = "anger"
	ToneHappiness     Tone = "happiness"
	ToneEncouragement Tone = "encouragement"
	ToneNeutral       Tone = "neutral"
)

// Tones lists every tone in a stable order.
var Tones = []Tone{
	ToneDistress, ToneSadness, ToneAnxiety, ToneAnger,
	ToneHappiness, ToneEncouragement, ToneNeutral,
}

// ParseTone returns the Tone named s, or ToneNeutral.
func ParseTone(s string) Tone {
	for _, t := range Tones {
		if string(t) == s {
			return t
		}
	}
	return ToneNeutral
}

// ToneFor maps analyzed cues onto a delivery tone.
func ToneFor(c Cues) Tone {
	switch c.Primary {
	case "distress":
		return ToneDistress
	case "sadness":
		if c.Intensity >= 3 {
			return ToneSadness
		}
		return ToneEncouragement
	case "anxiety":
		return ToneAnxiety
	case "anger":
		return ToneAnger
	case "happiness", "hope":
		if c.Intensity >= 3 {
			return ToneHappiness
		}
		return ToneEncouragement
	}
	return ToneNeutral
}

var guidance = map[Tone]string{
	ToneDistress: "[EMOTIONAL CONTEXT: DISTRESS DETECTED]\n" +
		"The user is in significant emotional distress right now. " +
		"Your response will be spoken in a very slow, calm, steady voice. " +
		"Respond with maximum gentleness. Use short, grounding sentences. " +
		"Do NOT minimize their pain. Do NOT rush to solutions. " +
		"Acknowledge what they're going through first. Be present. " +
		"If appropriate, gently remind them they don't have to face this alone. " +
		"Keep the response brief, 1 to 3 sentences maximum.",
	ToneSadness: "[EMOTIONAL CONTEXT: SADNESS DETECTED]\n" +
		"The user sounds sad or hurt. " +
		"Your response will be spoken in a warm, gentle, slightly slower voice. " +
		"Be tender and validating. Let them know it's okay to feel this way. " +
		"Don't try to fix it immediately. Sit with them emotionally. " +
		"Use soft, compassionate language. 2 to 4 sentences.",
	ToneAnxiety: "[EMOTIONAL CONTEXT: ANXIETY DETECTED]\n" +
		"The user is feeling anxious, nervous, or worried. " +
		"Your response will be spoken in a calm, measured, grounding voice. " +
		"Help them feel anchored. Use steady, reassuring language. " +
		"Avoid adding new worries. If helpful, gently guide toward " +
		"what they can control right now. 2 to 4 sentences.",
	ToneAnger: "[EMOTIONAL CONTEXT: ANGER/FRUSTRATION DETECTED]\n" +
		"The user is expressing anger or frustration. " +
		"Your response will be spoken in a steady, non-escalating voice. " +
		"Do NOT match their intensity. Don't dismiss their feelings. " +
		"Validate that frustration is understandable. " +
		"Use calm, direct language. Don't be patronizing. 2 to 4 sentences.",
	ToneHappiness: "[EMOTIONAL CONTEXT: HAPPINESS DETECTED]\n" +
		"The user sounds happy, excited, or positive. " +
		"Your response will be spoken in a warm, slightly upbeat voice. " +
		"Match their positive energy naturally. Share in their joy. " +
		"Be genuine, not performatively excited. 2 to 4 sentences.",
	ToneEncouragement: "[EMOTIONAL CONTEXT: NEEDS ENCOURAGEMENT]\n" +
		"The user may benefit from encouragement right now. " +
		"Your response will be spoken in a warm, uplifting voice. " +
		"Offer genuine, specific support, not generic cheerleading. " +
		"2 to 4 sentences.",
}

// Guidance returns the prompt block for t, or "" for neutral.
func Guidance(t Tone) string {
	return guidance[t]
}

// GradiumParams tune the primary synthesizer.
type GradiumParams struct {
	PaddingBonus float64 `json:"padding_bonus"`
	Temp         float64 `json:"temp"`
	CFGCoef      float64 `json:"cfg_coef"`
}

var gradiumParams = map[Tone]GradiumParams{
	ToneDistress:      {PaddingBonus: 1.5, Temp: 0.3, CFGCoef: 2.5},
	ToneSadness:       {PaddingBonus: 1.0, Temp: 0.4, CFGCoef: 2.2},
	ToneAnxiety:       {PaddingBonus: 0.8, Temp: 0.35, CFGCoef: 2.2},
	ToneAnger:         {PaddingBonus: 0.5, Temp: 0.4, CFGCoef: 2.0},
	ToneHappiness:     {PaddingBonus: -0.3, Temp: 0.85, CFGCoef: 2.0},
	ToneEncouragement: {PaddingBonus: -0.2, Temp: 0.7, CFGCoef: 2.0},
	ToneNeutral:       {PaddingBonus: 0, Temp: 0.7, CFGCoef: 2.0},
}

func GradiumFor(t Tone) GradiumParams {
	if p, ok := gradiumParams[t]; ok {
		return p
	}
	return gradiumParams[ToneNeutral]
}

// VoiceSettings tune the backup synthesizer.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
}

var elevenLabsSettings = map[Tone]VoiceSettings{
	ToneDistress:      {Stability: 0.85, SimilarityBoost: 0.8, Style: 0.05},
	ToneSadness:       {Stability: 0.8, SimilarityBoost: 0.75, Style: 0.1},
	ToneAnxiety:       {Stability: 0.85, SimilarityBoost: 0.8, Style: 0.05},
	ToneAnger:         {Stability: 0.8, SimilarityBoost: 0.7, Style: 0.1},
	ToneHappiness:     {Stability: 0.6, SimilarityBoost: 0.65, Style: 0.3},
	ToneEncouragement: {Stability: 0.65, SimilarityBoost: 0.7, Style: 0.25},
	ToneNeutral:       {Stability: 0.7, SimilarityBoost: 0.7, Style: 0.15},
}

func ElevenLabsFor(t Tone) VoiceSettings {
	if s, ok := elevenLabsSettings[t]; ok {
		return s
	}
	return elevenLabsSettings[ToneNeutral]
}

// WebVoice is the speed and temperature pair the browser client sends
// back with /api/tts.
type WebVoice struct {
	Speed float64
	Temp  float64
}

var webVoices = map[Tone]WebVoice{
	ToneDistress:      {Speed: 0.2, Temp: 0.25},
	ToneSadness:       {Speed: 0.1, Temp: 0.35},
	ToneAnxiety:       {Speed: 0, Temp: 0.3},
	ToneAnger:         {Speed: 0, Temp: 0.4},
	ToneHappiness:     {Speed: -0.2, Temp: 0.9},
	ToneEncouragement: {Speed: -0.1, Temp: 0.75},
	ToneNeutral:       {Speed: 0, Temp: 0.7},
}

func WebVoiceFor(t Tone) WebVoice {
	if v, ok := webVoices[t]; ok {
		return v
	}
	return webVoices[ToneNeutral]
}
