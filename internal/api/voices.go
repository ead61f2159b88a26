package api

import "net/http"

// Voice is one entry in the browser's voice picker.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Accent string `json:"accent"`
	Desc   string `json:"desc"`
}

// DefaultVoiceID is used when a /api/tts request names no voice.
const DefaultVoiceID = "KRo-uwfno-KcEgBM"

var voices = []Voice{
	{"KRo-uwfno-KcEgBM", "Abigail", "F", "US", "Warm and empathetic, adds a touch of magic to every conversation"},
	{"YTpq7expH9539ERJ", "Emma", "F", "US", "Pleasant and smooth, eager for nice conversations"},
	{"jtEKaLYNn6iif5PR", "Sydney", "F", "US", "Joyful and airy, makes things feel helpful and light"},
	{"PS7enm5lVZiIvEKV", "Anna", "F", "US", "Warm and smooth, comfort and supportive guidance"},
	{"56DcpvEI0Gawpidh", "Kaitlyn", "F", "US", "Warm and smooth, the kindness of a helpful neighbor"},
	{"ubuXFxVQwVYnZQhy", "Eva", "F", "GB", "Joyful and dynamic, ideal for lively conversations"},
	{"kr-Om35JRqmA3Hzq", "Olivia", "F", "US", "Warm and low-pitched, soothing meditation calm"},
	{"Eu9iL_CYe8N-Gkx_", "Tiffany", "F", "US", "Warm and smooth, greets with a smile you can hear"},
	{"lP7D1y02OQFtffU3", "Hannah", "F", "US", "Warm and airy, creates a calm, meditative atmosphere"},
	{"auZu0iT-fniQ4cJd", "Jennifer", "F", "US", "Warm and smooth, always ready to help like a good friend"},
	{"LFZvm12tW_z0xfGo", "Kent", "M", "US", "Relaxed and authentic, connects like a genuine friend"},
	{"m86j6D7UZpGzHsNu", "Jack", "M", "GB", "Pleasant, suited for casual conversations and storytelling"},
	{"MZWrEHL2Fe_uc2Rv", "James", "M", "US", "Warm and resonant, excels at storytelling"},
	{"dh0EzP6jCroK6prq", "Mark", "M", "US", "Warm and low-pitched, professional radio quality"},
	{"KWJiFWu2O9nMPYcR", "John", "M", "US", "Warm and low-pitched, classic radio broadcaster resonance"},
	{"QZMzHBlnJRjll_71", "Ashley", "F", "US", "Warm and low-pitched, cool supportive friend or aunt"},
}

// Voices returns a copy of the catalog.
func Voices() []Voice {
	return append([]Voice(nil), voices...)
}

func handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voices)
}
