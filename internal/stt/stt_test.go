package stt

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// testWAV builds a minimal 16-bit mono PCM WAV with n silent samples.
func testWAV(n int) []byte {
	dataLen := 2 * n
	b := make([]byte, 44+dataLen)
	copy(b[0:], "RIFF")
	binary.LittleEndian.PutUint32(b[4:], uint32(36+dataLen))
	copy(b[8:], "WAVE")
	copy(b[12:], "fmt ")
	binary.LittleEndian.PutUint32(b[16:], 16)
	binary.LittleEndian.PutUint16(b[20:], 1)     // PCM
	binary.LittleEndian.PutUint16(b[22:], 1)     // mono
	binary.LittleEndian.PutUint32(b[24:], 16000) // sample rate
	binary.LittleEndian.PutUint32(b[28:], 32000) // byte rate
	binary.LittleEndian.PutUint16(b[32:], 2)     // block align
	binary.LittleEndian.PutUint16(b[34:], 16)    // bits per sample
	copy(b[36:], "data")
	binary.LittleEndian.PutUint32(b[40:], uint32(dataLen))
	return b
}

func TestValidate(t *testing.T) {
	if err := Validate(testWAV(10)); !errors.Is(err, ErrAudioTooShort) {
		t.Errorf("short body: err = %v", err)
	}
	junk := make([]byte, 400)
	if err := Validate(junk); !errors.Is(err, ErrInvalidAudio) {
		t.Errorf("junk body: err = %v", err)
	}
	if err := Validate(testWAV(1600)); err != nil {
		t.Errorf("valid wav: err = %v", err)
	}
}

func TestGroq_Transcribe(t *testing.T) {
	var gotModel, gotFormat string
	var gotFile int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer gq" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		f, _, err := r.FormFile("file")
		if err == nil {
			data, _ := io.ReadAll(f)
			gotFile = len(data)
		}
		w.Write([]byte(`{"text":"  I took my pills  "}`))
	}))
	defer srv.Close()

	audio := testWAV(1600)
	text, err := NewGroq("gq", srv.URL, "whisper-large-v3-turbo", srv.Client()).Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "I took my pills" {
		t.Errorf("text = %q", text)
	}
	if gotModel != "whisper-large-v3-turbo" || gotFormat != "json" || gotFile != len(audio) {
		t.Errorf("model=%q format=%q file=%d", gotModel, gotFormat, gotFile)
	}
}

func TestGroq_EmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"   "}`))
	}))
	defer srv.Close()

	_, err := NewGroq("k", srv.URL, "m", srv.Client()).Transcribe(context.Background(), testWAV(1600))
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("err = %v, want ErrNoSpeech", err)
	}
}

func TestGroq_RejectsBeforeUpload(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewGroq("k", srv.URL, "m", srv.Client()).Transcribe(context.Background(), []byte("tiny"))
	if !errors.Is(err, ErrAudioTooShort) {
		t.Errorf("err = %v", err)
	}
	if called {
		t.Error("server should not be called for invalid audio")
	}
}

func TestGroq_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := NewGroq("k", srv.URL, "m", srv.Client()).Transcribe(context.Background(), testWAV(1600)); err == nil {
		t.Fatal("expected error")
	}
}
