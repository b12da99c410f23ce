package transcriber

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vox/config"
)

func writeAudio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.wav")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewPrefersGroqKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	tr := New(config.Default())
	if tr.Name() != "groq" {
		t.Errorf("Name = %q, want groq", tr.Name())
	}
}

func TestNewFallsBackToWhisperServer(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("VOX_WHISPER_URL", "http://localhost:9999")
	tr := New(config.Default())
	if tr.Name() != "whisper" {
		t.Errorf("Name = %q, want whisper", tr.Name())
	}
}

func TestWhisperServerTranscribe(t *testing.T) {
	var gotPath, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart parse: %v", err)
		}
		gotModel = r.FormValue("model")
		w.Write([]byte(`{"text":"hello from whisper"}`))
	}))
	defer srv.Close()

	ws := NewWhisperServer(srv.URL, "base.en")
	text, err := ws.Transcribe(context.Background(), writeAudio(t, "RIFFdata"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello from whisper" {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/inference" {
		t.Errorf("path = %q, want /inference", gotPath)
	}
	if gotModel != "base.en" {
		t.Errorf("model = %q, want base.en", gotModel)
	}
}

func TestWhisperServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ws := NewWhisperServer(srv.URL, "base.en")
	_, err := ws.Transcribe(context.Background(), writeAudio(t, "RIFFdata"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("error should carry server body, got: %v", err)
	}
}

func TestGroqTranscribe(t *testing.T) {
	var gotAuth, gotModel string
	var gotFile bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		// A truncated multipart body fails to parse here.
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart parse: %v", err)
		}
		gotModel = r.FormValue("model")
		_, gotFile = r.MultipartForm.File["file"]
		w.Write([]byte(`{"text":"hello from groq"}`))
	}))
	defer srv.Close()

	g := NewGroq("gsk_test")
	g.apiURL = srv.URL
	text, err := g.Transcribe(context.Background(), writeAudio(t, "RIFFdata"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello from groq" {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer gsk_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != "whisper-large-v3-turbo" {
		t.Errorf("model = %q", gotModel)
	}
	if !gotFile {
		t.Error("request body missing audio file part")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	ws := NewWhisperServer("http://localhost:1", "base.en")
	if _, err := ws.Transcribe(context.Background(), "/nonexistent/audio.wav"); err == nil {
		t.Fatal("expected error for missing audio file")
	}
}

func TestTranscribeHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ws := NewWhisperServer("http://localhost:1", "base.en")
	if _, err := ws.Transcribe(ctx, writeAudio(t, "RIFFdata")); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
