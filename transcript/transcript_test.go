package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vox/config"
)

var stopTime = time.Date(2026, 1, 2, 20, 30, 45, 0, time.Local)

func baseConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.TranscriptionsDir = dir
	return cfg
}

func TestPathForDatedFolders(t *testing.T) {
	cfg := baseConfig("/base")
	got := PathFor(cfg, stopTime)
	want := filepath.Join("/base", "2026-01-02", "transcription_2026-01-02_20-30-45.txt")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPathForFlatLayout(t *testing.T) {
	cfg := baseConfig("/base")
	cfg.FilenameOptions.CreateDatedFolders = false
	got := PathFor(cfg, stopTime)
	want := filepath.Join("/base", "transcription_2026-01-02_20-30-45.txt")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPathForNoDatetimeWithSuffix(t *testing.T) {
	cfg := baseConfig("/base")
	cfg.FilenameOptions.CreateDatedFolders = false
	cfg.FilenameOptions.UseDatetime = false
	cfg.FilenameOptions.Suffix = "notes"
	got := PathFor(cfg, stopTime)
	want := filepath.Join("/base", "transcription_notes.txt")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPathForSuffixAfterTimestamp(t *testing.T) {
	cfg := baseConfig("/base")
	cfg.FilenameOptions.CreateDatedFolders = false
	cfg.FilenameOptions.Suffix = "meeting"
	got := PathFor(cfg, stopTime)
	want := filepath.Join("/base", "transcription_2026-01-02_20-30-45_meeting.txt")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSaveWritesExactText(t *testing.T) {
	cfg := baseConfig(t.TempDir())

	path, err := Save(cfg, "hello there", stopTime)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello there" {
		t.Errorf("content = %q, want byte-identical text", string(data))
	}
}

func TestSaveCreatesDatedDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(dir)

	path, err := Save(cfg, "x", stopTime)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "2026-01-02") {
		t.Errorf("unexpected directory: %q", filepath.Dir(path))
	}
}

func TestSaveOverwritesOnCollision(t *testing.T) {
	cfg := baseConfig(t.TempDir())
	cfg.FilenameOptions.UseDatetime = false
	cfg.FilenameOptions.CreateDatedFolders = false
	cfg.FilenameOptions.Suffix = "notes"

	first, err := Save(cfg, "first", stopTime)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Save(cfg, "second", stopTime.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}
	data, _ := os.ReadFile(second)
	if string(data) != "second" {
		t.Errorf("content = %q, want overwritten %q", string(data), "second")
	}
}
