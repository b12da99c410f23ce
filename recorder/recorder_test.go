package recorder

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vox/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.SampleRate = 16000
	cfg.Channels = 1
	cfg.BitDepth = 16
	cfg.AudioFile = "/tmp/vox_capture.wav"
	return cfg
}

func TestPulseCommand(t *testing.T) {
	got := pulseCommand(testConfig())
	want := []string{"ffmpeg", "-f", "pulse", "-ar", "16000", "-ac", "1", "-sample_fmt", "s16", "-i", "default", "-y", "/tmp/vox_capture.wav"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSoxCommand(t *testing.T) {
	got := soxCommand(testConfig())
	want := []string{"sox", "-t", "alsa", "default", "-r", "16000", "-c", "1", "-b", "16", "-e", "signed-integer", "/tmp/vox_capture.wav"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAlsaCommand(t *testing.T) {
	got := alsaCommand(testConfig())
	if got[0] != "ffmpeg" || got[2] != "alsa" {
		t.Errorf("got %v", got)
	}
	if got[len(got)-1] != "/tmp/vox_capture.wav" {
		t.Errorf("artifact path should be last arg, got %v", got)
	}
}

func TestCommandUsesConfiguredParameters(t *testing.T) {
	cfg := testConfig()
	cfg.SampleRate = 44100
	cfg.Channels = 2
	cfg.BitDepth = 24
	got := soxCommand(cfg)
	joined := strings.Join(got, " ")
	for _, frag := range []string{"-r 44100", "-c 2", "-b 24"} {
		if !strings.Contains(joined, frag) {
			t.Errorf("command missing %q: %v", frag, got)
		}
	}
}

func TestLaunchAndStop(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "capture.wav")
	p, err := Launch([]string{"sleep", "30"}, audio, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if p.PID <= 0 {
		t.Fatalf("PID = %d", p.PID)
	}
	if !alive(p.PID) {
		t.Fatal("process should be alive after launch")
	}

	if err := p.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if alive(p.PID) {
		t.Error("process should be gone after Stop")
	}
}

func TestLaunchFailureSurfacesStderr(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "capture.wav")
	_, err := Launch([]string{"sh", "-c", "echo device busy >&2; exit 1"}, audio, 200*time.Millisecond)
	if err == nil {
		t.Fatal("expected launch failure")
	}
	if !strings.Contains(err.Error(), "device busy") {
		t.Errorf("error should carry stderr tail, got: %v", err)
	}
}

func TestLaunchMissingBinary(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "capture.wav")
	if _, err := Launch([]string{"definitely-not-a-recorder"}, audio, 10*time.Millisecond); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestStopDeadProcessIsNoop(t *testing.T) {
	// A pid far above pid_max cannot exist.
	if err := Stop(1<<30, 0, 100*time.Millisecond); err != nil {
		t.Errorf("Stop of dead pid: %v", err)
	}
}

func TestStderrTail(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "capture.wav")
	p, err := Launch([]string{"sh", "-c", "echo warming up >&2; sleep 30"}, audio, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer p.Stop(time.Second)

	if got := StderrTail(p.StderrPath, 200); got != "warming up" {
		t.Errorf("StderrTail = %q", got)
	}
	if got := StderrTail(p.StderrPath, 4); got != "g up" {
		t.Errorf("truncated tail = %q", got)
	}
}
