// Package doctor runs non-interactive diagnostic checks covering every
// external collaborator the toggle depends on: the capture tool, the
// transcription backend, and the clipboard.
package doctor

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vox/clipboard"
	"vox/config"
	"vox/recorder"
	"vox/transcriber"
)

const captureProbe = 2 * time.Second

// Run executes the diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg config.Config) int {
	fmt.Println("vox doctor - system diagnostics")
	fmt.Println("===============================")

	allPass := true

	if !checkCaptureTool(cfg) {
		allPass = false
	} else if !checkCapture(cfg) {
		allPass = false
	}
	if !checkTranscriber(cfg) {
		allPass = false
	}
	if !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkCaptureTool(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[1/4] Capture tool")

	cmdline, err := recorder.Command(cfg)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: would record with: %s\n", strings.Join(cmdline, " "))
	return true
}

func checkCapture(cfg config.Config) bool {
	fmt.Println()
	fmt.Printf("[2/4] Test capture (%s)\n", captureProbe)

	probe := cfg
	probe.AudioFile = filepath.Join(os.TempDir(), "vox_doctor_capture.wav")
	defer os.Remove(probe.AudioFile)
	defer os.Remove(recorder.StderrPathFor(probe.AudioFile))

	p, err := recorder.Start(probe)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	time.Sleep(captureProbe)
	if err := p.Stop(2 * time.Second); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	info, err := os.Stat(probe.AudioFile)
	if err != nil || info.Size() == 0 {
		fmt.Println("  FAIL: capture produced no audio - check microphone permissions and device selection")
		if tail := recorder.StderrTail(recorder.StderrPathFor(probe.AudioFile), 300); tail != "" {
			fmt.Printf("  recorder said: %s\n", tail)
		}
		return false
	}
	fmt.Printf("  PASS: captured %d bytes\n", info.Size())
	return true
}

func checkTranscriber(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[3/4] Transcription backend")

	tr := transcriber.New(cfg)
	if tr.Name() == "groq" {
		fmt.Println("  PASS: GROQ_API_KEY set, using groq batch API")
		return true
	}

	serverURL := os.Getenv("VOX_WHISPER_URL")
	if serverURL == "" {
		serverURL = transcriber.DefaultWhisperURL
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		fmt.Printf("  FAIL: bad whisper server URL %q: %v\n", serverURL, err)
		return false
	}
	conn, err := net.DialTimeout("tcp", u.Host, 2*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: whisper server not reachable at %s: %v\n", u.Host, err)
		fmt.Println("  start a whisper.cpp server, or set GROQ_API_KEY")
		return false
	}
	conn.Close()
	fmt.Printf("  PASS: whisper server reachable at %s (model %s)\n", u.Host, cfg.ModelName)
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard")

	prev, _ := clipboard.Read()
	probe := fmt.Sprintf("vox-doctor-%d", os.Getpid())
	if err := clipboard.Copy(probe); err != nil {
		fmt.Printf("  FAIL: clipboard write: %v\n", err)
		return false
	}
	got, err := clipboard.Read()
	if err != nil {
		fmt.Printf("  FAIL: clipboard read: %v\n", err)
		return false
	}
	if prev != "" {
		clipboard.Copy(prev)
	}
	if got != probe {
		fmt.Printf("  FAIL: clipboard round-trip mismatch: got %q\n", got)
		return false
	}
	fmt.Println("  PASS: clipboard round-trip ok")
	return true
}
