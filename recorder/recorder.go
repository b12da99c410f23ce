// Package recorder manages the external audio-capture process. Capture is
// delegated to whichever OS recording tool is available (ffmpeg over
// PulseAudio, sox over ALSA, ffmpeg over ALSA, in that order) and the process
// lifecycle is explicit: start with a new process group, verify it survived
// launch, and on stop signal the group with a bounded grace period before
// escalating to SIGKILL.
package recorder

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"vox/config"
)

const (
	settleDelay  = 500 * time.Millisecond
	pollInterval = 50 * time.Millisecond
)

// Process is a started capture process.
type Process struct {
	PID        int
	PGID       int
	Command    []string
	AudioPath  string
	StderrPath string
	StartedAt  time.Time

	cmd *exec.Cmd
}

// Command returns the capture command line for cfg, probing the system for
// available tools in the same preference order the tool has always used.
func Command(cfg config.Config) ([]string, error) {
	if _, err := exec.LookPath("pactl"); err == nil {
		if exec.Command("pactl", "info").Run() == nil {
			if _, err := exec.LookPath("ffmpeg"); err == nil {
				return pulseCommand(cfg), nil
			}
		}
	}
	if _, err := exec.LookPath("sox"); err == nil {
		return soxCommand(cfg), nil
	}
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		return alsaCommand(cfg), nil
	}
	return nil, fmt.Errorf("no capture tool found: install sox or ffmpeg")
}

func pulseCommand(cfg config.Config) []string {
	return []string{
		"ffmpeg",
		"-f", "pulse",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-ac", strconv.Itoa(cfg.Channels),
		"-sample_fmt", "s16",
		"-i", "default",
		"-y",
		cfg.AudioFile,
	}
}

func soxCommand(cfg config.Config) []string {
	return []string{
		"sox",
		"-t", "alsa",
		"default",
		"-r", strconv.Itoa(cfg.SampleRate),
		"-c", strconv.Itoa(cfg.Channels),
		"-b", strconv.Itoa(cfg.BitDepth),
		"-e", "signed-integer",
		cfg.AudioFile,
	}
}

func alsaCommand(cfg config.Config) []string {
	return []string{
		"ffmpeg",
		"-f", "alsa",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-ac", strconv.Itoa(cfg.Channels),
		"-sample_fmt", "s16",
		"-i", "default",
		"-y",
		cfg.AudioFile,
	}
}

// StderrPathFor returns the side file capturing the recorder's stderr for the
// given audio artifact.
func StderrPathFor(audioPath string) string {
	return audioPath + ".stderr.log"
}

// Start selects a capture command for cfg and launches it.
func Start(cfg config.Config) (*Process, error) {
	cmdline, err := Command(cfg)
	if err != nil {
		return nil, err
	}
	return Launch(cmdline, cfg.AudioFile, settleDelay)
}

// Launch starts cmdline in its own session and verifies it survives the
// settle delay. A process that exits immediately is reported as a launch
// failure with the tail of its stderr.
func Launch(cmdline []string, audioPath string, settle time.Duration) (*Process, error) {
	stderrPath := StderrPathFor(audioPath)
	stderrFile, err := os.Create(stderrPath)
	if err != nil {
		return nil, fmt.Errorf("create stderr log: %w", err)
	}
	defer stderrFile.Close()

	cmd := exec.Command(cmdline[0], cmdline[1:]...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = stderrFile
	// New session: the toggle that stops this recording is a different
	// invocation and signals by process group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmdline[0], err)
	}

	p := &Process{
		PID:        cmd.Process.Pid,
		Command:    cmdline,
		AudioPath:  audioPath,
		StderrPath: stderrPath,
		StartedAt:  time.Now(),
		cmd:        cmd,
	}
	if pgid, err := unix.Getpgid(p.PID); err == nil {
		p.PGID = pgid
	}

	time.Sleep(settle)
	if !alive(p.PID) {
		cmd.Wait()
		tail := StderrTail(stderrPath, 200)
		if tail == "" {
			tail = "process exited immediately"
		}
		os.Remove(audioPath)
		return nil, fmt.Errorf("%s terminated during startup: %s", cmdline[0], tail)
	}
	return p, nil
}

// ArtifactGrowing samples the artifact size twice, d apart, and reports
// whether bytes arrived in between. Advisory only.
func (p *Process) ArtifactGrowing(d time.Duration) bool {
	before := fileSize(p.AudioPath)
	time.Sleep(d)
	after := fileSize(p.AudioPath)
	return after > before
}

// Stop terminates a capture process this invocation started. Same signal
// escalation as the package-level Stop, but reaps the child via Wait so the
// exit is observed even before init would adopt it.
func (p *Process) Stop(grace time.Duration) error {
	done := make(chan struct{})
	go func() {
		p.cmd.Wait()
		close(done)
	}()

	if p.PGID > 0 {
		unix.Kill(-p.PGID, unix.SIGTERM)
	}
	unix.Kill(p.PID, unix.SIGTERM)
	select {
	case <-done:
		return nil
	case <-time.After(grace):
	}

	if p.PGID > 0 {
		unix.Kill(-p.PGID, unix.SIGKILL)
	}
	unix.Kill(p.PID, unix.SIGKILL)
	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return fmt.Errorf("capture process %d did not exit", p.PID)
	}
}

// Stop terminates the capture process identified by pid/pgid: SIGTERM to the
// group and the pid, a bounded wait for exit, then SIGKILL if the grace
// period runs out. Returns once the process is confirmed gone.
func Stop(pid, pgid int, grace time.Duration) error {
	if !alive(pid) {
		return nil
	}
	if pgid > 0 {
		unix.Kill(-pgid, unix.SIGTERM)
	}
	unix.Kill(pid, unix.SIGTERM)

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !alive(pid) {
			return nil
		}
		time.Sleep(pollInterval)
	}

	if pgid > 0 {
		unix.Kill(-pgid, unix.SIGKILL)
	}
	unix.Kill(pid, unix.SIGKILL)

	deadline = time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !alive(pid) {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("capture process %d did not exit", pid)
}

// StderrTail returns up to n trailing bytes of the stderr side file,
// whitespace-trimmed.
func StderrTail(path string, n int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	s := strings.TrimSpace(string(data))
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
