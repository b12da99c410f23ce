// Package toggle implements the recording toggle controller: each call to
// Toggle inspects the persisted session lock and either starts a background
// capture process or stops it and runs the stop pipeline (terminate →
// transcribe → save → clipboard → notify).
package toggle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"vox/clipboard"
	"vox/config"
	"vox/lock"
	"vox/log"
	"vox/notify"
	"vox/recorder"
	"vox/transcriber"
	"vox/transcript"
)

// State is what the controller observes before acting.
type State int

const (
	Idle      State = iota // no lock present
	Recording              // lock present, capture process alive
	StaleLock              // lock present, capture process gone
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case StaleLock:
		return "stale-lock"
	}
	return "unknown"
}

// Error taxonomy. Every failure surfaces as a notification plus a non-zero
// exit; nothing is retried automatically.
var (
	ErrLaunchFailure        = errors.New("capture process launch failed")
	ErrStaleLock            = errors.New("stale lock: capture process not found")
	ErrEmptyArtifact        = errors.New("capture artifact is empty")
	ErrTranscriptionFailure = errors.New("transcription failed")
	ErrPersistenceFailure   = errors.New("could not persist transcript")
)

const (
	stopGrace   = 2 * time.Second
	growthProbe = 300 * time.Millisecond
	// Artifacts below this are suspicious for any real utterance.
	smallArtifact = 1024
)

// Controller drives the toggle state machine. Stateless across invocations:
// everything it knows between calls lives in the lock and artifact files.
type Controller struct {
	cfg config.Config
	tr  transcriber.Transcriber

	// Collaborator hooks, replaced in tests.
	launch      func(config.Config) (*recorder.Process, error)
	stopProcess func(pid, pgid int, grace time.Duration) error
	copyText    func(string) error
	notifyInfo  func(string) error
	notifyError func(string) error
	now         func() time.Time
}

// New returns a controller wired to the real recorder, clipboard, and
// notification collaborators.
func New(cfg config.Config, tr transcriber.Transcriber) *Controller {
	return &Controller{
		cfg:         cfg,
		tr:          tr,
		launch:      recorder.Start,
		stopProcess: recorder.Stop,
		copyText:    clipboard.Copy,
		notifyInfo:  notify.Info,
		notifyError: notify.Error,
		now:         time.Now,
	}
}

// State probes the lock file and its recorded process.
func (c *Controller) State() State {
	if !lock.Exists(c.cfg.LockFile) {
		return Idle
	}
	rec, err := lock.Read(c.cfg.LockFile)
	if err != nil {
		// Unreadable lock: treat as stale so the next call starts fresh.
		return StaleLock
	}
	if rec.Alive() {
		return Recording
	}
	return StaleLock
}

// Toggle performs one invocation of the state machine. A live lock always
// stops; a second concurrent recording is never started.
func (c *Controller) Toggle() error {
	switch state := c.State(); state {
	case Idle:
		return c.start()
	case Recording:
		rec, err := lock.Read(c.cfg.LockFile)
		if err != nil {
			return c.recoverStale()
		}
		return c.stop(rec)
	default:
		return c.recoverStale()
	}
}

// start launches the capture process and writes the lock. The lock is written
// only after the process is verified running, so a failed launch leaves the
// controller in idle with no lock on disk.
func (c *Controller) start() error {
	p, err := c.launch(c.cfg)
	if err != nil {
		log.Errorf("launch failed: %v", err)
		c.notifyError(fmt.Sprintf("Failed to start recording: %v", err))
		return fmt.Errorf("%w: %v", ErrLaunchFailure, err)
	}

	if !p.ArtifactGrowing(growthProbe) {
		log.Warn("audio artifact not growing yet")
	}

	rec := lock.Record{
		PID:       p.PID,
		PGID:      p.PGID,
		StartedAt: p.StartedAt,
		Command:   p.Command,
	}
	if err := lock.Write(c.cfg.LockFile, rec); err != nil {
		// Release the process we just started; without a lock no later
		// invocation could ever stop it.
		c.stopProcess(p.PID, p.PGID, stopGrace)
		log.Errorf("lock write failed: %v", err)
		c.notifyError(fmt.Sprintf("Failed to start recording: %v", err))
		return fmt.Errorf("%w: write lock: %v", ErrLaunchFailure, err)
	}

	log.SessionStart(strings.Join(p.Command, " "), p.PID)
	c.notifyInfo("Recording started...")
	return nil
}

// stop terminates the capture process, removes the lock, and runs the
// transcription pipeline on the artifact.
func (c *Controller) stop(rec lock.Record) error {
	if err := c.stopProcess(rec.PID, rec.PGID, stopGrace); err != nil {
		// The lock is deleted only once termination is confirmed; leaving it
		// in place lets the next invocation retry the stop.
		log.Errorf("stopping capture process: %v", err)
		c.notifyError("Could not stop recording process")
		return fmt.Errorf("stop capture: %w", err)
	}
	if err := lock.Remove(c.cfg.LockFile); err != nil {
		log.Errorf("removing lock: %v", err)
	}
	return c.finish(rec, false)
}

// recoverStale clears a lock whose process is gone, then salvages whatever
// partial artifact exists. No new recording is started in the same call.
func (c *Controller) recoverStale() error {
	log.Warn("lock process not found, clearing lock")
	if err := lock.Remove(c.cfg.LockFile); err != nil {
		log.Errorf("removing stale lock: %v", err)
	}
	c.notifyInfo("Recording process not found, lock cleared")
	return c.finish(lock.Record{}, true)
}

func (c *Controller) finish(rec lock.Record, stale bool) error {
	size := fileSize(c.cfg.AudioFile)
	if size == 0 {
		c.notifyError("No usable audio captured - check microphone")
		if tail := recorder.StderrTail(recorder.StderrPathFor(c.cfg.AudioFile), 300); tail != "" {
			log.Errorf("capture process errors: %s", tail)
		}
		if stale {
			return fmt.Errorf("%w: no usable artifact", ErrStaleLock)
		}
		return fmt.Errorf("%w: %s", ErrEmptyArtifact, c.cfg.AudioFile)
	}
	if size < smallArtifact {
		log.Warnf("audio artifact is very small (%d bytes)", size)
		c.notifyInfo("Warning: audio file is very small")
	}

	ctx := context.Background()
	if c.cfg.RequestTimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.RequestTimeoutS)*time.Second)
		defer cancel()
	}

	text, err := c.tr.Transcribe(ctx, c.cfg.AudioFile)
	if err == nil && text == "" {
		err = errors.New("transcription produced no text")
	}
	if err != nil {
		log.Errorf("transcription error: %v", err)
		c.notifyError("Transcription failed")
		// Artifact is kept for manual recovery.
		return fmt.Errorf("%w: %v", ErrTranscriptionFailure, err)
	}

	stoppedAt := c.now()
	path, saveErr := transcript.Save(c.cfg, text, stoppedAt)

	// Clipboard and notification are best-effort post-steps: they run even
	// when the transcript write failed, and never roll it back.
	if err := c.copyText(text); err != nil {
		log.Warnf("clipboard copy failed: %v", err)
	}

	if saveErr != nil {
		log.Errorf("transcript write failed: %v", saveErr)
		c.notifyError(fmt.Sprintf("Could not save transcript: %v", saveErr))
		return fmt.Errorf("%w: %v", ErrPersistenceFailure, saveErr)
	}

	var duration float64
	if !rec.StartedAt.IsZero() {
		duration = stoppedAt.Sub(rec.StartedAt).Seconds()
	}
	log.SessionEnd(duration, float64(size)/1024, path)
	log.TranscriptionText(text)
	c.notifyInfo("Transcribed: " + preview(text, 50))

	if !c.cfg.KeepAudio {
		os.Remove(c.cfg.AudioFile)
		os.Remove(recorder.StderrPathFor(c.cfg.AudioFile))
	}
	return nil
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
