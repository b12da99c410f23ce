// Package lock persists the single advisory session lock that marks a
// recording in progress. The lock is written only after the capture process
// has been verified running and removed only after it has been confirmed
// terminated, so a second invocation never observes an idle state while audio
// is still being written.
package lock

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Record is the persisted lock content.
type Record struct {
	PID       int       `json:"pid"`
	PGID      int       `json:"pgid,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Command   []string  `json:"command,omitempty"`
}

// Alive reports whether the recorded process still exists, using a signal-0
// probe. EPERM counts as alive: the process exists but belongs to someone else.
func (r Record) Alive() bool {
	if r.PID <= 0 {
		return false
	}
	err := unix.Kill(r.PID, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}

// Exists reports whether a lock file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Write persists rec to path.
func Write(path string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads the lock record from path.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Remove deletes the lock file. Removing an already-absent lock is not an
// error; stale recovery and error paths both call this unconditionally.
func Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
