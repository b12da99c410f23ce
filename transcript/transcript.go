// Package transcript computes destination paths for transcript files and
// writes them. Path layout is driven entirely by the filename_options config
// group; the datetime formats use strftime patterns.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"vox/config"
)

// PathFor returns the destination path for a session stopped at now.
// Deterministic given config and timestamp: with dated folders enabled the
// layout is <base>/<date>/<prefix>_<timestamp>[_<suffix>].txt, and filename
// collisions (datetime disabled) silently overwrite.
func PathFor(cfg config.Config, now time.Time) string {
	opts := cfg.FilenameOptions
	dir := cfg.TranscriptionsDir

	if opts.CreateDatedFolders {
		dir = filepath.Join(dir, strftime.Format(opts.DateFolderFormat, now))
	}

	parts := []string{opts.Prefix}
	if opts.UseDatetime {
		parts = append(parts, strftime.Format(opts.DatetimeFormat, now))
	}
	if opts.Suffix != "" {
		parts = append(parts, opts.Suffix)
	}
	return filepath.Join(dir, strings.Join(parts, "_")+".txt")
}

// Save writes text to the destination path for now, creating directories as
// needed. The file content is exactly the transcript text so that the file,
// the clipboard, and the transcriber output stay byte-identical.
func Save(cfg config.Config, text string, now time.Time) (string, error) {
	path := PathFor(cfg, now)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create transcript directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
