package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FilenameOptions control how transcript destination paths are built.
type FilenameOptions struct {
	UseDatetime        bool   `toml:"use_datetime"`
	CreateDatedFolders bool   `toml:"create_dated_folders"`
	Prefix             string `toml:"prefix"`
	Suffix             string `toml:"suffix"`
	DatetimeFormat     string `toml:"datetime_format"`
	DateFolderFormat   string `toml:"date_folder_format"`
}

// Config holds every option the tool recognizes. Loaded once per invocation,
// never mutated afterwards.
type Config struct {
	TranscriptionsDir string `toml:"transcriptions_directory"`
	// TranscriptionsFile is legacy: when set and TranscriptionsDir is empty,
	// the directory is derived from it.
	TranscriptionsFile string `toml:"transcriptions_file"`
	ModelName          string `toml:"model_name"`
	SampleRate         int    `toml:"sample_rate"`
	Channels           int    `toml:"channels"`
	BitDepth           int    `toml:"bit_depth"`
	LockFile           string `toml:"lock_file"`
	AudioFile          string `toml:"audio_file"`
	KeepAudio          bool   `toml:"keep_audio"`
	RequestTimeoutS    int    `toml:"request_timeout_s"`

	FilenameOptions FilenameOptions `toml:"filename_options"`
}

// Default returns the documented defaults for every option.
func Default() Config {
	return Config{
		TranscriptionsDir: "~/Documents/transcriptions",
		ModelName:         "base.en",
		SampleRate:        16000,
		Channels:          1,
		BitDepth:          16,
		LockFile:          "/tmp/vox_rec.lock",
		AudioFile:         "/tmp/vox_capture.wav",
		KeepAudio:         false,
		RequestTimeoutS:   120,
		FilenameOptions: FilenameOptions{
			UseDatetime:        true,
			CreateDatedFolders: true,
			Prefix:             "transcription",
			Suffix:             "",
			DatetimeFormat:     "%Y-%m-%d_%H-%M-%S",
			DateFolderFormat:   "%Y-%m-%d",
		},
	}
}

// Path resolves the config file location: explicit flag value, then the
// VOX_CONFIG environment variable, then ~/.config/vox/config.toml.
func Path(flagPath string) string {
	if flagPath != "" {
		return expandTilde(flagPath)
	}
	if env := os.Getenv("VOX_CONFIG"); env != "" {
		return expandTilde(env)
	}
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "vox")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "vox")
	} else {
		configDir = "."
	}
	return filepath.Join(configDir, "config.toml")
}

// Load reads the config file at path, applying defaults for anything missing.
// If the file does not exist it is created with defaults. A malformed file is
// reported but does not prevent startup; defaults are used instead.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if werr := WriteDefault(path); werr != nil {
			return normalize(cfg), fmt.Errorf("create default config: %w", werr)
		}
		return normalize(cfg), nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return normalize(Default()), fmt.Errorf("parse config %s: %w", path, err)
	}
	return normalize(cfg), nil
}

// WriteDefault writes a config file populated with the defaults.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(Default())
}

// Validate checks audio parameters against the ranges the recorder accepts.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample_rate: %d (must be > 0)", c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 8 {
		return fmt.Errorf("invalid channels: %d (allowed 1..8)", c.Channels)
	}
	switch c.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("invalid bit_depth: %d (allowed: 8, 16, 24, 32)", c.BitDepth)
	}
	return nil
}

func normalize(cfg Config) Config {
	cfg.TranscriptionsFile = expandTilde(cfg.TranscriptionsFile)
	cfg.TranscriptionsDir = expandTilde(cfg.TranscriptionsDir)
	cfg.LockFile = expandTilde(cfg.LockFile)
	cfg.AudioFile = expandTilde(cfg.AudioFile)

	// Legacy transcriptions_file: derive the directory when none is set.
	if cfg.TranscriptionsDir == "" {
		if cfg.TranscriptionsFile != "" {
			cfg.TranscriptionsDir = filepath.Dir(cfg.TranscriptionsFile)
		} else {
			cfg.TranscriptionsDir = expandTilde("~/Documents/transcriptions")
		}
	}
	return cfg
}

func expandTilde(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
