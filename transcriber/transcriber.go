// Package transcriber turns a captured audio file into text. The speech
// recognition itself is delegated to an external collaborator: the Groq batch
// API when an API key is present, otherwise a local whisper.cpp-compatible
// server.
package transcriber

import (
	"context"
	"os"

	"vox/config"
)

// Transcriber consumes an audio file and returns the recognized text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// New selects a transcriber: GROQ_API_KEY wins, otherwise the local whisper
// server (VOX_WHISPER_URL or the default endpoint) with the configured model.
func New(cfg config.Config) Transcriber {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key)
	}
	url := os.Getenv("VOX_WHISPER_URL")
	if url == "" {
		url = DefaultWhisperURL
	}
	return NewWhisperServer(url, cfg.ModelName)
}
