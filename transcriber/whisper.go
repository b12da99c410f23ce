package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultWhisperURL is where a locally running whisper.cpp server listens.
const DefaultWhisperURL = "http://127.0.0.1:8080"

// WhisperServer talks to a whisper.cpp-compatible inference server.
type WhisperServer struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewWhisperServer(baseURL, model string) *WhisperServer {
	return &WhisperServer{
		baseURL: baseURL,
		model:   model,
		client:  http.DefaultClient,
	}
}

func (w *WhisperServer) Name() string { return "whisper" }

type whisperResponse struct {
	Text string `json:"text"`
}

func (w *WhisperServer) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read audio data: %w", err)
	}
	if w.model != "" {
		writer.WriteField("model", w.model)
	}
	writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/inference", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(respBody, &wResp); err != nil {
		return "", fmt.Errorf("whisper response parse error: %w", err)
	}
	return wResp.Text, nil
}
