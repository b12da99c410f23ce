package transcriber

import "context"

// FakeTranscriber returns canned text or a canned error. Test helper.
type FakeTranscriber struct {
	Text string
	Err  error

	// Calls records the audio paths passed to Transcribe.
	Calls []string
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{Text: text, Err: err}
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.Calls = append(f.Calls, audioPath)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}
