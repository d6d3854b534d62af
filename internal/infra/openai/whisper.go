package openai

import (
	"bytes"
	"context"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"steppetalk/internal/textnorm"
)

const demoTranscript = "(demo) STT отключен без ключа"

// Transcribe uploads audio as filename to the transcription endpoint.
// language may be empty to let the provider detect it.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, language string) (text string, err error) {
	if !c.enabled {
		return demoTranscript, nil
	}
	defer func(start time.Time) { c.observe("transcribe", start, err) }(time.Now())

	if filename == "" {
		filename = "audio.wav"
	}

	resp, err := c.sdk.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    c.cfg.STTModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Language: language,
	})
	if err != nil {
		return "", sdkError("transcribe", err)
	}

	return textnorm.Clean(resp.Text), nil
}
