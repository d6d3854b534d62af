package openai

import (
	"context"
	"io"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"steppetalk/internal/domain"
)

// Synthesize returns the encoded audio for text. Without an API key it
// returns no bytes.
func (c *Client) Synthesize(ctx context.Context, text, voice string, format domain.AudioFormat) (audio []byte, err error) {
	if !c.enabled {
		return []byte{}, nil
	}
	defer func(start time.Time) { c.observe("synthesize", start, err) }(time.Now())

	resp, err := c.sdk.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(c.cfg.TTSModel),
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormat(format),
	})
	if err != nil {
		return nil, sdkError("synthesize", err)
	}
	defer resp.Close()

	audio, err = io.ReadAll(resp)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "synthesize", Body: err.Error()}
	}
	return audio, nil
}
