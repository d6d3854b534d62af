package application

import (
	"context"

	"steppetalk/internal/domain"
)

type SpeechToText interface {
	// Transcribe returns the text spoken in audio. filename tells the
	// provider the container type; language may be empty.
	Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string, format domain.AudioFormat) ([]byte, error)
}
