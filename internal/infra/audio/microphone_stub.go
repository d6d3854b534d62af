//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Recorder stub when portaudio is not available
type Recorder struct {
	sampleRate int
}

func NewRecorder(sampleRate int, _ *slog.Logger) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

func (r *Recorder) SampleRate() int {
	return r.sampleRate
}

func (r *Recorder) Record(_ context.Context, _ time.Duration) ([]byte, error) {
	return nil, fmt.Errorf("microphone capture not available: rebuild with -tags portaudio")
}
