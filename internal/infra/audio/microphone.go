//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// Recorder captures mono 16-bit samples from the default input device, the
// same shape the embedded client streams to stt_raw.
type Recorder struct {
	sampleRate int
	logger     *slog.Logger
}

func NewRecorder(sampleRate int, logger *slog.Logger) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		logger:     logger,
	}
}

func (r *Recorder) SampleRate() int {
	return r.sampleRate
}

// Record returns little-endian PCM bytes for the requested duration, or
// what was captured so far if ctx is cancelled first.
func (r *Recorder) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.sampleRate), len(buffer), buffer)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	want := int(d.Seconds() * float64(r.sampleRate))
	pcm := make([]byte, 0, want*2)
	r.logger.Info("recording", "sampleRate", r.sampleRate, "duration", d)

	for len(pcm) < want*2 {
		select {
		case <-ctx.Done():
			r.logger.Warn("recording interrupted", "bytes", len(pcm))
			return pcm, nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}
		for _, sample := range buffer {
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(sample))
		}
	}

	return pcm[:want*2], nil
}
