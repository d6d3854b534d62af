// Command wav2json builds the JSON body an embedded client posts to
// /stt_raw, either from a mono 16-bit WAV file or from the microphone.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"steppetalk/internal/domain"
	"steppetalk/internal/infra/audio"
)

func main() {
	in := flag.String("in", "", "input WAV file (mono, 16-bit)")
	out := flag.String("out", "-", "output JSON file, - for stdout")
	lang := flag.String("lang", "", "optional language hint (en, ru, kk)")
	mic := flag.Duration("mic", 0, "record from the default microphone for this long instead of reading -in")
	rate := flag.Int("rate", 16000, "microphone sample rate")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req, err := buildRequest(ctx, *in, *mic, *rate, *lang, logger)
	if err != nil {
		logger.Error("building request", "error", err)
		os.Exit(1)
	}

	if err := writeRequest(*out, req); err != nil {
		logger.Error("writing request", "error", err)
		os.Exit(1)
	}

	logger.Info("wrote stt_raw payload",
		"out", *out,
		"sample_rate", req.SampleRate,
		"pcm_b64_len", len(req.PCMBase64),
	)
}

func buildRequest(ctx context.Context, in string, mic time.Duration, rate int, lang string, logger *slog.Logger) (domain.PCMRequest, error) {
	if mic > 0 {
		pcm, err := audio.NewRecorder(rate, logger).Record(ctx, mic)
		if err != nil {
			return domain.PCMRequest{}, fmt.Errorf("recording: %w", err)
		}
		return audio.EncodePCMRequest(pcm, rate, 1, 2, lang), nil
	}

	if in == "" {
		return domain.PCMRequest{}, fmt.Errorf("either -in or -mic is required")
	}

	wav, err := audio.ReadWAVFile(in)
	if err != nil {
		return domain.PCMRequest{}, err
	}
	return fromWAV(wav, lang)
}

// fromWAV accepts only what the device itself produces.
func fromWAV(wav *audio.WAV, lang string) (domain.PCMRequest, error) {
	if wav.Channels != 1 {
		return domain.PCMRequest{}, fmt.Errorf("need mono WAV, got %d channels", wav.Channels)
	}
	if wav.SampleWidth() != 2 {
		return domain.PCMRequest{}, fmt.Errorf("need 16-bit WAV, got %d-bit", wav.BitsPerSample)
	}
	return audio.EncodePCMRequest(wav.Data, wav.SampleRate, wav.Channels, wav.SampleWidth(), lang), nil
}

func writeRequest(path string, req domain.PCMRequest) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(req)
}
