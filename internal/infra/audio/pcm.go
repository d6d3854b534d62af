package audio

import (
	"encoding/base64"
	"fmt"

	"steppetalk/internal/domain"
)

// DecodePCMRequest validates the format tag and decodes the base64 sample
// payload. It returns domain.ErrInvalidFormat or domain.ErrBadEncoding.
func DecodePCMRequest(req domain.PCMRequest) ([]byte, error) {
	if req.Format != domain.PCMFormatS16LE {
		return nil, fmt.Errorf("format %q: %w", req.Format, domain.ErrInvalidFormat)
	}

	pcm, err := base64.StdEncoding.DecodeString(req.PCMBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadEncoding, err)
	}
	return pcm, nil
}

// EncodePCMRequest builds the payload an embedded client would send for
// the given samples.
func EncodePCMRequest(pcm []byte, sampleRate, channels, sampleWidth int, langHint string) domain.PCMRequest {
	return domain.PCMRequest{
		PCMBase64:   base64.StdEncoding.EncodeToString(pcm),
		SampleRate:  sampleRate,
		Channels:    channels,
		SampleWidth: sampleWidth,
		Format:      domain.PCMFormatS16LE,
		LangHint:    langHint,
	}
}

// FrameRequest turns a raw device upload into a WAV file ready for
// transcription.
func FrameRequest(req domain.PCMRequest) ([]byte, error) {
	pcm, err := DecodePCMRequest(req)
	if err != nil {
		return nil, err
	}
	return EncodeWAV(pcm, req.Channels, req.SampleWidth, req.SampleRate)
}
