package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"steppetalk/internal/domain"
	"steppetalk/internal/infra/audio"
)

const rawSpeechSampleRate = 24000

// Assistant implements the translate, chat and speech use cases on top of
// the provider ports.
type Assistant struct {
	text     TextGenerator
	tts      SpeechSynthesizer
	stt      SpeechToText
	sessions SessionStore
	status   ProviderStatus
	logger   *slog.Logger
}

// NewAssistant wires the ports together.
func NewAssistant(
	text TextGenerator,
	tts SpeechSynthesizer,
	stt SpeechToText,
	sessions SessionStore,
	status ProviderStatus,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		text:     text,
		tts:      tts,
		stt:      stt,
		sessions: sessions,
		status:   status,
		logger:   logger,
	}
}

// Health reports liveness and whether the provider is configured.
func (a *Assistant) Health() HealthStatus {
	return HealthStatus{OK: true, OpenAIEnabled: a.status.Enabled()}
}

// SessionCount returns the number of live chat sessions.
func (a *Assistant) SessionCount() int {
	return a.sessions.Len()
}

// Translate validates req and translates its text between the two languages.
func (a *Assistant) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	translated, err := a.text.Translate(ctx, req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("translating: %w", err)
	}

	return &TranslateResponse{
		Original:   req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Translated: translated,
	}, nil
}

// Chat answers one user message within a session, creating the session
// when SessionID is empty. The user and assistant turns are stored only
// after the provider has answered.
func (a *Assistant) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var reply string
	err := a.sessions.Update(sessionID, func(history []domain.Turn) ([]domain.Turn, error) {
		out, err := a.text.Chat(ctx, history, req.Text, req.UserLang, req.AssistantLang, req.Mode)
		if err != nil {
			return nil, err
		}
		reply = out
		return []domain.Turn{
			{Role: domain.RoleUser, Text: req.Text},
			{Role: domain.RoleAssistant, Text: out},
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("chatting: %w", err)
	}

	a.logger.Debug("chat turn stored", "session_id", sessionID, "mode", req.Mode)

	return &ChatResponse{
		SessionID:     sessionID,
		UserText:      req.Text,
		AssistantText: reply,
	}, nil
}

// Session returns the stored history of id, empty when unknown.
func (a *Assistant) Session(id string) SessionView {
	return SessionView{SessionID: id, Messages: a.sessions.Get(id)}
}

// ClearSession forgets id. Unknown ids are ignored.
func (a *Assistant) ClearSession(id string) {
	a.sessions.Delete(id)
	a.logger.Debug("session cleared", "session_id", id)
}

// Speak returns synthesized audio and its media type.
func (a *Assistant) Speak(ctx context.Context, req SpeechRequest) ([]byte, string, error) {
	if err := req.normalize(); err != nil {
		return nil, "", err
	}

	data, err := a.tts.Synthesize(ctx, req.Text, req.Voice, req.Format)
	if err != nil {
		return nil, "", fmt.Errorf("synthesizing: %w", err)
	}
	return data, req.Format.ContentType(), nil
}

// SpeakRaw synthesizes WAV audio and strips the container so the samples
// can be played by a device without a decoder.
func (a *Assistant) SpeakRaw(ctx context.Context, req RawSpeechRequest) (*RawSpeechResponse, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	data, err := a.tts.Synthesize(ctx, req.Text, req.Voice, domain.AudioFormatWAV)
	if err != nil {
		return nil, fmt.Errorf("synthesizing: %w", err)
	}

	if len(data) == 0 {
		return &RawSpeechResponse{
			PCMRequest: audio.EncodePCMRequest(nil, rawSpeechSampleRate, 1, 2, ""),
			Lang:       req.Lang,
		}, nil
	}

	wav, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "synthesize", StatusCode: 200, Body: "invalid wav returned from TTS"}
	}

	return &RawSpeechResponse{
		PCMRequest: audio.EncodePCMRequest(wav.Data, wav.SampleRate, wav.Channels, wav.SampleWidth(), ""),
		Lang:       req.Lang,
	}, nil
}

// Transcribe forwards an uploaded audio file to speech recognition.
func (a *Assistant) Transcribe(ctx context.Context, data []byte, filename string) (*TranscriptResponse, error) {
	text, err := a.stt.Transcribe(ctx, data, filename, "")
	if err != nil {
		return nil, fmt.Errorf("transcribing: %w", err)
	}
	return &TranscriptResponse{Text: text}, nil
}

// TranscribeRaw frames a device PCM upload as WAV and transcribes it. The
// payload is validated before the provider is involved.
func (a *Assistant) TranscribeRaw(ctx context.Context, req domain.PCMRequest) (*TranscriptResponse, error) {
	wav, err := audio.FrameRequest(req)
	if err != nil {
		return nil, err
	}

	text, err := a.stt.Transcribe(ctx, wav, "mic.wav", req.LangHint)
	if err != nil {
		return nil, fmt.Errorf("transcribing: %w", err)
	}

	lang := req.LangHint
	if lang == "" {
		lang = "auto"
	}
	return &TranscriptResponse{Text: text, Lang: lang}, nil
}
