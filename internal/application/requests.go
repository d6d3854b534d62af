package application

import (
	"fmt"
	"unicode/utf8"

	"steppetalk/internal/domain"
)

const (
	MaxTextRunes   = 4000
	MaxSpeechRunes = 2000

	DefaultVoice    = "marin"
	DefaultRawVoice = "alloy"
)

type TranslateRequest struct {
	Text       string      `json:"text"`
	SourceLang domain.Lang `json:"source_lang"`
	TargetLang domain.Lang `json:"target_lang"`
}

type TranslateResponse struct {
	Original   string      `json:"original"`
	SourceLang domain.Lang `json:"source_lang"`
	TargetLang domain.Lang `json:"target_lang"`
	Translated string      `json:"translated"`
}

type ChatRequest struct {
	SessionID     string          `json:"session_id,omitempty"`
	Text          string          `json:"text"`
	UserLang      domain.Lang     `json:"user_lang,omitempty"`
	AssistantLang domain.Lang     `json:"assistant_lang,omitempty"`
	Mode          domain.ChatMode `json:"mode,omitempty"`
}

type ChatResponse struct {
	SessionID     string `json:"session_id"`
	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`
}

type SessionView struct {
	SessionID string        `json:"session_id"`
	Messages  []domain.Turn `json:"messages"`
}

type SpeechRequest struct {
	Text   string             `json:"text"`
	Voice  string             `json:"voice,omitempty"`
	Format domain.AudioFormat `json:"format,omitempty"`
}

// RawSpeechRequest asks for synthesized speech as bare PCM samples, the
// shape embedded clients play back directly.
type RawSpeechRequest struct {
	Text     string      `json:"text"`
	Lang     domain.Lang `json:"lang,omitempty"`
	Voice    string      `json:"voice,omitempty"`
	Format   string      `json:"format,omitempty"`
	Channels int         `json:"channels,omitempty"`
}

type RawSpeechResponse struct {
	domain.PCMRequest
	Lang domain.Lang `json:"lang"`
}

type TranscriptResponse struct {
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
}

type HealthStatus struct {
	OK            bool `json:"ok"`
	OpenAIEnabled bool `json:"openai_enabled"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func checkText(text string, max int) error {
	if n := utf8.RuneCountInString(text); n < 1 || n > max {
		return invalid("text must be between 1 and %d characters", max)
	}
	return nil
}

func checkLang(field string, lang domain.Lang) error {
	if !lang.Valid() {
		return invalid("%s must be one of en, ru, kk", field)
	}
	return nil
}

func (r TranslateRequest) validate() error {
	if err := checkText(r.Text, MaxTextRunes); err != nil {
		return err
	}
	if err := checkLang("source_lang", r.SourceLang); err != nil {
		return err
	}
	return checkLang("target_lang", r.TargetLang)
}

func (r *ChatRequest) normalize() error {
	if r.UserLang == "" {
		r.UserLang = domain.LangEnglish
	}
	if r.AssistantLang == "" {
		r.AssistantLang = domain.LangRussian
	}
	if r.Mode == "" {
		r.Mode = domain.ModeAssistant
	}

	if err := checkText(r.Text, MaxTextRunes); err != nil {
		return err
	}
	if err := checkLang("user_lang", r.UserLang); err != nil {
		return err
	}
	if err := checkLang("assistant_lang", r.AssistantLang); err != nil {
		return err
	}
	if !r.Mode.Valid() {
		return invalid("mode must be one of assistant, tourist, learning")
	}
	return nil
}

func (r *SpeechRequest) normalize() error {
	if r.Voice == "" {
		r.Voice = DefaultVoice
	}
	if r.Format == "" {
		r.Format = domain.AudioFormatMP3
	}

	if err := checkText(r.Text, MaxSpeechRunes); err != nil {
		return err
	}
	if !r.Format.Valid() {
		return invalid("format must be mp3 or wav")
	}
	return nil
}

func (r *RawSpeechRequest) normalize() error {
	if r.Lang == "" {
		r.Lang = domain.LangEnglish
	}
	if r.Voice == "" {
		r.Voice = DefaultRawVoice
	}
	if r.Format == "" {
		r.Format = domain.PCMFormatS16LE
	}
	if r.Channels == 0 {
		r.Channels = 1
	}

	if err := checkText(r.Text, MaxSpeechRunes); err != nil {
		return err
	}
	if err := checkLang("lang", r.Lang); err != nil {
		return err
	}
	if r.Format != domain.PCMFormatS16LE || r.Channels != 1 {
		return fmt.Errorf("mono %s only: %w", domain.PCMFormatS16LE, domain.ErrInvalidFormat)
	}
	return nil
}
