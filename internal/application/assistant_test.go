package application_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"steppetalk/internal/application"
	"steppetalk/internal/domain"
	"steppetalk/internal/infra/audio"
	"steppetalk/internal/infra/memory"
)

type chatCall struct {
	history       []domain.Turn
	text          string
	userLang      domain.Lang
	assistantLang domain.Lang
	mode          domain.ChatMode
}

type mockText struct {
	mu         sync.Mutex
	chats      []chatCall
	translates int
	err        error
}

func (m *mockText) Translate(_ context.Context, text string, source, target domain.Lang) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translates++
	if m.err != nil {
		return "", m.err
	}
	return string(target) + ":" + text, nil
}

func (m *mockText) Chat(_ context.Context, history []domain.Turn, text string, userLang, assistantLang domain.Lang, mode domain.ChatMode) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats = append(m.chats, chatCall{history, text, userLang, assistantLang, mode})
	if m.err != nil {
		return "", m.err
	}
	return "reply to " + text, nil
}

type mockTTS struct {
	audio  []byte
	err    error
	voice  string
	format domain.AudioFormat
	calls  int
}

func (m *mockTTS) Synthesize(_ context.Context, _ string, voice string, format domain.AudioFormat) ([]byte, error) {
	m.calls++
	m.voice = voice
	m.format = format
	return m.audio, m.err
}

type mockSTT struct {
	text     string
	err      error
	audio    []byte
	filename string
	language string
	calls    int
}

func (m *mockSTT) Transcribe(_ context.Context, audio []byte, filename, language string) (string, error) {
	m.calls++
	m.audio = audio
	m.filename = filename
	m.language = language
	return m.text, m.err
}

type staticStatus bool

func (s staticStatus) Enabled() bool { return bool(s) }

type fixture struct {
	text     *mockText
	tts      *mockTTS
	stt      *mockSTT
	sessions *memory.SessionStore
	app      *application.Assistant
}

func newFixture(enabled bool) *fixture {
	f := &fixture{
		text:     &mockText{},
		tts:      &mockTTS{},
		stt:      &mockSTT{text: "сәлем"},
		sessions: memory.NewSessionStore(memory.DefaultMaxTurns),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.app = application.NewAssistant(f.text, f.tts, f.stt, f.sessions, staticStatus(enabled), logger)
	return f
}

func TestAssistant_Health(t *testing.T) {
	if got := newFixture(false).app.Health(); !got.OK || got.OpenAIEnabled {
		t.Errorf("demo health: %+v", got)
	}
	if got := newFixture(true).app.Health(); !got.OK || !got.OpenAIEnabled {
		t.Errorf("live health: %+v", got)
	}
}

func TestAssistant_Translate(t *testing.T) {
	f := newFixture(true)

	resp, err := f.app.Translate(context.Background(), application.TranslateRequest{
		Text: "hello", SourceLang: domain.LangEnglish, TargetLang: domain.LangKazakh,
	})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}

	if resp.Original != "hello" || resp.Translated != "kk:hello" || resp.SourceLang != "en" || resp.TargetLang != "kk" {
		t.Errorf("response: %+v", resp)
	}
}

func TestAssistant_TranslateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  application.TranslateRequest
	}{
		{"empty text", application.TranslateRequest{Text: "", SourceLang: "en", TargetLang: "ru"}},
		{"too long", application.TranslateRequest{Text: strings.Repeat("ә", 4001), SourceLang: "en", TargetLang: "ru"}},
		{"unknown source", application.TranslateRequest{Text: "hi", SourceLang: "de", TargetLang: "ru"}},
		{"missing target", application.TranslateRequest{Text: "hi", SourceLang: "en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			_, err := f.app.Translate(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if f.text.translates != 0 {
				t.Error("provider called for an invalid request")
			}
		})
	}

	f := newFixture(true)
	if _, err := f.app.Translate(context.Background(), application.TranslateRequest{
		Text: strings.Repeat("ә", 4000), SourceLang: "kk", TargetLang: "en",
	}); err != nil {
		t.Errorf("4000 characters rejected: %v", err)
	}
}

func TestAssistant_ChatCreatesSession(t *testing.T) {
	f := newFixture(false)

	resp, err := f.app.Chat(context.Background(), application.ChatRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}

	if _, err := uuid.Parse(resp.SessionID); err != nil {
		t.Errorf("session id %q is not a uuid: %v", resp.SessionID, err)
	}
	if resp.UserText != "hello" || resp.AssistantText != "reply to hello" {
		t.Errorf("response: %+v", resp)
	}

	view := f.app.Session(resp.SessionID)
	want := []domain.Turn{
		{Role: domain.RoleUser, Text: "hello"},
		{Role: domain.RoleAssistant, Text: "reply to hello"},
	}
	if len(view.Messages) != 2 || view.Messages[0] != want[0] || view.Messages[1] != want[1] {
		t.Errorf("stored turns: %+v", view.Messages)
	}

	call := f.text.chats[0]
	if call.userLang != domain.LangEnglish || call.assistantLang != domain.LangRussian || call.mode != domain.ModeAssistant {
		t.Errorf("defaults not applied: %+v", call)
	}
	if len(call.history) != 0 {
		t.Errorf("new session history: %+v", call.history)
	}
}

func TestAssistant_ChatContinuesSession(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	first, err := f.app.Chat(ctx, application.ChatRequest{SessionID: "s1", Text: "one"})
	if err != nil {
		t.Fatalf("first chat: %v", err)
	}
	if first.SessionID != "s1" {
		t.Errorf("session id: got %q", first.SessionID)
	}

	if _, err := f.app.Chat(ctx, application.ChatRequest{SessionID: "s1", Text: "two", Mode: domain.ModeLearning, AssistantLang: domain.LangKazakh}); err != nil {
		t.Fatalf("second chat: %v", err)
	}

	call := f.text.chats[1]
	if len(call.history) != 2 || call.history[0].Text != "one" || call.history[1].Text != "reply to one" {
		t.Errorf("history passed to provider: %+v", call.history)
	}
	if call.mode != domain.ModeLearning || call.assistantLang != domain.LangKazakh {
		t.Errorf("request fields: %+v", call)
	}
	if got := len(f.app.Session("s1").Messages); got != 4 {
		t.Errorf("stored turns: got %d, want 4", got)
	}
}

func TestAssistant_ChatFailureStoresNothing(t *testing.T) {
	f := newFixture(true)
	f.text.err = &domain.UpstreamError{Op: "chat", StatusCode: 500, Body: "boom"}

	_, err := f.app.Chat(context.Background(), application.ChatRequest{SessionID: "s1", Text: "hello"})
	if !domain.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}

	if got := f.app.Session("s1").Messages; len(got) != 0 {
		t.Errorf("turns stored after failure: %+v", got)
	}
	if f.app.SessionCount() != 0 {
		t.Errorf("empty session kept after failure")
	}
}

func TestAssistant_ChatValidation(t *testing.T) {
	reqs := []application.ChatRequest{
		{Text: ""},
		{Text: "hi", Mode: "poet"},
		{Text: "hi", UserLang: "fr"},
		{Text: "hi", AssistantLang: "de"},
	}
	for _, req := range reqs {
		f := newFixture(true)
		if _, err := f.app.Chat(context.Background(), req); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("%+v: expected ErrInvalidRequest, got %v", req, err)
		}
		if len(f.text.chats) != 0 {
			t.Errorf("%+v: provider called", req)
		}
	}
}

func TestAssistant_ClearSession(t *testing.T) {
	f := newFixture(true)
	resp, _ := f.app.Chat(context.Background(), application.ChatRequest{Text: "hello"})

	f.app.ClearSession(resp.SessionID)
	f.app.ClearSession("never-existed")

	view := f.app.Session(resp.SessionID)
	if view.SessionID != resp.SessionID || view.Messages == nil || len(view.Messages) != 0 {
		t.Errorf("view after clear: %+v", view)
	}
}

func TestAssistant_Speak(t *testing.T) {
	f := newFixture(true)
	f.tts.audio = []byte("ID3")

	data, contentType, err := f.app.Speak(context.Background(), application.SpeechRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("Speak error: %v", err)
	}
	if string(data) != "ID3" || contentType != "audio/mpeg" {
		t.Errorf("got %q %q", data, contentType)
	}
	if f.tts.voice != "marin" || f.tts.format != domain.AudioFormatMP3 {
		t.Errorf("defaults: voice %q format %q", f.tts.voice, f.tts.format)
	}

	_, contentType, _ = f.app.Speak(context.Background(), application.SpeechRequest{Text: "hi", Format: domain.AudioFormatWAV})
	if contentType != "audio/wav" {
		t.Errorf("wav content type: %q", contentType)
	}

	calls := f.tts.calls
	if _, _, err := f.app.Speak(context.Background(), application.SpeechRequest{Text: "hi", Format: "ogg"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("ogg: expected ErrInvalidRequest, got %v", err)
	}
	if _, _, err := f.app.Speak(context.Background(), application.SpeechRequest{Text: strings.Repeat("a", 2001)}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("2001 chars: expected ErrInvalidRequest, got %v", err)
	}
	if f.tts.calls != calls {
		t.Error("provider called for an invalid request")
	}
}

func TestAssistant_SpeakRaw(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	wav, err := audio.EncodeWAV(pcm, 1, 2, 24000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	f := newFixture(true)
	f.tts.audio = wav

	resp, err := f.app.SpeakRaw(context.Background(), application.RawSpeechRequest{Text: "hi", Lang: domain.LangKazakh})
	if err != nil {
		t.Fatalf("SpeakRaw error: %v", err)
	}

	if resp.PCMBase64 != base64.StdEncoding.EncodeToString(pcm) {
		t.Errorf("pcm: got %q", resp.PCMBase64)
	}
	if resp.SampleRate != 24000 || resp.Channels != 1 || resp.SampleWidth != 2 || resp.Format != domain.PCMFormatS16LE || resp.Lang != "kk" {
		t.Errorf("response: %+v", resp)
	}
	if f.tts.voice != "alloy" || f.tts.format != domain.AudioFormatWAV {
		t.Errorf("synthesis request: voice %q format %q", f.tts.voice, f.tts.format)
	}
}

func TestAssistant_SpeakRawDemo(t *testing.T) {
	f := newFixture(false)
	f.tts.audio = []byte{}

	resp, err := f.app.SpeakRaw(context.Background(), application.RawSpeechRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("SpeakRaw error: %v", err)
	}
	if resp.PCMBase64 != "" || resp.Lang != domain.LangEnglish {
		t.Errorf("response: %+v", resp)
	}
}

func TestAssistant_SpeakRawErrors(t *testing.T) {
	f := newFixture(true)
	f.tts.audio = []byte("not a wav file at all, just some bytes")

	if _, err := f.app.SpeakRaw(context.Background(), application.RawSpeechRequest{Text: "hi"}); !domain.IsUpstream(err) {
		t.Errorf("garbage audio: expected UpstreamError, got %v", err)
	}

	calls := f.tts.calls
	if _, err := f.app.SpeakRaw(context.Background(), application.RawSpeechRequest{Text: "hi", Channels: 2}); !errors.Is(err, domain.ErrInvalidFormat) {
		t.Errorf("stereo: expected ErrInvalidFormat, got %v", err)
	}
	if _, err := f.app.SpeakRaw(context.Background(), application.RawSpeechRequest{Text: "hi", Format: "opus"}); !errors.Is(err, domain.ErrInvalidFormat) {
		t.Errorf("opus: expected ErrInvalidFormat, got %v", err)
	}
	if f.tts.calls != calls {
		t.Error("provider called for an invalid request")
	}
}

func TestAssistant_Transcribe(t *testing.T) {
	f := newFixture(true)

	resp, err := f.app.Transcribe(context.Background(), []byte("RIFF"), "note.m4a")
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if resp.Text != "сәлем" || resp.Lang != "" {
		t.Errorf("response: %+v", resp)
	}
	if f.stt.filename != "note.m4a" || f.stt.language != "" {
		t.Errorf("forwarded: %q %q", f.stt.filename, f.stt.language)
	}
}

func TestAssistant_TranscribeRaw(t *testing.T) {
	pcm := []byte{0x10, 0x00, 0xf0, 0xff}
	req := audio.EncodePCMRequest(pcm, 16000, 1, 2, "ru")

	f := newFixture(true)
	resp, err := f.app.TranscribeRaw(context.Background(), req)
	if err != nil {
		t.Fatalf("TranscribeRaw error: %v", err)
	}

	if resp.Text != "сәлем" || resp.Lang != "ru" {
		t.Errorf("response: %+v", resp)
	}
	if f.stt.filename != "mic.wav" || f.stt.language != "ru" {
		t.Errorf("forwarded: %q %q", f.stt.filename, f.stt.language)
	}

	wav, err := audio.DecodeWAV(f.stt.audio)
	if err != nil {
		t.Fatalf("provider did not receive a WAV: %v", err)
	}
	if wav.SampleRate != 16000 || string(wav.Data) != string(pcm) {
		t.Errorf("framed audio: %+v", wav)
	}

	req.LangHint = ""
	resp, _ = f.app.TranscribeRaw(context.Background(), req)
	if resp.Lang != "auto" {
		t.Errorf("lang without hint: got %q", resp.Lang)
	}
}

func TestAssistant_TranscribeRawRejectsBeforeProvider(t *testing.T) {
	tests := []struct {
		name string
		req  domain.PCMRequest
		want error
	}{
		{
			name: "wrong format",
			req:  domain.PCMRequest{PCMBase64: "AAAA", SampleRate: 16000, Channels: 1, SampleWidth: 2, Format: "pcm_f32le"},
			want: domain.ErrInvalidFormat,
		},
		{
			name: "bad base64",
			req:  domain.PCMRequest{PCMBase64: "@@not-base64@@", SampleRate: 16000, Channels: 1, SampleWidth: 2, Format: domain.PCMFormatS16LE},
			want: domain.ErrBadEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			_, err := f.app.TranscribeRaw(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if f.stt.calls != 0 {
				t.Error("provider called for a rejected payload")
			}
		})
	}
}
