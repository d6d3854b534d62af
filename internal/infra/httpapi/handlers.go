package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"steppetalk/internal/application"
	"steppetalk/internal/domain"
)

const (
	jsonBodyLimit      = 1 << 20
	multipartOverhead  = 1 << 20
	uploadFieldName    = "file"
	defaultSTTFilename = "audio.wav"
)

type pingRequest struct {
	Message string `json:"message"`
}

type pingResponse struct {
	Reply string `json:"reply"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Health())
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	var req pingRequest
	if err := decodeJSON(w, r, &req, jsonBodyLimit); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pingResponse{Reply: "got: " + req.Message})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req application.TranslateRequest
	if err := decodeJSON(w, r, &req, jsonBodyLimit); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.app.Translate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req application.ChatRequest
	if err := decodeJSON(w, r, &req, jsonBodyLimit); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.app.Chat(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Session(chi.URLParam(r, "id")))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.app.ClearSession(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req application.SpeechRequest
	if err := decodeJSON(w, r, &req, jsonBodyLimit); err != nil {
		s.writeError(w, r, err)
		return
	}

	audio, contentType, err := s.app.Speak(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleTTSRaw(w http.ResponseWriter, r *http.Request) {
	var req application.RawSpeechRequest
	if err := decodeJSON(w, r, &req, jsonBodyLimit); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.app.SpeakRaw(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSTT streams the multipart body and stops reading as soon as the
// upload exceeds the limit, so oversized files never reach the provider.
func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	maxUpload := s.opts.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+multipartOverhead)

	audio, filename, err := readUpload(r, maxUpload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.app.Transcribe(r.Context(), audio, filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSTTRaw(w http.ResponseWriter, r *http.Request) {
	// base64 inflates the samples by a third
	limit := s.opts.MaxUploadBytes/3*4 + jsonBodyLimit

	var req domain.PCMRequest
	if err := decodeJSON(w, r, &req, limit); err != nil {
		var bodyErr *bodyTooLargeError
		if errors.As(err, &bodyErr) {
			// the body is the audio, so report the upload cap
			err = fmt.Errorf("pcm payload over %d bytes: %w", bodyErr.limit, domain.ErrPayloadTooLarge)
		}
		s.writeError(w, r, err)
		return
	}

	resp, err := s.app.TranscribeRaw(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.SetSessions(s.app.SessionCount())
	s.metrics.Handler().ServeHTTP(w, r)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &bodyTooLargeError{limit: maxErr.Limit}
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func readUpload(r *http.Request, maxUpload int64) ([]byte, string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("%w: expected multipart/form-data: %v", domain.ErrInvalidRequest, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", fmt.Errorf("%w: missing %q field", domain.ErrInvalidRequest, uploadFieldName)
		}
		if err != nil {
			return nil, "", uploadError(err)
		}

		if part.FormName() != uploadFieldName {
			part.Close()
			continue
		}
		return readPart(part, maxUpload)
	}
}

func readPart(part *multipart.Part, maxUpload int64) ([]byte, string, error) {
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, maxUpload+1))
	if err != nil {
		return nil, "", uploadError(err)
	}
	if int64(len(data)) > maxUpload {
		return nil, "", fmt.Errorf("upload over %d bytes: %w", maxUpload, domain.ErrPayloadTooLarge)
	}

	filename := part.FileName()
	if filename == "" {
		filename = defaultSTTFilename
	}
	return data, filename, nil
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("request body over %d bytes: %w", maxErr.Limit, domain.ErrPayloadTooLarge)
	}
	return fmt.Errorf("%w: reading upload: %v", domain.ErrInvalidRequest, err)
}
