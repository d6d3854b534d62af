package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"steppetalk/internal/domain"
)

// bodyTooLargeError is a request body over limit that is not an audio
// upload.
type bodyTooLargeError struct {
	limit int64
}

func (e *bodyTooLargeError) Error() string {
	return fmt.Sprintf("request body over %d bytes", e.limit)
}

func (e *bodyTooLargeError) Unwrap() error {
	return domain.ErrPayloadTooLarge
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err, s.opts.MaxUploadBytes)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

func classify(err error, maxUpload int64) (int, string) {
	var (
		upErr   *domain.UpstreamError
		bodyErr *bodyTooLargeError
	)
	switch {
	case errors.As(err, &upErr):
		return http.StatusBadGateway, "OpenAI error: " + upErr.Body
	case errors.As(err, &bodyErr):
		return http.StatusRequestEntityTooLarge, "Request body too large (max " + formatSize(bodyErr.limit) + ")"
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large (max %dMB)", maxUpload>>20)
	case errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrBadEncoding),
		errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
