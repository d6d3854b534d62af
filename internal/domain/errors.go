package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBadEncoding     = errors.New("invalid base64 pcm_b64")
	ErrInvalidFormat   = errors.New("only pcm_s16le supported")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrInvalidRequest  = errors.New("invalid request")
)

// UpstreamError reports a failed call to the AI provider. Body carries the
// provider's error payload as received.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: provider unreachable: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("%s: provider error %d: %s", e.Op, e.StatusCode, e.Body)
}

func IsUpstream(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr)
}
