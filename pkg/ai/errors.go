package ai

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrQuotaExceeded marks a narration request refused for lack of credits.
	ErrQuotaExceeded = errors.New("narration quota exceeded")
	// ErrInvalidAudio marks a narration payload that cannot be played.
	ErrInvalidAudio = errors.New("invalid narration audio")
)

// ServiceError is a non-2xx response from an upstream service.
type ServiceError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s api error: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s api error: status %d: %s", e.Service, e.StatusCode, e.Body)
}

const maxErrorBody = 4 << 10

// serviceError drains at most 4 KiB of resp.Body into a ServiceError.
func serviceError(service string, resp *http.Response) *ServiceError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &ServiceError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
