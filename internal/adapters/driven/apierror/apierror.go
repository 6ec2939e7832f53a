// Package apierror maps HTTP API failures from model providers onto the
// domain error taxonomy.
package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// maxBody bounds how much of an error body is echoed into messages.
const maxBody = 512

// FromStatus returns nil for 2xx, otherwise an error wrapping
// domain.ErrRateLimited for 429 and domain.ErrExternalService for the rest.
func FromStatus(provider string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrRateLimited, status, msg)
	}
	return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrExternalService, status, msg)
}

// Transport wraps a request failure. Context cancellation is passed
// through unchanged so callers can tell it apart from provider outages.
func Transport(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return fmt.Errorf("%s: %w: %v", provider, domain.ErrExternalService, err)
}

// Malformed reports a response that could not be used.
func Malformed(provider, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", provider, domain.ErrExternalService, fmt.Sprintf(format, args...))
}
