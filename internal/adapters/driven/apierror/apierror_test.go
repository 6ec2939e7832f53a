package apierror

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{200, nil},
		{204, nil},
		{429, domain.ErrRateLimited},
		{401, domain.ErrExternalService},
		{503, domain.ErrExternalService},
	}
	for _, tt := range tests {
		err := FromStatus("openai", tt.status, []byte(`{"error":"x"}`))
		if tt.want == nil {
			if err != nil {
				t.Errorf("status %d: unexpected error %v", tt.status, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
		if domain.ErrorKind(err) != domain.ErrorKindExternal {
			t.Errorf("status %d: kind %q", tt.status, domain.ErrorKind(err))
		}
	}
}

func TestFromStatus_TruncatesBody(t *testing.T) {
	err := FromStatus("ollama", 500, []byte(strings.Repeat("x", 2000)))
	if len(err.Error()) > maxBody+100 {
		t.Errorf("error message not truncated: %d bytes", len(err.Error()))
	}
}

func TestTransport(t *testing.T) {
	if err := Transport("openai", context.Canceled); !errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrExternalService) {
		t.Errorf("cancellation should pass through: %v", err)
	}
	if err := Transport("openai", errors.New("connection refused")); !errors.Is(err, domain.ErrExternalService) {
		t.Errorf("transport failure should be external: %v", err)
	}
}

func TestMalformed(t *testing.T) {
	err := Malformed("openai", "got %d embeddings for %d inputs", 1, 2)
	if !errors.Is(err, domain.ErrExternalService) || !strings.Contains(err.Error(), "got 1 embeddings for 2 inputs") {
		t.Errorf("unexpected error: %v", err)
	}
}
