package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindInvalidInput, http.StatusBadRequest},
		{KindUpstream, http.StatusBadGateway},
		{KindForbidden, http.StatusForbidden},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.kind.StatusCode(); got != tc.want {
			t.Errorf("%s.StatusCode() = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("list videos: %w", Upstream("failed to list videos", cause))

	if !Is(err, KindUpstream) {
		t.Fatalf("KindOf = %s, want upstream_failure", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost through wrapping")
	}
	if got := Message(err); got != "failed to list videos" {
		t.Fatalf("Message = %q", got)
	}
}

func TestPlainErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != KindInternal {
		t.Fatalf("KindOf = %s, want internal", KindOf(err))
	}
	if Message(err) != "internal server error" {
		t.Fatalf("Message leaked %q", Message(err))
	}
	if Is(nil, KindInternal) {
		t.Fatal("nil error has no kind")
	}
}
