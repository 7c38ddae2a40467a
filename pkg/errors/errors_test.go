package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestStoreError_MatchesUnavailableAndCause(t *testing.T) {
	err := fmt.Errorf("query: %w", &StoreError{Backend: "sqlite", Op: "scan", Err: io.ErrUnexpectedEOF})

	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable match for %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause to be reachable for %v", err)
	}
	if errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("store error must not look like an invalid window")
	}

	var se *StoreError
	if !errors.As(err, &se) || se.Op != "scan" {
		t.Fatalf("errors.As failed: %+v", se)
	}
}

func TestConfigError_MatchesConfigInvalid(t *testing.T) {
	err := &ConfigError{Field: "probe.strategy", Err: ErrUnknownStrategy}
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid match")
	}
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy match")
	}
	if got := err.Error(); got != "config probe.strategy: unknown probe strategy" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestProbeError_Unwrap(t *testing.T) {
	err := &ProbeError{Strategy: "tcp", Target: "1.1.1.1:53", Err: ErrProbeNoReply}
	if !errors.Is(err, ErrProbeNoReply) {
		t.Fatalf("expected ErrProbeNoReply match")
	}
}
