package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// Probe errors
	ErrProbeNoReply = errors.New("no reply from target")
	ErrProbeTimeout = errors.New("probe timed out")
	ErrProbeFailed  = errors.New("probe failed")

	// Storage errors
	ErrStoreUnavailable = errors.New("sample store unavailable")
	ErrInvalidSample    = errors.New("invalid sample")

	// Query errors
	ErrInvalidWindow = errors.New("invalid window")

	// Config errors
	ErrConfigInvalid   = errors.New("invalid config")
	ErrUnknownStrategy = errors.New("unknown probe strategy")
	ErrUnknownDriver   = errors.New("unknown storage driver")

	// Scheduler errors
	ErrSchedulerRunning    = errors.New("scheduler is already running")
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
)

// ProbeError represents a failed reachability check against one target
type ProbeError struct {
	Strategy string
	Target   string
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s probe %s: %v", e.Strategy, e.Target, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// StoreError represents a failed append or query against a sample store.
// Every StoreError matches ErrStoreUnavailable.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// ConfigError represents an invalid configuration field
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfigInvalid
}
