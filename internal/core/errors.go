package core

import (
	"errors"
	"fmt"
)

// Exit codes for one-shot invocations.
const (
	ExitOK       = 0
	ExitRuntime  = 1
	ExitUsage    = 2
	ExitNotFound = 4
	ExitDevice   = 5
)

// Error kinds. Every error surfaced by the dispatcher matches exactly one of
// these with errors.Is.
var (
	ErrUnknownCommand       = errors.New("unknown command")
	ErrMissingDeviceContext = errors.New("missing device context")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotIndexed           = errors.New("music library not indexed")
	ErrUnknownField         = errors.New("unknown search field")
	ErrIllegalSeek          = errors.New("illegal seek")
	ErrDeviceFault          = errors.New("device fault")
)

// ErrExit is returned by the exit command.
var ErrExit = errors.New("exit")

// CLIError carries a user-visible message, its kind and exit code.
type CLIError struct {
	Code int
	Kind error
	Msg  string
	Err  error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause.
func (e *CLIError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// WrapError creates a CLIError with an underlying error.
func WrapError(kind error, msg string, err error) *CLIError {
	return &CLIError{Code: codeForKind(kind), Kind: kind, Msg: msg, Err: err}
}

// Errorf creates a CLIError of kind with a formatted message.
func Errorf(kind error, format string, args ...any) *CLIError {
	return &CLIError{Code: codeForKind(kind), Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// InvalidArgumentf creates an ErrInvalidArgument CLIError.
func InvalidArgumentf(format string, args ...any) *CLIError {
	return Errorf(ErrInvalidArgument, format, args...)
}

// Classify turns any handler error into a CLIError. Errors that are not
// already classified are device faults. ErrExit passes through.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrExit) {
		return err
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	return WrapError(ErrDeviceFault, "device error", err)
}

// ExitCode returns the CLI exit code from error.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrExit) {
		return ExitOK
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitRuntime
}

func codeForKind(kind error) int {
	switch kind {
	case ErrUnknownCommand, ErrMissingDeviceContext, ErrInvalidArgument, ErrUnknownField:
		return ExitUsage
	case ErrNotIndexed:
		return ExitNotFound
	case ErrIllegalSeek, ErrDeviceFault:
		return ExitDevice
	default:
		return ExitRuntime
	}
}
