package verify

import (
	"errors"
	"fmt"
)

// Kind classifies terminal verification errors.
type Kind int

const (
	// KindStructural covers malformed encodings and broken hash chains.
	KindStructural Kind = iota
	// KindMath covers invalid curve points and failed signature checks.
	KindMath
	// KindPolicy covers unsupported chains or methods and values that
	// contradict the request.
	KindPolicy
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindMath:
		return "math"
	case KindPolicy:
		return "policy"
	default:
		return "unknown"
	}
}

// Error is a terminal verification failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// PendingError reports that the committees of the given periods must be
// supplied before verification can finish. It is not terminal.
type PendingError struct {
	FirstMissingPeriod uint64
	LastMissingPeriod  uint64
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("verify: waiting for sync committee periods %d..%d", e.FirstMissingPeriod, e.LastMissingPeriod)
}

var (
	ErrUnsupportedChain  = errors.New("verify: unsupported chain")
	ErrUnsupportedMethod = errors.New("verify: unsupported method")
	ErrInvalidArgs       = errors.New("verify: invalid arguments")
	ErrProofType         = errors.New("verify: proof type does not match method")
	ErrDataType          = errors.New("verify: result data does not match method")
	ErrMismatch          = errors.New("verify: proven value does not match result")
	ErrArgMismatch       = errors.New("verify: result does not match request")
	ErrBodyRoot          = errors.New("verify: payload proof does not match header body root")
	ErrNoCheckpoint      = errors.New("verify: no trusted checkpoint to bootstrap from")
	ErrTerminal          = errors.New("verify: context already finished")
)

func structural(err error, format string, args ...any) *Error {
	return &Error{Kind: KindStructural, Msg: fmt.Sprintf(format, args...), Err: err}
}

func mathErr(err error, format string, args ...any) *Error {
	return &Error{Kind: KindMath, Msg: fmt.Sprintf(format, args...), Err: err}
}

func policy(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPolicy, Msg: fmt.Sprintf(format, args...), Err: err}
}
