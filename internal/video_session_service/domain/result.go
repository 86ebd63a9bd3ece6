package domain

import (
	"fmt"
)

// FailureKind classifies why a call produced no value.
type FailureKind int

const (
	FailureNetwork FailureKind = iota + 1
	FailureDecode
	FailureTimeout
	FailureRequest
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureDecode:
		return "decode"
	case FailureTimeout:
		return "timeout"
	case FailureRequest:
		return "request"
	default:
		return "unknown"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureNetwork:
		return ErrNetwork
	case FailureDecode:
		return ErrDecode
	case FailureTimeout:
		return ErrTimeout
	case FailureRequest:
		return ErrRequest
	default:
		return nil
	}
}

// Failure describes a call that did not succeed. StatusCode is set only when
// the gateway answered with a non-2xx status.
type Failure struct {
	Kind       FailureKind
	Operation  string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %s failure", f.Operation, f.Kind)
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is works
// against ErrNetwork/ErrDecode/ErrTimeout/ErrRequest as well as the cause.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := f.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// Result is the outcome of one isolated call: either a value or a Failure,
// never both. The zero Result is a failure of unknown kind.
type Result[T any] struct {
	value   *T
	failure *Failure
}

// Succeeded wraps v as a successful Result.
func Succeeded[T any](v T) Result[T] {
	return Result[T]{value: &v}
}

// Failed wraps f as a failed Result.
func Failed[T any](f *Failure) Result[T] {
	if f == nil {
		f = &Failure{}
	}
	return Result[T]{failure: f}
}

// Value returns the value, or nil when the call did not succeed.
func (r Result[T]) Value() *T {
	return r.value
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.value != nil
}

// Failure returns the failure reason, or nil on success.
func (r Result[T]) Failure() *Failure {
	if r.value != nil {
		return nil
	}
	if r.failure == nil {
		return &Failure{}
	}
	return r.failure
}
