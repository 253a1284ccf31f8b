package common

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Errors surfaced to callers of the portfolio service.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
	ErrUpstream     = errors.New("upstream service failure")
)

// FailureKind classifies why a call to an external collaborator failed.
type FailureKind string

const (
	FailureTransport    FailureKind = "transport"
	FailureTimeout      FailureKind = "timeout"
	FailureMalformed    FailureKind = "malformed"
	FailureRejected     FailureKind = "rejected"
	FailureUnconfigured FailureKind = "unconfigured"
)

// Failure is the error returned by every adapter (quote source, rule
// evaluator, sentiment analyzer, notifiers). Callers match on Kind and
// apply their fallback instead of propagating.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a Failure of an explicit kind.
func NewFailure(kind FailureKind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

// TransportFailure classifies a transport-level error, distinguishing
// deadline expiry from other network errors.
func TransportFailure(op string, err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFailure(FailureTimeout, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewFailure(FailureTimeout, op, err)
	}
	return NewFailure(FailureTransport, op, err)
}

// FailureKindOf returns the kind of a Failure anywhere in err's chain, or
// FailureTransport for foreign errors.
func FailureKindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureTransport
}
