package provisioning

import "errors"

// ErrorKind classifies a provisioning failure so callers can inspect its
// class with KindOf without string-matching errors.
type ErrorKind string

const (
	ErrKindDecode ErrorKind = "decode"
	ErrKindStore  ErrorKind = "store"
	ErrKindEngine ErrorKind = "engine"
	ErrKindNotify ErrorKind = "notify"
)

// KindError wraps an error with its classification. The worker's
// ack/nack decision does not depend on the kind: every failure, decode
// errors included, is nacked until the poison threshold is reached.
type KindError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindError) Error() string { return e.Err.Error() }
func (e *KindError) Unwrap() error { return e.Err }

// WrapKind annotates err with kind, or returns nil if err is nil.
func WrapKind(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to ErrKindEngine
// (the most common transient case) when err carries no classification.
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ErrKindEngine
}
