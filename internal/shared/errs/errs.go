// Package errs defines the error taxonomy shared by the VFS backend.
//
// Every error that crosses a component boundary carries a Kind. The Kind
// decides the caller-facing status; the message is safe to show to clients
// and never contains disk paths. The wrapped cause is kept for logs only.
//
// Example Usage:
//
//	if err := os.Remove(abs); err != nil {
//		return errs.FromOS("vfs.delete", "failed to delete item", err)
//	}
//
//	if errors.Is(err, errs.ErrNotFound) {
//		// ...
//	}
package errs

import (
	"errors"
	"io/fs"
)

// Kind classifies an error.
type Kind uint8

const (
	// IOError is an underlying storage failure. It is also the kind reported
	// for errors that carry no classification.
	IOError Kind = iota
	// InvalidPath is malformed caller input.
	InvalidPath
	// AccessDenied is a containment violation.
	AccessDenied
	// NotFound is a missing user, file or session.
	NotFound
	// Conflict is a duplicate resource such as an existing username.
	Conflict
	// Unauthorized is a credential failure.
	Unauthorized
	// DecryptionFailed is a ciphertext or key mismatch.
	DecryptionFailed
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case InvalidPath:
		return "invalid_path"
	case AccessDenied:
		return "access_denied"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case DecryptionFailed:
		return "decryption_failed"
	default:
		return "io_error"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Sentinels for errors.Is checks. Each matches any *Error of the same kind.
var (
	ErrInvalidPath      = &Error{Kind: InvalidPath}
	ErrAccessDenied     = &Error{Kind: AccessDenied}
	ErrNotFound         = &Error{Kind: NotFound}
	ErrConflict         = &Error{Kind: Conflict}
	ErrUnauthorized     = &Error{Kind: Unauthorized}
	ErrDecryptionFailed = &Error{Kind: DecryptionFailed}
	ErrIO               = &Error{Kind: IOError}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// New creates a classified error without a cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap creates a classified error around cause.
func Wrap(kind Kind, op, msg string, cause error) error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// FromOS classifies an error returned by the os package.
func FromOS(op, msg string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(NotFound, op, msg, err)
	case errors.Is(err, fs.ErrExist):
		return Wrap(Conflict, op, msg, err)
	default:
		return Wrap(IOError, op, msg, err)
	}
}

// KindOf returns the kind of err. Unclassified errors are IOError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return IOError
}

// Is reports whether err has the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-safe message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}
