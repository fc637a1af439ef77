// Package hiveerr defines the error taxonomy shared by the key, serializer,
// transaction and memo packages.
//
// Every error produced at a package boundary is a *Error carrying one of the
// codes below. Callers match on the family with errors.Is against the exported
// sentinels:
//
//	if errors.Is(err, hiveerr.ErrUnknownOperation) { ... }
//
// Two codes are easy to confuse:
//   - MALFORMED_INPUT: the encoding itself is structurally wrong (bad WIF
//     version byte, wrong length, unparsable amount).
//   - CHECKSUM_MISMATCH: the encoding is well formed but the content is
//     corrupted (WIF checksum, public key checksum).
package hiveerr

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	CodeMalformedInput     = "MALFORMED_INPUT"     // Bad prefix, length, or unparsable value
	CodeChecksumMismatch   = "CHECKSUM_MISMATCH"   // Structurally valid, content corrupted
	CodeSerialization      = "SERIALIZATION_ERROR" // Field-level encode failure
	CodeUnknownOperation   = "UNKNOWN_OPERATION"   // Unregistered operation tag
	CodeInvalidSignature   = "INVALID_SIGNATURE"   // Wrong length or non-canonical signature
	CodeInvalidKey         = "INVALID_KEY"         // Memo key check failed or key not on curve
	CodeOutOfRange         = "OUT_OF_RANGE"        // Buffer underflow or numeric overflow
	CodeSignatureExhausted = "SIGNATURE_EXHAUSTED" // Canonical signing loop hit its bound
)

// Error is the structured error returned by the core packages.
type Error struct {
	Code    string // One of the Code* constants
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code. This lets the
// package sentinels match any error of their family.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrMalformedInput     = &Error{Code: CodeMalformedInput, Message: "malformed input"}
	ErrChecksumMismatch   = &Error{Code: CodeChecksumMismatch, Message: "checksum mismatch"}
	ErrSerialization      = &Error{Code: CodeSerialization, Message: "serialization failed"}
	ErrUnknownOperation   = &Error{Code: CodeUnknownOperation, Message: "unknown operation"}
	ErrInvalidSignature   = &Error{Code: CodeInvalidSignature, Message: "invalid signature"}
	ErrInvalidKey         = &Error{Code: CodeInvalidKey, Message: "invalid key"}
	ErrOutOfRange         = &Error{Code: CodeOutOfRange, Message: "out of range"}
	ErrSignatureExhausted = &Error{Code: CodeSignatureExhausted, Message: "signature attempts exhausted"}
)

// Malformed returns a MALFORMED_INPUT error.
func Malformed(format string, args ...interface{}) error {
	return &Error{Code: CodeMalformedInput, Message: fmt.Sprintf(format, args...)}
}

// MalformedCause returns a MALFORMED_INPUT error wrapping cause.
func MalformedCause(cause error, format string, args ...interface{}) error {
	return &Error{Code: CodeMalformedInput, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Checksum returns a CHECKSUM_MISMATCH error.
func Checksum(format string, args ...interface{}) error {
	return &Error{Code: CodeChecksumMismatch, Message: fmt.Sprintf(format, args...)}
}

// UnknownOperation returns an UNKNOWN_OPERATION error for name.
func UnknownOperation(name string) error {
	return &Error{Code: CodeUnknownOperation, Message: fmt.Sprintf("no serializer for operation %q", name)}
}

// InvalidSignature returns an INVALID_SIGNATURE error.
func InvalidSignature(format string, args ...interface{}) error {
	return &Error{Code: CodeInvalidSignature, Message: fmt.Sprintf(format, args...)}
}

// InvalidKey returns an INVALID_KEY error.
func InvalidKey(format string, args ...interface{}) error {
	return &Error{Code: CodeInvalidKey, Message: fmt.Sprintf(format, args...)}
}

// OutOfRange returns an OUT_OF_RANGE error.
func OutOfRange(format string, args ...interface{}) error {
	return &Error{Code: CodeOutOfRange, Message: fmt.Sprintf(format, args...)}
}

// SerializationError is returned when a field of an operation or structure
// fails to encode. Path is the dotted location of the failing field, built
// from the outermost structure inwards (e.g. "transfer.amount").
type SerializationError struct {
	Path  string
	Cause error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", CodeSerialization, e.Path, e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSerialization.
func (e *SerializationError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == CodeSerialization
}

// WrapField prepends name to the path of err. Nested failures therefore read
// "account_create.owner.key_auths" rather than only the innermost field.
func WrapField(name string, err error) error {
	if err == nil {
		return nil
	}
	var se *SerializationError
	if errors.As(err, &se) {
		return &SerializationError{Path: name + "." + se.Path, Cause: se.Cause}
	}
	return &SerializationError{Path: name, Cause: err}
}
