package interfaces

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the failure classes of the provisioning handshake.
type ErrorKind int

const (
	UnknownErrorKind ErrorKind = iota
	TransportErrorKind
	ProtocolErrorKind
	DecodeErrorKind
	MalformedDocumentErrorKind
	MissingElementErrorKind
	EncodeErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case TransportErrorKind:
		return "transport"
	case ProtocolErrorKind:
		return "protocol"
	case DecodeErrorKind:
		return "decode"
	case MalformedDocumentErrorKind:
		return "malformed document"
	case MissingElementErrorKind:
		return "missing element"
	case EncodeErrorKind:
		return "encode"
	default:
		return "unknown"
	}
}

// KindedError is implemented by every error type of the handshake taxonomy.
type KindedError interface {
	error
	Kind() ErrorKind
}

// TransportError is returned when a wireserver call could not complete at all:
// connection refused, timeout, broken response.
type TransportError struct {
	Op  Operation
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error   { return e.Err }
func (e *TransportError) Kind() ErrorKind { return TransportErrorKind }

// ProtocolError is returned when the wireserver answered with a status other than 200.
type ProtocolError struct {
	Op         Operation
	StatusCode int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("HTTP status code %d while trying to %s", e.StatusCode, e.Op)
}

func (e *ProtocolError) Kind() ErrorKind { return ProtocolErrorKind }

// DecodeError is returned when a response body is not valid UTF-8 text.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode goal state: %v", e.Err)
}

func (e *DecodeError) Unwrap() error   { return e.Err }
func (e *DecodeError) Kind() ErrorKind { return DecodeErrorKind }

// MalformedDocumentError is returned when a body is not a well-formed XML document.
type MalformedDocumentError struct {
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %v", e.Err)
}

func (e *MalformedDocumentError) Unwrap() error   { return e.Err }
func (e *MalformedDocumentError) Kind() ErrorKind { return MalformedDocumentErrorKind }

// MissingElementError is returned when a required element is absent from the
// goal state. Path is the slash separated path of the element that was searched.
type MissingElementError struct {
	Tag  string
	Path string
}

func (e *MissingElementError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse goal state: missing %s tag", e.Tag)
	}
	return fmt.Sprintf("parse goal state: missing %s tag under %s", e.Tag, e.Path)
}

func (e *MissingElementError) Kind() ErrorKind { return MissingElementErrorKind }

// EncodeError is returned when the readiness document could not be written.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode readiness document: %v", e.Err)
}

func (e *EncodeError) Unwrap() error   { return e.Err }
func (e *EncodeError) Kind() ErrorKind { return EncodeErrorKind }

// KindOf returns the kind of the first taxonomy error found in err's chain.
func KindOf(err error) ErrorKind {
	var kinded KindedError
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return UnknownErrorKind
}

// IsRetryable reports whether repeating the failed call may succeed. Transport and
// protocol failures depend on remote state; decode, parse and encode failures are
// deterministic for the same input. Errors outside the taxonomy are retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case DecodeErrorKind, MalformedDocumentErrorKind, MissingElementErrorKind, EncodeErrorKind:
		return false
	default:
		return true
	}
}
