package domain

import "errors"

// RemoteError is the single typed error surfaced by sessions. Every remote
// or device failure is converted into one of these at the boundary where it
// occurs; nothing else escapes to callers.
type RemoteError struct {
	Kind       ErrorKind
	Message    string
	HTTPStatus int
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// NewValidationError refuses a request before any I/O happens.
func NewValidationError(message string) *RemoteError {
	return &RemoteError{Kind: ErrValidation, Message: message}
}

// NewTransportError wraps a failure where no response was received at all.
func NewTransportError(err error) *RemoteError {
	return &RemoteError{Kind: ErrTransport, Message: err.Error()}
}

// NewServerRejectedError carries the human-readable detail extracted from a
// non-success response body.
func NewServerRejectedError(status int, detail string) *RemoteError {
	return &RemoteError{Kind: ErrServerRejected, Message: detail, HTTPStatus: status}
}

// NewDecodeFailureError stands in when a response body could not be parsed.
func NewDecodeFailureError(status int) *RemoteError {
	return &RemoteError{
		Kind:       ErrDecodeFailure,
		Message:    "server returned an unreadable response",
		HTTPStatus: status,
	}
}

// NewDeviceUnavailableError reports a missing or unopenable capture device.
func NewDeviceUnavailableError(message string) *RemoteError {
	return &RemoteError{Kind: ErrDeviceUnavailable, Message: message}
}

// NewPermissionDeniedError reports refused access to the capture device.
func NewPermissionDeniedError(message string) *RemoteError {
	return &RemoteError{Kind: ErrPermissionDenied, Message: message}
}

// AsRemoteError unwraps err into a RemoteError if one is in its chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}

// KindOf returns the error kind, or the empty string for untyped errors.
func KindOf(err error) ErrorKind {
	if remote, ok := AsRemoteError(err); ok {
		return remote.Kind
	}
	return ""
}
