package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind int

const (
	// NetworkFailure means no HTTP response was received.
	NetworkFailure Kind = iota
	// AuthorizationExpired means the server answered 401.
	AuthorizationExpired
	// ServerRejected means any other non-2xx answer.
	ServerRejected
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case AuthorizationExpired:
		return "authorization_expired"
	case ServerRejected:
		return "server_rejected"
	default:
		return "unknown"
	}
}

// Sentinels matched with errors.Is against an *Error of the same kind.
var (
	ErrNetworkFailure       = errors.New("network failure")
	ErrAuthorizationExpired = errors.New("authorization expired")
	ErrServerRejected       = errors.New("server rejected request")
)

// Error is returned by Client.Send for every unsuccessful request.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for network failures
	Message string // server-provided message, if any
	Err     error  // transport error for network failures
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Kind == NetworkFailure && e.Err != nil:
		return fmt.Sprintf("could not reach server: %v", e.Err)
	case e.Kind == AuthorizationExpired:
		return "session expired, please log in again"
	default:
		return fmt.Sprintf("server returned status %d", e.Status)
	}
}

func (e *Error) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case NetworkFailure:
		sentinel = ErrNetworkFailure
	case AuthorizationExpired:
		sentinel = ErrAuthorizationExpired
	default:
		sentinel = ErrServerRejected
	}
	if e.Err != nil {
		return []error{sentinel, e.Err}
	}
	return []error{sentinel}
}

// ServerMessage returns the message the server attached to err, if any.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
