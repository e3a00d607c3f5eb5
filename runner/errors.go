package runner

import (
	"errors"

	"github.com/ayoisaiah/notch/internal/apperr"
)

var (
	// ErrUnavailable is returned when no runner is listening.
	ErrUnavailable = &apperr.Error{
		Kind:    apperr.KindUnsupported,
		Message: "background runner unavailable at %s",
	}

	errClientClosed = &apperr.Error{
		Kind:    apperr.KindUnsupported,
		Message: "connection to the background runner was closed",
	}

	errRemote = &apperr.Error{
		Message: "runner: %s: %s",
	}

	errInvalidRequest = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "invalid %s request: %s",
	}

	errUnknownTimer = &apperr.Error{
		Kind:    apperr.KindNotFound,
		Message: "timer %s is unknown to the runner",
	}

	errUnknownMessage = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "unknown message type %q",
	}
)

var kindCodes = map[apperr.Kind]string{
	apperr.KindValidation:  "validation",
	apperr.KindNotFound:    "not_found",
	apperr.KindUnsupported: "unsupported",
	apperr.KindStoreIO:     "store_io",
}

// codeOf returns the wire code for an error's kind.
func codeOf(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return kindCodes[ae.Kind]
	}

	return ""
}

// remoteError rebuilds an error received from the runner, keeping its kind.
func remoteError(t MessageType, env Envelope) error {
	err := errRemote.Fmt(t, env.Error)

	for kind, code := range kindCodes {
		if code == env.Code {
			err.Kind = kind
		}
	}

	return err
}
