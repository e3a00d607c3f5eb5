package coordinator

import (
	"errors"

	"github.com/ayoisaiah/notch/internal/apperr"
)

var (
	// ErrInvalidDuration is returned when a timer would have no time to
	// count down.
	ErrInvalidDuration = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "invalid timer duration for %s: %d seconds",
	}

	errNoTimer = &apperr.Error{
		Kind:    apperr.KindNotFound,
		Message: "no timer for task %s",
	}

	errTimerName = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "a timer needs a name",
	}
)

func isNoTimer(err error) bool {
	return errors.Is(err, errNoTimer)
}
