package timer

import "github.com/ayoisaiah/notch/internal/apperr"

// ErrNoTimeLeft is returned when starting a timer that has already run down.
var ErrNoTimeLeft = &apperr.Error{
	Kind:    apperr.KindValidation,
	Message: "timer %s has no time left: reset it before starting",
}
