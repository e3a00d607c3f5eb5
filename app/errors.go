package app

import "github.com/ayoisaiah/notch/internal/apperr"

var (
	errMissingID = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "%s needs an id argument",
	}

	errUnknownWeekday = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "unknown weekday %q in --repeat",
	}

	errIncompleteRange = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "--from and --to must be used together",
	}

	errRangeOrder = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "--to %s is before --from %s",
	}

	errRunnerActive = &apperr.Error{
		Kind:    apperr.KindUnsupported,
		Message: "a runner is already listening on %s",
	}

	errListen = &apperr.Error{
		Kind:    apperr.KindUnsupported,
		Message: "unable to listen on %s",
	}

	errConfirmation = &apperr.Error{
		Message: "confirmation prompt failed",
	}

	errForm = &apperr.Error{
		Message: "task form failed",
	}

	errMissingTitle = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "a task needs a title",
	}
)
