package planner

import "github.com/ayoisaiah/notch/internal/apperr"

var (
	errMissingField = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "%s is required",
	}

	errTimeRange = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "end time %s must be after start time %s",
	}

	errOccurrenceDelete = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "%q is an occurrence of task %q: delete the task to remove every occurrence",
	}

	errTaskNotFound = &apperr.Error{
		Kind:    apperr.KindNotFound,
		Message: "task %q not found",
	}
)
