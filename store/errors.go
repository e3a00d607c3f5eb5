package store

import "github.com/ayoisaiah/notch/internal/apperr"

var (
	errStoreLocked = &apperr.Error{
		Kind:    apperr.KindStoreIO,
		Message: "is notch already running? Only one instance can access the data store at a time",
	}

	errStoreIO = &apperr.Error{
		Kind:    apperr.KindStoreIO,
		Message: "store: %s %s %q",
	}

	// ErrRecordNotFound is returned when a record id is absent from its
	// collection.
	ErrRecordNotFound = &apperr.Error{
		Kind:    apperr.KindNotFound,
		Message: "%s %q not found",
	}

	errRecordExists = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "%s %q already exists",
	}

	errOccurrenceWrite = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "occurrence %q is derived from task %q and cannot be stored",
	}
)
