package config

import "github.com/ayoisaiah/notch/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errDecodeConfig = &apperr.Error{
		Message: "decoding config failed",
	}

	errInvalidSoundFormat = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "invalid sound file format: %s (must be mp3, ogg, flac, or wav)",
	}

	errUnknownSound = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "sound file %s does not exist",
	}

	errInvalidInterval = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "tick interval must be between %v and %v, got %v",
	}

	errInvalidDialTimeout = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "runner dial timeout must be between %v and %v, got %v",
	}

	errInvalidLogLevel = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "unknown log level %q",
	}

	errInvalidLogRotation = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "log %s cannot be negative",
	}
)
