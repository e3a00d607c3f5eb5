package ui

import (
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/notch/internal/models"
)

var DarkTheme bool

func Green(a any) string {
	if DarkTheme {
		return pterm.LightGreen(a)
	}

	return pterm.Green(a)
}

func Cyan(a any) string {
	if DarkTheme {
		return pterm.LightCyan(a)
	}

	return pterm.Cyan(a)
}

func Yellow(a any) string {
	if DarkTheme {
		return pterm.LightYellow(a)
	}

	return pterm.Yellow(a)
}

func Red(a any) string {
	if DarkTheme {
		return pterm.LightRed(a)
	}

	return pterm.Red(a)
}

func Gray(a any) string {
	return pterm.Gray(a)
}

func Highlight(a any) string {
	if DarkTheme {
		return pterm.LightWhite(a)
	}

	return pterm.Black(a)
}

// Status colours a task status.
func Status(s models.Status) string {
	switch s {
	case models.StatusOngoing:
		return Cyan(s)
	case models.StatusPending:
		return Yellow(s)
	case models.StatusCompleted:
		return Green(s)
	case models.StatusCancelled:
		return Red(s)
	default:
		return Gray(s)
	}
}

// TimerStatus colours a timer status.
func TimerStatus(s models.TimerStatus) string {
	switch s {
	case models.TimerRunning:
		return Cyan(s)
	case models.TimerPaused:
		return Yellow(s)
	case models.TimerCompleted:
		return Green(s)
	default:
		return Gray(s)
	}
}

// Swatch renders a small block in a category's hex colour.
func Swatch(hex string) string {
	rgb, err := pterm.NewRGBFromHEX(hex)
	if err != nil {
		return " "
	}

	return rgb.Sprint("■")
}
