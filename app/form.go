package app

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/timeutil"
)

// taskInput holds the fields of a task as the user typed them.
type taskInput struct {
	Title string
	Start string
	End   string
	Notes string
}

func (in *taskInput) incomplete() bool {
	return in.Title == "" || in.Start == "" || in.End == ""
}

func validateClock(s string) error {
	_, err := timeutil.ParseClock(s)
	return err
}

// promptTask asks for the fields that were not given as flags.
func promptTask(in *taskInput, categories []models.Category, category *string) error {
	opts := make([]huh.Option[string], 0, len(categories)+1)
	opts = append(opts, huh.NewOption("None", ""))

	for i := range categories {
		opts = append(opts, huh.NewOption(categories[i].Name, categories[i].ID))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&in.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errMissingTitle
					}

					return nil
				}),
			huh.NewInput().
				Title("Start time").
				Placeholder("09:00").
				Value(&in.Start).
				Validate(validateClock),
			huh.NewInput().
				Title("End time").
				Placeholder("10:30").
				Value(&in.End).
				Validate(validateClock),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(opts...).
				Value(category),
			huh.NewText().
				Title("Notes").
				Value(&in.Notes),
		),
	)

	if err := form.Run(); err != nil {
		return errForm.Wrap(err)
	}

	return nil
}

// confirm asks a yes/no question. It is skipped when yes is set.
func confirm(question string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}

	ok := false

	err := huh.NewConfirm().
		Title(pterm.Warning.Sprint(question)).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, errConfirmation.Wrap(err)
	}

	return ok, nil
}
