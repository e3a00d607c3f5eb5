// Package report prints the outcome of CLI actions.
package report

import (
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/notch/internal/models"
)

func TaskAdded(t *models.Task) {
	pterm.Success.Printfln("added %q (%s)", t.Title, t.ID)
}

func TaskUpdated(t *models.Task) {
	pterm.Success.Printfln("updated %q", t.Title)
}

func TaskDeleted(id string) {
	pterm.Success.Printfln("deleted %s", id)
}

func StatusChanged(t *models.Task) {
	pterm.Info.Printfln("%q is now %s", t.Title, t.Status)
}

func TimerChanged(t *models.Timer, display string) {
	pterm.Info.Printfln("%s: %s left (%s)", t.Name, display, t.Status)
}

func TimerDeleted(id string) {
	pterm.Success.Printfln("deleted timer %s", id)
}

func Error(err error) {
	pterm.Error.Println(err)
}
