package app

import (
	"context"
	"errors"
	"os/user"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/store"
)

const asciiLogo = `
███╗   ██╗ ██████╗ ████████╗ ██████╗██╗  ██╗
████╗  ██║██╔═══██╗╚══██╔══╝██╔════╝██║  ██║
██╔██╗ ██║██║   ██║   ██║   ██║     ███████║
██║╚██╗██║██║   ██║   ██║   ██║     ██╔══██║
██║ ╚████║╚██████╔╝   ██║   ╚██████╗██║  ██║
╚═╝  ╚═══╝ ╚═════╝    ╚═╝    ╚═════╝╚═╝  ╚═╝`

// welcome greets a user the first time the database is used and records
// that they have been onboarded.
func welcome(ctx context.Context, db *store.Client) error {
	_, err := db.GetProfile(ctx)
	if err == nil {
		return nil
	}

	if !errors.Is(err, apperr.NotFound) {
		return err
	}

	pterm.Println(asciiLogo)

	_ = putils.BulletListFromString(`Plan your day in time blocks with 'notch add'.
Repeat a block every week with --repeat mon,wed,fri.
Run 'notch runner' in the background to be notified when a timer ends.
Edit the config file with 'notch edit-config' to change any settings.`, " ").
		Render()

	p := &models.Profile{Onboarded: true}

	if u, err := user.Current(); err == nil {
		p.Name = firstNonEmptyString(u.Name, u.Username)
	}

	return db.PutProfile(ctx, p)
}
