package main

import (
	"os"

	"github.com/ayoisaiah/notch/app"
	"github.com/ayoisaiah/notch/internal/osutil"
	"github.com/ayoisaiah/notch/report"
)

func run(args []string) error {
	return app.Get().Run(args)
}

func main() {
	if err := run(os.Args); err != nil {
		report.Error(err)
		os.Exit(int(osutil.ExitError))
	}
}
