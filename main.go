// Package main provides the entry point for the Cutout Studio application.
package main

import (
	"flag"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/rs/zerolog"

	"cutout-studio/internal/app"
	"cutout-studio/internal/applog"
	"cutout-studio/internal/segment"
	"cutout-studio/internal/version"
	"cutout-studio/ui/mainwindow"
	"cutout-studio/ui/prefs"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	hotReload := flag.Bool("hot-reload", false, "offer to restart when the binary is rebuilt (development)")
	flag.Parse()

	log := applog.New(*verbose)
	log.Info().Str("version", version.String()).Msg("starting cutout studio")

	fyneApp := fyneapp.NewWithID("io.cutoutstudio.app")
	fyneApp.Settings().SetTheme(&app.StudioTheme{})

	appPrefs := prefs.Load()
	segmenter := segment.NewGrabCut(segment.DefaultOptions(), log)
	state := app.NewState(segmenter, log)

	win := mainwindow.New(fyneApp, state, appPrefs, log)

	// A photo given on the command line replaces any restored one.
	if path := flag.Arg(0); path != "" {
		if err := state.LoadPhoto(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("could not load photo from command line")
		}
	}

	if *hotReload {
		setupHotReload(win, log)
	}

	win.ShowAndRun()
}

// setupHotReload offers a restart when a newer build of the binary appears.
func setupHotReload(win *mainwindow.MainWindow, log zerolog.Logger) {
	reloader := app.NewHotReloader(2*time.Second, log)
	if reloader == nil {
		log.Warn().Msg("hot reload: unable to examine executable")
		return
	}

	reloader.Start(func() {
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					return
				}
				if err := reloader.Restart(); err != nil {
					log.Error().Err(err).Msg("hot reload: restart failed")
				}
			}, win)
	})
}
