// Filter Effects desktop application

package main

import (
	"flag"
	"image"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/backend"
	"github.com/microsoft/filter-effects/internal/config"
	"github.com/microsoft/filter-effects/internal/filters"
	"github.com/microsoft/filter-effects/internal/gui"
	"github.com/microsoft/filter-effects/internal/io"
	"github.com/microsoft/filter-effects/internal/logging"
	"github.com/microsoft/filter-effects/internal/metrics"
	"github.com/microsoft/filter-effects/internal/render"
	"github.com/microsoft/filter-effects/internal/session"
)

const (
	AppID      = "com.microsoft.filter-effects"
	AppVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", config.FileName, "Path to the configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	backendName := flag.String("backend", "", "Effect backend (soft or opencv), overrides the configuration")
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		logging.New("info", false).WithError(err).Fatal("Failed to load configuration")
	}
	if *backendName != "" {
		cfg.Backend = *backendName
	}

	logger := logging.New(cfg.LogLevel, *debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"backend":    cfg.Backend,
	}).Info("Starting Filter Effects")

	pipeline, err := backend.New(cfg.Backend, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create effect pipeline")
	}

	recorder := metrics.NewRecorder(logger)
	group, err := filters.NewGroup(filters.Catalog(), pipeline, logger, render.WithObserver(recorder))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create filters")
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, gui.Options{
		Logger:      logger,
		Group:       group,
		Session:     session.New(image.Pt(cfg.Preview.Width, cfg.Preview.Height), logger),
		Loader:      io.NewLoader(logger),
		Library:     io.NewLibrary(cfg.Export.Directory, logger),
		Recorder:    recorder,
		JPEGQuality: cfg.Export.JPEGQuality,
		DebugMode:   *debugMode,
	})

	if path := flag.Arg(0); path != "" {
		go func() {
			if err := mainApp.LoadImageFromPath(path); err != nil {
				logger.WithError(err).Error("Failed to open image from command line")
			}
		}()
	}

	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}
