package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PhiFever/pantryscan/internal/auth"
	"github.com/PhiFever/pantryscan/internal/camera"
	"github.com/PhiFever/pantryscan/internal/config"
	"github.com/PhiFever/pantryscan/internal/logger"
	"github.com/PhiFever/pantryscan/internal/pantry"
	"github.com/PhiFever/pantryscan/internal/recognizer"
	"github.com/PhiFever/pantryscan/internal/scanner"
	"github.com/PhiFever/pantryscan/internal/ui"
	"github.com/PhiFever/pantryscan/pkg/utils"
	"github.com/PhiFever/pantryscan/pkg/version"
)

func main() {
	fmt.Printf("Starting %s...\n", version.GetFullName())

	// Initialize logger
	if _, err := logger.Setup(logger.INFO); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("Application: %s", version.GetFullName())
	logger.Infof("Version: %s", version.Version)

	// Load configuration
	cfg, err := config.Get()
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Debugf("Camera source: %s, recognition level: %s", cfg.Camera.Source, cfg.Recognition.Level)

	permissionFile, err := cfg.Camera.ResolvePermissionFile()
	if err != nil {
		logger.Errorf("Failed to resolve permission file: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// stdin lines are shared by the permission prompt and the command loop
	lines := utils.ReadLines(os.Stdin)
	gate := auth.NewGate(auth.NewFilePlatform(permissionFile, cfg.Camera.Restricted, auth.NewTerminalPrompter(lines, os.Stdout)))

	loop := ui.NewLoop(64)
	if err := loop.Start(ctx); err != nil {
		logger.Errorf("Failed to start UI loop: %v", err)
		os.Exit(1)
	}

	session := camera.NewLocalSession()
	output := camera.NewStillOutput()
	controller := camera.NewController(camera.ControllerOptions{
		Authorizer: gate,
		Discoverer: newDiscoverer(cfg),
		Session:    session,
		Output:     output,
		Dispatcher: loop,
	})
	coordinator := camera.NewCoordinator(controller, output, cfg.Camera.PhotoFormat)

	registry := recognizer.NewRegistry()
	registry.Register(recognizer.NewTesseractDetector())
	if !recognizer.OCRAvailable {
		logger.Warning("OCR support not compiled in, scans will find no text (build with -tags=ocr)")
	}
	detector, ok := registry.Get(cfg.Recognition.Detector)
	if !ok {
		logger.Errorf("Unknown text detector %q (available: %v)", cfg.Recognition.Detector, registry.Names())
		os.Exit(1)
	}
	rec := recognizer.New(detector, recognizer.Config{
		Options: recognizer.Options{
			Level:              recognizer.ParseLevel(cfg.Recognition.Level),
			LanguageCorrection: cfg.Recognition.LanguageCorrection,
			Languages:          cfg.Recognition.Languages,
		},
		Preprocess:   cfg.Recognition.Preprocess,
		MaxDimension: cfg.Recognition.MaxDimension,
		Workers:      cfg.Recognition.Workers,
	})

	pipeline := scanner.New(coordinator, rec, loop)

	model := ui.NewCameraModel()
	model.OnChange(func() { printStatus(model) })
	model.Bind(controller)

	view := ui.NewScanView(controller, pipeline, model, ui.ScanViewOptions{ScanInterval: 500 * time.Millisecond})
	client := pantry.NewClient(cfg.Pantry.BaseURL, cfg.Pantry.Timeout())

	<-view.OnAppear(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.Infof("Received signal: %v", sig)
		cancel()
	}()

	app := &terminal{
		lines:  lines,
		view:   view,
		client: client,
	}
	app.run(ctx)

	logger.Info("Shutting down gracefully...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	<-view.OnDisappear(stopCtx)
	stopCancel()

	controller.Close()
	if err := session.Close(); err != nil {
		logger.Errorf("Error closing session: %v", err)
	}
	if err := registry.CloseAll(); err != nil {
		logger.Errorf("Error closing detectors: %v", err)
	}
	if loop.IsRunning() {
		loop.Stop()
	}

	logger.Debugf("Scan statistics: %v", pipeline.Statistics())
	logger.Debugf("UI loop statistics: %v", loop.Statistics())
	logger.Info("Application stopped")
}

func newDiscoverer(cfg *config.Config) camera.Discoverer {
	if cfg.Camera.Source == config.SourceFolder {
		logger.Infof("Using image folder %s as camera", cfg.Camera.Folder)
		return camera.DiscoverFolder(cfg.Camera.Folder)
	}
	logger.Infof("Using display %d as camera", cfg.Camera.Display)
	return camera.DiscoverScreens(cfg.Camera.Display)
}

func printStatus(model *ui.CameraModel) {
	switch {
	case model.IsRunning():
		fmt.Println("Camera ready. Press Enter to scan, 'l' to list items, 'q' to quit.")
	case model.IsAvailable():
		fmt.Println("Camera paused.")
	default:
		if msg, ok := model.ErrorMessage(); ok {
			fmt.Println(msg)
		}
	}
}
