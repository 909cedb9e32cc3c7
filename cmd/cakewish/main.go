package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/cakewish/internal/app"
	"github.com/ayusman/cakewish/internal/config"
	"github.com/ayusman/cakewish/internal/log"
	"github.com/ayusman/cakewish/internal/tray"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cakewish: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.cakewish/config.yaml)")
	addr := flag.String("addr", "", "HTTP listen address, overrides the config file")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	noCamera := flag.Bool("no-camera", false, "run without gesture recognition")
	flag.Parse()

	path := *configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate config: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *noTray {
		cfg.Tray.Enabled = false
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir(cfg.Storage.DataDir)
	}

	logger := log.Init(log.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	logger.Info("starting cakewish", slog.String("config", path), slog.String("addr", cfg.Server.Addr))
	if cfg.Server.StaticDir != "" {
		logger.Info("serving static files", slog.String("dir", cfg.Server.StaticDir))
	}

	a, err := app.New(app.Config{
		Settings:          cfg,
		Logger:            logger,
		DisablePerception: *noCamera,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		a.Stop()
		return err
	}
	logger.Info("viewer ready", slog.String("url", a.URL()))

	if cfg.Tray.Enabled {
		runTray(ctx, a, stop, log.WithComponent("tray"))
	} else {
		<-ctx.Done()
	}

	a.Stop()
	return nil
}

// runTray blocks on the tray event loop, which must own the main goroutine.
func runTray(ctx context.Context, a *app.App, stop context.CancelFunc, logger *slog.Logger) {
	t := tray.New()
	a.Subscribe(t.OnStateChange)
	t.OnToggle(a.SetPerceptionEnabled)
	t.OnOpen(func() {
		if url := a.URL(); url != "" {
			if err := openBrowser(url); err != nil {
				logger.Warn("failed to open browser", slog.String("url", url), slog.Any("error", err))
			}
		}
	})
	t.OnQuit(stop)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
