package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/baysah/panel_agent/internal/api"
	"github.com/baysah/panel_agent/internal/browser"
	"github.com/baysah/panel_agent/internal/config"
	"github.com/baysah/panel_agent/internal/metrics"
	"github.com/baysah/panel_agent/internal/netutil"
	"github.com/baysah/panel_agent/internal/probe"
	"github.com/baysah/panel_agent/internal/scenario"
	"github.com/baysah/panel_agent/internal/storage"
)

func main() {
	ctlCfg, probeCfg, err := config.LoadController()
	if err != nil {
		slog.Error("failed to load controller config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(ctlCfg.LogLevel, ctlCfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("panel_controller config loaded",
		"bind_addr", ctlCfg.BindAddr,
		"cdp_url", ctlCfg.ControllerCDPURL(),
		"tab_url_filter", ctlCfg.TabURLFilter,
		"base_url", probeCfg.BaseURL,
		"launch_browser", ctlCfg.LaunchBrowser,
		"log_level", ctlCfg.LogLevel,
		"log_file", ctlCfg.LogFile,
		"data_dir", ctlCfg.DataDir,
	)

	bindAddr, err := netutil.SelectBindAddr(ctlCfg.BindAddr, netutil.FallbackAddrs(ctlCfg.BindAddr, 5), true)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", ctlCfg.BindAddr, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if ctlCfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: ctlCfg.CDPAddress,
			CDPPort:    ctlCfg.CDPPort,
			StartURLs:  panelURLs(probeCfg),
			ProfileDir: ctlCfg.BrowserProfileDir,
			Headless:   ctlCfg.BrowserHeadless,
			WindowSize: ctlCfg.BrowserWindowSize,
		})
		if err := launcher.Launch(ctx); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	m := metrics.New()
	svc := probe.NewService(probeCfg, m)
	if err := svc.Start(ctx); err != nil {
		slog.Error("failed to connect probe service", "cdp_url", probeCfg.GetCDPURL(), "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Debug("probe service close failed", "error", err)
		}
	}()

	suite, err := controllerSuite(probeCfg)
	if err != nil {
		slog.Error("failed to load scenario suite", "path", probeCfg.SuitePath, "error", err)
		os.Exit(1)
	}

	registry := storage.NewWriterRegistry(ctlCfg.DataDir, 100, probeCfg.MaxFileSizeMB)
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Warn("transcript writer close failed", "error", err)
		}
	}()

	runner := &scenario.Runner{
		Prober:   svc,
		Hooks:    svc.Hooks(),
		Registry: registry,
		Metrics:  m,
		RoleConfigured: func(role string) bool {
			return probeCfg.RoleURL(role) != ""
		},
		Strict: probeCfg.Strict,
	}

	h := api.NewServer(api.Deps{
		Probe:   svc,
		Hooks:   svc.Hooks(),
		Runner:  runner,
		Suite:   suite,
		Metrics: m.Handler(),
	})

	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("panel_controller listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("panel_controller server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("panel_controller shutdown failed", "error", err)
	}
}

// panelURLs lists the configured role URLs for the initial browser tabs.
func panelURLs(cfg *config.Config) []string {
	var urls []string
	for _, role := range []string{config.RoleAdmin, config.RoleManager, config.RoleFan} {
		if u := cfg.RoleURL(role); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func controllerSuite(cfg *config.Config) (*scenario.Suite, error) {
	if cfg.SuitePath != "" {
		if _, err := os.Stat(cfg.SuitePath); err == nil {
			return scenario.LoadSuite(cfg.SuitePath)
		}
	}
	slog.Info("no suite file found, using built-in scenarios", "path", cfg.SuitePath)
	return scenario.DefaultSuite(), nil
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
