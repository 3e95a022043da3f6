package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/pagegate/internal/agentport"
	"github.com/dgnsrekt/pagegate/internal/api"
	"github.com/dgnsrekt/pagegate/internal/authz"
	"github.com/dgnsrekt/pagegate/internal/browser"
	"github.com/dgnsrekt/pagegate/internal/cdp"
	"github.com/dgnsrekt/pagegate/internal/config"
	"github.com/dgnsrekt/pagegate/internal/controller"
	"github.com/dgnsrekt/pagegate/internal/netutil"
	"github.com/dgnsrekt/pagegate/internal/notify"
	"github.com/dgnsrekt/pagegate/internal/relay"
	"github.com/dgnsrekt/pagegate/internal/storage"
	"github.com/dgnsrekt/pagegate/internal/syncchan"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("pagegate config loaded",
		"bind_addr", cfg.BindAddr,
		"cdp_url", cfg.CDPURL(),
		"rules_path", cfg.RulesPath,
		"audit_dir", cfg.AuditDir,
		"launch_browser", cfg.LaunchBrowser,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			StartURL:   cfg.BrowserStartURL,
			ProfileDir: cfg.BrowserProfileDir,
		})
		if err := launcher.EnsureRunning(context.Background()); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	persister, err := authz.NewFileStore(cfg.RulesPath)
	if err != nil {
		slog.Error("failed to open rules file", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}
	store, err := authz.Open(persister)
	if err != nil {
		slog.Error("failed to load rules", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}

	if cfg.SeedRulesPath != "" {
		seed, err := authz.LoadSeed(cfg.SeedRulesPath)
		if err != nil {
			slog.Error("failed to load seed rules", "path", cfg.SeedRulesPath, "error", err)
			os.Exit(1)
		}
		applied, err := store.ApplySeed(seed)
		if err != nil {
			slog.Error("failed to apply seed rules", "path", cfg.SeedRulesPath, "error", err)
			os.Exit(1)
		}
		slog.Info("seed rules applied", "path", cfg.SeedRulesPath, "pages", applied)
	}

	audit := storage.NewAuditLog(cfg.AuditDir, cfg.AuditBufferSize, cfg.AuditMaxFileSizeMB)
	defer func() { _ = audit.Close() }()

	broker := relay.NewBroker()
	handles := syncchan.NewRegistry()

	cdpClient := cdp.NewClient(cfg.CDPURL(), time.Duration(cfg.ActionTimeoutMS)*time.Millisecond)
	gate := controller.New(store, handles, cdpClient, relay.NewActionSurface(broker), broker, audit)

	if err := cdpClient.Connect(context.Background(), gate); err != nil {
		slog.Error("failed to connect to browser", "cdp_url", cfg.CDPURL(), "error", err)
		os.Exit(1)
	}
	defer func() { _ = cdpClient.Close() }()

	cdpClient.OnDisconnect(func() {
		slog.Warn("browser connection lost, gating suspended")
		if cfg.NTFYEndpoint == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := notify.SendBrowserLost(ctx, nil, cfg.NTFYEndpoint, errors.New("cdp connection closed")); err != nil {
			slog.Warn("browser-lost notification failed", "error", err)
		}
	})

	h := api.NewServer(gate, broker, agentport.NewHandler(gate))

	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("pagegate listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("pagegate server failed", "error", err)
			os.Exit(1)
		}
	}()

	if cfg.NTFYEndpoint != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := notify.SendReady(ctx, nil, cfg.NTFYEndpoint, bindAddr); err != nil {
				slog.Warn("ready notification failed", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("pagegate shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
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
