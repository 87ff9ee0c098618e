package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/spf13/pflag"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/config"
	memfuse "github.com/S1riyS/os-course-lab-4/memfs/internal/fuse"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/handler"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/middleware"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/repository"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/service"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging/slogext"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging/slogpretty"
)

const defaultConfigPath = "configs/config.yaml"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "memfs: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, mountpoint string
	var seed bool

	flagSet := pflag.NewFlagSet("memfs", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config")
	flagSet.StringVar(&mountpoint, "mountpoint", "", "mount the filesystem here (enables FUSE)")
	flagSet.BoolVar(&seed, "seed", false, "populate the sample tree on start")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.MustLoad(configPath)
	if mountpoint != "" {
		cfg.Fuse.Enabled = true
		cfg.Fuse.Mountpoint = mountpoint
	}
	if seed {
		cfg.Filesystem.SeedSample = true
	}

	logger := setupLogger(cfg.Env)
	logging.SetFallbackLogger(logger)

	// Root context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.MakeContextWithLogger(ctx, logger)

	// Dependencies
	rootMode, err := cfg.Filesystem.Mode()
	if err != nil {
		return err
	}
	maxFileSize, err := cfg.Filesystem.FileSizeLimit()
	if err != nil {
		return err
	}

	pool := repository.NewBufferPool()
	ns := repository.NewNamespace(pool, repository.NamespaceOptions{
		RootMode:    rootMode,
		MaxFileSize: maxFileSize,
	})
	files := repository.NewOpenFileTable(cfg.Filesystem.MaxOpenFiles)
	fsService := service.NewFileSystemService(ns, files)

	logger.Info("Filesystem created",
		slog.String("root_mode", fmt.Sprintf("%#o", rootMode)),
		slog.String("max_file_size", humanize.IBytes(ns.MaxFileSize())),
	)

	if cfg.Filesystem.SeedSample {
		if err := service.Seed(ctx, fsService); err != nil {
			return fmt.Errorf("seeding sample tree: %w", err)
		}
	}

	// HTTP adaptor
	mux := http.NewServeMux()
	handler.NewHandler(fsService).RegisterRoutes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      middleware.RequestIDMiddleware(mux),
		ReadTimeout:  cfg.App.DefaultTimeout,
		WriteTimeout: cfg.App.DefaultTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server started", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// FUSE adaptor
	var fuseServer *fuse.Server
	if cfg.Fuse.Enabled {
		fuseServer, err = memfuse.Mount(memfuse.Options{
			Mountpoint: cfg.Fuse.Mountpoint,
			Service:    fsService,
			AllowOther: cfg.Fuse.AllowOther,
			Debug:      cfg.Fuse.Debug,
			Logger:     logger,
		})
		if err != nil {
			logger.Error("Failed to mount", slogext.Err(err))
			stop()
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", slogext.Err(err))
		}
	}

	// Background context: ctx is already cancelled here.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownCtx = logging.MakeContextWithLogger(shutdownCtx, logger)

	if fuseServer != nil {
		if err := fuseServer.Unmount(); err != nil {
			logger.Error("Failed to unmount", slogext.Err(err), slog.String("mountpoint", cfg.Fuse.Mountpoint))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server", slogext.Err(err))
	}

	return fsService.Close(shutdownCtx)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return setupPrettySlog()
	}
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
