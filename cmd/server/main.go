package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/walkietalkie/internal/relay"
	"github.com/Tyrowin/walkietalkie/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	if envErr != nil {
		log.Debug("No .env file loaded", "err", envErr)
	}

	registry := relay.NewRegistry()
	supervisor := relay.NewSupervisor(registry, relay.NewRouter(registry, log), log)
	srv := server.New(cfg, supervisor, log)
	listeners := srv.Listeners()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, len(listeners))
	for _, l := range listeners {
		go func() {
			log.Info("Starting listener", "listener", l.Name, "address", l.Addr, "tls", l.TLS())
			if err := l.Serve(); err != nil {
				errChan <- err
			}
		}()
	}

	hosts, err := server.LocalIPv4Addrs()
	if err != nil {
		log.Warn("Could not list local addresses", "err", err)
	}
	server.PrintBanner(os.Stdout, listeners, hosts)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case serveErr = <-errChan:
		log.Error("Listener failed, shutting down", "err", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, serveErr)
	}
	for _, l := range listeners {
		if err := l.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := supervisor.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("relay shutdown: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	log.Info("Relay stopped cleanly")
	return nil
}
