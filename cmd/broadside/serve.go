package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/banshee-data/broadside/internal/api"
	"github.com/banshee-data/broadside/internal/db"
	"github.com/banshee-data/broadside/internal/monitoring"
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("serve", stderr)
	listen := fs.String("listen", ":8080", "Listen address")
	dbPath := fs.String("db", defaultDBPath, "sqlite database")
	configPath := fs.String("config", "", "Engine config JSON")
	debug := fs.Bool("debug", false, "Log engine diagnostics to stderr")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	setDebug(stderr, *debug)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	mux := http.NewServeMux()
	// admin debugging routes are reachable from loopback or over Tailscale only
	if err := store.AttachAdminRoutes(mux); err != nil {
		return err
	}
	mux.Handle("/api/", api.NewServer(store, cfg).ServeMux())

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", *listen, err)
	}
	server := &http.Server{Handler: api.LoggingMiddleware(mux)}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("listening on %s", ln.Addr())
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	monitoring.Logf("graceful shutdown complete")
	return nil
}

func runMigrate(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("migrate", stderr)
	dbPath := fs.String("db", defaultDBPath, "sqlite database")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: broadside migrate [options] up | down | version")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	store, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch fs.Arg(0) {
	case "up":
		if err := store.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := store.MigrateDown(); err != nil {
			return err
		}
	case "version":
	default:
		fs.Usage()
		return errUsage
	}

	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	latest, err := db.LatestMigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "schema version %d of %d", v, latest)
	if dirty {
		fmt.Fprint(stdout, " (dirty)")
	}
	fmt.Fprintln(stdout)
	return nil
}
