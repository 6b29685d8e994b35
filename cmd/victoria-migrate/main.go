// Package main is the entry point for the Victoria catalog database
// migration tool. It applies embedded schema migrations for both the
// PostgreSQL and SQLite drivers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prn-tf/victoria-catalog/internal/config"
	"github.com/prn-tf/victoria-catalog/internal/pkg/logging"
	"github.com/prn-tf/victoria-catalog/internal/repository/postgres"
	"github.com/prn-tf/victoria-catalog/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	switch command {
	case "version":
		fmt.Printf("Victoria Catalog Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		if err := runMigrations(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}

	case "status":
		if err := printStatus(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "status failed: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runMigrations(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cfg := config.MustLoad(configPath)
	logger := logging.New(cfg.Logging)

	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(ctx)

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(ctx)

	default:
		return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func printStatus(configPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.MustLoad(configPath)
	logger := logging.New(cfg.Logging)

	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.MigrationStatus(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("No migrations applied")
			return nil
		}
		fmt.Printf("Applied migrations:\n  %s\n", strings.Join(applied, "\n  "))
		return nil

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return err
		}
		defer db.Close()

		version, err := db.MigrationVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d\n", version)
		return nil

	default:
		return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func printUsage() {
	fmt.Println(`Victoria Catalog Migration Tool

Usage:
  victoria-migrate [-config path] <command>

Commands:
  up          Run all pending migrations
  status      Show current migration status
  version     Print version information
  help        Show this help message

Configuration is read from the config file and VICTORIA_* environment
variables, the same way victoria-server reads it.

Examples:
  victoria-migrate up
  victoria-migrate -config /etc/victoria/config.yaml status`)
}
