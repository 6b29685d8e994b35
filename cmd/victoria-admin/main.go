// Package main is the entry point for the Victoria catalog admin CLI.
// This tool provides administrative commands for managing user accounts
// without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/config"
	"github.com/prn-tf/victoria-catalog/internal/lock"
	"github.com/prn-tf/victoria-catalog/internal/pkg/logging"
	"github.com/prn-tf/victoria-catalog/internal/repository"
	"github.com/prn-tf/victoria-catalog/internal/repository/postgres"
	"github.com/prn-tf/victoria-catalog/internal/repository/sqlite"
	"github.com/prn-tf/victoria-catalog/internal/service"
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

	switch flag.Arg(0) {
	case "version":
		fmt.Printf("Victoria Catalog Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUserCommand(*configPath, flag.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", flag.Arg(0))
		printUsage()
		os.Exit(1)
	}
}

func runUserCommand(configPath string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: victoria-admin user <create|show> [arguments]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.MustLoad(configPath)
	logger := logging.New(cfg.Logging)

	users, closeDB, err := openUserRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	// The CLI talks to the database directly, so no reservation lock is
	// needed; the unique constraint handles concurrent creates.
	userService := service.NewUserService(users, lock.NewNoOpLocker(), cfg.Lock.TTL, cfg.Auth.BcryptCost, logger)

	switch args[0] {
	case "create":
		if len(args) != 5 {
			return fmt.Errorf("usage: victoria-admin user create <username> <password> <first-name> <last-name>")
		}
		out, err := userService.Create(ctx, service.CreateUserInput{
			Username:  args[1],
			Password:  args[2],
			FirstName: args[3],
			LastName:  args[4],
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %d (%s)\n", out.User.ID, out.User.Username)
		return nil

	case "show":
		if len(args) != 2 {
			return fmt.Errorf("usage: victoria-admin user show <username>")
		}
		user, err := users.GetByUsername(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("ID:         %d\n", user.ID)
		fmt.Printf("Username:   %s\n", user.Username)
		fmt.Printf("First Name: %s\n", user.FirstName)
		fmt.Printf("Last Name:  %s\n", user.LastName)
		fmt.Printf("Created:    %s\n", user.AccountCreated.Format(time.RFC3339))
		fmt.Printf("Updated:    %s\n", user.AccountUpdated.Format(time.RFC3339))
		return nil

	default:
		return fmt.Errorf("unknown user subcommand %q", args[0])
	}
}

func openUserRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.UserRepository, func() error, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), db.Close, nil
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewUserRepository(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func printUsage() {
	fmt.Println(`Victoria Catalog Admin CLI

Usage:
  victoria-admin [-config path] <command> [arguments]

Commands:
  user create <username> <password> <first> <last>   Create a user account
  user show <username>                               Show a user account
  version                                            Print version information
  help                                               Show this help message

Examples:
  victoria-admin user create jane@example.com s3cret Jane Doe
  victoria-admin user show jane@example.com`)
}
