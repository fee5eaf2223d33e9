package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/sensorlog/sensorlog/internal/adapter/postgres"
	"github.com/sensorlog/sensorlog/internal/config"
	"github.com/sensorlog/sensorlog/internal/domain/tenant"
	"github.com/sensorlog/sensorlog/internal/keycode"
	"github.com/sensorlog/sensorlog/internal/service"
)

// runAdmin dispatches admin subcommands (create-tenant, create-apikey,
// migrate-down).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-tenant":
		return runAdminCreateTenant(args[1:])
	case "create-apikey":
		return runAdminCreateAPIKey(args[1:])
	case "migrate-down":
		return runAdminMigrateDown(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: sensorlog admin <command> [options]

Commands:
  create-tenant    Create a new tenant account
  create-apikey    Mint a data API key for a tenant
  migrate-down     Roll back the last N database migrations
  help             Show this help message

Examples:
  sensorlog admin create-tenant --email ops@example.com --first-name Ops
  sensorlog admin create-apikey --tenant 1 --name greenhouse
  sensorlog admin migrate-down --steps 1
`)
}

func loadAdminDeps() (*service.AuthService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	sensorKeys, err := keycode.New(cfg.Keys.SensorSalt, cfg.Keys.MinLength)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("sensor key codec: %w", err)
	}
	groupKeys, err := keycode.New(cfg.Keys.GroupSalt, cfg.Keys.MinLength)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("group key codec: %w", err)
	}

	store := postgres.NewStore(pool, sensorKeys, groupKeys)
	authSvc := service.NewAuthService(store, &cfg.Auth)

	cleanup := func() {
		pool.Close()
	}
	return authSvc, cleanup, nil
}

func runAdminCreateTenant(args []string) error {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	email := fs.String("email", "", "tenant email address (required)")
	firstName := fs.String("first-name", "", "tenant first name")
	lastName := fs.String("last-name", "", "tenant last name")
	password := fs.String("password", "", "password (prompted if not provided)") //nolint:gosec // CLI flag
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = promptPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	authSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := authSvc.Register(context.Background(), &tenant.RegisterRequest{
		FirstName: *firstName,
		LastName:  *lastName,
		Email:     *email,
		Password:  pass,
	})
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Tenant created: %s (id=%d)\n", t.Email, t.ID)
	return nil
}

func runAdminCreateAPIKey(args []string) error {
	fs := flag.NewFlagSet("create-apikey", flag.ContinueOnError)
	tenantID := fs.Int64("tenant", 0, "tenant id (required)")
	name := fs.String("name", "", "key name (required)")
	host := fs.String("host", "", "optional host annotation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tenantID == 0 {
		return fmt.Errorf("--tenant is required")
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	authSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	key, err := authSvc.CreateAPIKey(context.Background(), *tenantID, tenant.CreateAPIKeyRequest{
		Name: *name,
		Host: *host,
	})
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Fprintf(os.Stderr, "API key created: %s\n", key.Token)
	return nil
}

func runAdminMigrateDown(args []string) error {
	fs := flag.NewFlagSet("migrate-down", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return fmt.Errorf("--steps must be >= 1")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := postgres.RollbackMigrations(context.Background(), cfg.Postgres.DSN, *steps); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s)\n", *steps)
	return nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
