package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/infrastructure/metrics"
	"github.com/taskmaster/kanban/internal/infrastructure/server"
	"github.com/taskmaster/kanban/internal/ports"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// runtime bundles what every command needs.
type runtime struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
}

func setup() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &runtime{cfg: cfg, logger: appLogger, db: db}, nil
}

func (r *runtime) close() {
	r.db.Close()
	r.logger.Sync()
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Kanban API server",
		Long:  "Start the HTTP API, the WebSocket push endpoint and the notification dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigration("up", steps)
		},
	}
	upCmd.Flags().Int("steps", 0, "Number of migrations to apply (0 = all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigration("down", steps)
		},
	}
	downCmd.Flags().Int("steps", 0, "Number of migrations to revert (0 = all)")

	migrateCmd.AddCommand(upCmd, downCmd, &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewRemindCommand runs a single reminder sweep. Schedule it daily with cron
// or a Kubernetes CronJob; concurrent runs are serialized when Redis is on.
func NewRemindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send due-date reminders",
		Long:  "Notify the assignees of every task whose reminder date has arrived, at most once per due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, _ := cmd.Flags().GetString("at")
			return runReminders(at)
		},
	}
	cmd.Flags().String("at", "", "Evaluate the sweep as of this RFC3339 time instead of now")
	return cmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create users and issue access tokens",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ports.CreateUserRequest{}
			req.Email, _ = cmd.Flags().GetString("email")
			req.Username, _ = cmd.Flags().GetString("username")
			req.Password, _ = cmd.Flags().GetString("password")
			if first, _ := cmd.Flags().GetString("first-name"); first != "" {
				req.FirstName = &first
			}
			if last, _ := cmd.Flags().GetString("last-name"); last != "" {
				req.LastName = &last
			}

			if req.Email == "" || req.Username == "" || req.Password == "" {
				return errors.New("email, username and password are required")
			}
			return createUser(req)
		},
	}
	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("username", "", "Username (required)")
	createUserCmd.Flags().String("password", "", "User password (required)")
	createUserCmd.Flags().String("first-name", "", "User first name")
	createUserCmd.Flags().String("last-name", "", "User last name")

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}
			return issueToken(email, password)
		},
	}
	tokenCmd.Flags().String("email", "", "User email (required)")
	tokenCmd.Flags().String("password", "", "User password (required)")

	userCmd.AddCommand(createUserCmd, tokenCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Kanban version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Kanban %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer() error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	var m *metrics.Metrics
	if rt.cfg.Metrics.Enabled {
		m = metrics.New()
	}

	app, err := server.NewApp(rt.cfg, rt.db, m, rt.logger)
	if err != nil {
		return err
	}

	srv, err := server.New(rt.cfg, rt.db, app, rt.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	rt.logger.Infow("Starting Kanban API server",
		"port", rt.cfg.Server.Port,
		"environment", rt.cfg.App.Environment,
		"push_backend", rt.cfg.Push.Backend,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", rt.cfg.Server.Host, rt.cfg.Server.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		rt.logger.Infow("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runReminders(at string) error {
	now := time.Now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		now = parsed
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	app, err := server.NewApp(rt.cfg, rt.db, nil, rt.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, sweepErr := app.Reminders.Sweep(ctx, now)

	// Deliveries queued by the sweep are drained before exiting.
	drainCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := app.Close(drainCtx); err != nil {
		rt.logger.Warnw("Pending deliveries were dropped", "error", err)
	}

	if sweepErr != nil {
		return fmt.Errorf("reminder sweep failed: %w", sweepErr)
	}
	fmt.Printf("Checked: %d, reminded: %d, skipped: %d, failed: %d\n",
		result.Checked, result.Reminded, result.Skipped, result.Failed)
	return nil
}

func newMigrator(rt *runtime) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(rt.db.DB.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(rt.cfg.Migrations.Path, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

func runMigration(direction string, steps int) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	m, err := newMigrator(rt)
	if err != nil {
		return err
	}

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Migration %s completed successfully\n", direction)
	return nil
}

func showMigrationVersion() error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	m, err := newMigrator(rt)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}

func createUser(req ports.CreateUserRequest) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	app, err := server.NewApp(rt.cfg, rt.db, nil, rt.logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	user, err := app.Auth.CreateUser(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Username: %s\n", user.Username)
	if user.FirstName != nil {
		fmt.Printf("  First name: %s\n", *user.FirstName)
	}
	return nil
}

func issueToken(email, password string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	app, err := server.NewApp(rt.cfg, rt.db, nil, rt.logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	resp, err := app.Auth.Login(context.Background(), ports.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	fmt.Println(resp.AccessToken)
	return nil
}
