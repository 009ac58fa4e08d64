package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hrpay/internal/app/server"
	"hrpay/internal/auth"
	"hrpay/internal/platform/config"
	"hrpay/internal/platform/db"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/platform/logging"
	"hrpay/internal/store/memory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "hrpay",
		Short:         "HR contract, deduction and payroll service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newPayrollCmd(load),
		newContractsCmd(load),
		newTokenCmd(load),
	)
	return root
}

type loader func() (config.Config, error)

// openApp loads and validates config, then connects the App to Postgres.
func openApp(ctx context.Context, load loader) (*server.App, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return server.Open(ctx, cfg, logger)
}

func newServeCmd(load loader) *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var app *server.App
			if inMemory {
				cfg, err := load()
				if err != nil {
					return err
				}
				logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
				logger.Warn("using in-memory store; data is lost on exit")
				app = server.New(cfg, server.MemoryStores(memory.New()), logger)
			} else {
				var err error
				app, err = openApp(ctx, load)
				if err != nil {
					return err
				}
			}
			defer app.Close()
			return app.Serve(ctx)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "keep all data in process memory instead of Postgres")
	return cmd
}

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db connect failed: %w", err)
			}
			defer pool.Close()
			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			version, err := db.MigrationVersion(cmd.Context(), pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func newPayrollCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{Use: "payroll", Short: "Payroll batch operations"}

	var month string
	run := &cobra.Command{
		Use:   "run",
		Short: "Generate payslips for every staff member with an active contract in a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var target time.Time
			if month != "" {
				parsed, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("--month must be formatted YYYY-MM: %w", err)
				}
				target = parsed
			}
			app, err := openApp(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer app.Close()
			result, err := app.Jobs.RunNow(cmd.Context(), jobs.JobPayrollMonthly, app.Jobs.PayrollJob(target))
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	run.Flags().StringVar(&month, "month", "", "month to run, YYYY-MM; defaults to the current month")
	cmd.AddCommand(run)
	return cmd
}

func newContractsCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{Use: "contracts", Short: "Contract maintenance"}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue contracts and send renewal reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer app.Close()
			result, err := app.Jobs.RunNow(cmd.Context(), jobs.JobContractSweep, app.Jobs.SweepJob())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	})
	return cmd
}

func newTokenCmd(load loader) *cobra.Command {
	var claims auth.Claims
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("HRPAY_JWT_SECRET is required to sign tokens")
			}
			if _, ok := auth.RolePermissions[claims.Role]; !ok {
				return fmt.Errorf("unknown role %q", claims.Role)
			}
			token, err := auth.GenerateToken(cfg.JWTSecret, claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&claims.UserID, "user", "", "user id carried in the token")
	cmd.Flags().StringVar(&claims.StaffID, "staff", "", "staff id for STAFF tokens")
	cmd.Flags().StringVar(&claims.Role, "role", auth.RoleHR, "ADMIN, HR or STAFF")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
