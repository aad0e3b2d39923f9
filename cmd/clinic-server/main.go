package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/clinic/appointments/internal/config"
	"github.com/clinic/appointments/internal/domain/healthcareservice"
	"github.com/clinic/appointments/internal/platform/auth"
	"github.com/clinic/appointments/internal/platform/db"
	"github.com/clinic/appointments/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment scheduling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(serviceCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	return cmd
}

// openPool loads config and connects. Callers close the pool.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Schema:   cfg.DBSchema,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// migrationsFS returns the embedded migrations, or dir when set.
func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationsFS(dir), cfg.DBSchema)
			fmt.Printf("Running migrations on schema: %s\n", cfg.DBSchema)

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationsFS(dir), cfg.DBSchema)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", cfg.DBSchema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the healthcare service catalog",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a healthcare service",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			duration, _ := cmd.Flags().GetInt("duration")
			priceStr, _ := cmd.Flags().GetString("price")
			description, _ := cmd.Flags().GetString("description")

			price, err := decimal.NewFromString(priceStr)
			if err != nil {
				return fmt.Errorf("--price: %w", err)
			}
			hs := &healthcareservice.HealthcareService{
				Name:            strings.TrimSpace(name),
				DurationMinutes: duration,
				Price:           price,
			}
			if description != "" {
				hs.Description = &description
			}

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := healthcareservice.NewService(healthcareservice.NewHealthcareServiceRepoPG(pool))
			if err := svc.CreateHealthcareService(ctx, hs); err != nil {
				return err
			}
			fmt.Printf("Created service %s (%s, %d min, %s)\n", hs.ID, hs.Name, hs.DurationMinutes, hs.Price)
			return nil
		},
	}
	addCmd.Flags().String("name", "", "Service name (unique)")
	addCmd.Flags().Int("duration", 0, "Duration in minutes")
	addCmd.Flags().String("price", "0", "Price")
	addCmd.Flags().String("description", "", "Optional description")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("duration")
	cmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List healthcare services",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := healthcareservice.NewService(healthcareservice.NewHealthcareServiceRepoPG(pool))
			services, err := svc.Catalog(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-36s %-30s %-8s %s\n", "ID", "NAME", "MINUTES", "PRICE")
			for _, s := range services {
				fmt.Printf("%-36s %-30s %-8d %s\n", s.ID, s.Name, s.DurationMinutes, s.Price)
			}
			return nil
		},
	}
	cmd.AddCommand(listCmd)

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage staff access tokens",
	}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed bearer token for a staff member",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			roles, _ := cmd.Flags().GetStringSlice("roles")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, r := range roles {
				switch r {
				case auth.RoleAdmin, auth.RoleReceptionist, auth.RolePractitioner, auth.RoleBilling:
				default:
					return fmt.Errorf("unknown role %q", r)
				}
			}
			token, err := auth.IssueToken(auth.JWTConfig{
				Issuer:     cfg.AuthIssuer,
				Audience:   cfg.AuthAudience,
				SigningKey: []byte(cfg.AuthSigningKey),
			}, subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	issueCmd.Flags().String("subject", "", "Staff user id")
	issueCmd.Flags().StringSlice("roles", []string{auth.RoleReceptionist}, "Roles to grant")
	issueCmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")
	_ = issueCmd.MarkFlagRequired("subject")
	cmd.AddCommand(issueCmd)

	return cmd
}
