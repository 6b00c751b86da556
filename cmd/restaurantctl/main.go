package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"restaurant-service/config"
	"restaurant-service/internal/auth"
	"restaurant-service/internal/qr"
	"restaurant-service/internal/service"
	"restaurant-service/internal/store"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "restaurantctl",
		Short:   "Admin tasks for the restaurant service",
		Version: Version,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(qrCmd())
	rootCmd.AddCommand(staffCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (*store.Store, error) {
	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the restaurant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(config.Load())
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
			return nil
		},
	}
}

func qrCmd() *cobra.Command {
	var (
		output  string
		size    int
		baseURL string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "qr [table-id]",
		Short: "Write the session QR code PNG for a table",
		Long: `Write the QR code customers scan to open a session at a table.

By default the table is looked up first so a typo does not print a dead code.

Examples:
  restaurantctl qr 9b2f0c7e-0c1d-4a53-9a7e-1f0d3c2b8a11 -o table-1.png
  restaurantctl qr 9b2f0c7e-0c1d-4a53-9a7e-1f0d3c2b8a11 --offline --base-url https://order.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if baseURL == "" {
				baseURL = cfg.Server.PublicBaseURL
			}

			var png []byte
			if offline {
				var err error
				if png, err = qr.TablePNG(baseURL, args[0], size); err != nil {
					return err
				}
			} else {
				db, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer db.Close()

				tables := service.NewTableService(service.NewSQLRepository(db), baseURL)
				if png, err = tables.QRCode(cmd.Context(), args[0], size); err != nil {
					return err
				}
			}

			if output == "" {
				output = args[0] + ".png"
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", output, qr.TableURL(baseURL, args[0]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <table-id>.png)")
	cmd.Flags().IntVarP(&size, "size", "s", qr.DefaultSize, "edge length in pixels")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL (default PUBLIC_BASE_URL)")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the table lookup")

	return cmd
}

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(staffCreateCmd())
	return cmd
}

func staffCreateCmd() *cobra.Command {
	var req service.StaffRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			staffService := service.NewStaffService(
				service.NewSQLRepository(db),
				auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
			)
			staff, err := staffService.CreateStaff(cmd.Context(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s <%s> (%s) id=%s\n", staff.Name, staff.Email, staff.Role, staff.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Role, "role", "admin", "role")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash stored for a staff password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
