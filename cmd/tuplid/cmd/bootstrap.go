package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/internal/db/bunx"
)

var (
	bootstrapUsername string
	bootstrapPassword string
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Provision the initial admin user",
	Long: `Creates the initial admin account with the admin role in the global
group. Idempotent: an existing admin account is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}

		username := bootstrapUsername
		password := bootstrapPassword
		if username == "" {
			username = cfg.AdminUsername
		}
		if password == "" {
			password = cfg.AdminPassword
		}
		if username == "" || password == "" {
			return fmt.Errorf("admin credentials required (flags or ADMIN_USERNAME/ADMIN_PASSWORD)")
		}

		db, err := connectDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		iamService, _, err := buildServices(db, cfg)
		if err != nil {
			return err
		}

		if err := iamService.EnsureAdmin(cmd.Context(), username, password); err != nil {
			return fmt.Errorf("provision admin user: %w", err)
		}
		log.Printf("Admin user %q provisioned", username)
		return nil
	},
}

func connectDB() (*bun.DB, error) {
	db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func closeDB(db *bun.DB) {
	if err := bunx.Close(db); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
}

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapUsername, "username", "", "Admin username (default: ADMIN_USERNAME)")
	bootstrapCmd.Flags().StringVar(&bootstrapPassword, "password", "", "Admin password (default: ADMIN_PASSWORD)")
	rootCmd.AddCommand(bootstrapCmd)
}
