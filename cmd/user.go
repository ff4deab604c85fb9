/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"

	"github.com/newsroom-api/server/internal/db"
	"github.com/newsroom-api/server/internal/services"
	"github.com/newsroom-api/server/internal/store"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var adminFlags struct {
	name     string
	email    string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Creates an active admin account. Usage:

	newsroom user create-admin --name "Editor" --email editor@example.com --password Secret1
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		client, database, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		users := services.NewUserService(store.NewUserRepository(database))
		admin, err := users.CreateAdmin(cmd.Context(), services.Registration{
			Name:     adminFlags.name,
			Email:    adminFlags.email,
			Password: adminFlags.password,
		})
		if err != nil {
			return err
		}
		logger.Info("admin created", "id", admin.ID.Hex(), "email", admin.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "initial password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
