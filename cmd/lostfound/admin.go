package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/lostfound/internal/auth"
	"github.com/vbonduro/lostfound/internal/config"
	"github.com/vbonduro/lostfound/internal/db"
	"github.com/vbonduro/lostfound/internal/store"
)

func newAdminCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin console accounts",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminStore(loadConfig, func(admins *store.AdminStore) error {
				hash, err := auth.HashPassword(password)
				if err != nil {
					return err
				}
				created, err := admins.Create(cmd.Context(), username, hash)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", created.Username, created.ID)
				return nil
			})
		},
	}

	passwd := &cobra.Command{
		Use:   "passwd",
		Short: "Reset an admin account's password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdminStore(loadConfig, func(admins *store.AdminStore) error {
				hash, err := auth.HashPassword(password)
				if err != nil {
					return err
				}
				if err := admins.UpdatePassword(cmd.Context(), username, hash); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated password for %q\n", username)
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{create, passwd} {
		c.Flags().StringVar(&username, "username", "", "admin username")
		c.Flags().StringVar(&password, "password", "", "admin password (at least 8 characters)")
		_ = c.MarkFlagRequired("username")
		_ = c.MarkFlagRequired("password")
	}

	admin.AddCommand(create, passwd)
	return admin
}

func withAdminStore(loadConfig func() (*config.Config, error), fn func(*store.AdminStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()
	return fn(store.NewAdminStore(database))
}
