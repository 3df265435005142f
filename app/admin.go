package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harbourhotels/hotel-site/internal/auth"
	"github.com/harbourhotels/hotel-site/internal/config"
	"github.com/harbourhotels/hotel-site/internal/daemon"
	"github.com/harbourhotels/hotel-site/internal/db/models"
)

func init() { //nolint: gochecknoinits
	createUserCmd.Flags().StringVar(&newUser.username, "username", "", "Login name")
	createUserCmd.Flags().StringVar(&newUser.email, "email", "", "Email address")
	createUserCmd.Flags().StringVar(&newUser.password, "password", "", "Password (min. 8 characters)")
	createUserCmd.Flags().StringVar(&newUser.role, "role", models.RoleEditor, "Role: admin or editor")

	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(adminCmd)
}

const minPasswordLen = 8

var (
	newUser struct {
		username, email, password, role string
	}

	adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Manage admin panel accounts",
	}

	createUserCmd = &cobra.Command{
		Use:   "create-user",
		Short: "Create a local admin panel account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(newUser.password) < minPasswordLen {
				return fmt.Errorf("password must have at least %d characters", minPasswordLen)
			}

			cfg, err := config.ReadConfig(configPath)
			if err != nil {
				return err
			}

			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			svc := auth.NewService(db)
			if err := svc.EnsureRoles(); err != nil {
				return err
			}

			role, err := svc.RoleByName(newUser.role)
			if err != nil {
				return fmt.Errorf("unknown role %q: %w", newUser.role, err)
			}

			user, err := auth.NewLocalProvider(db).CreateUser(
				newUser.username, newUser.email, newUser.password, "", "", role.ID,
			)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, role %s)\n", user.Username, user.ID, role.Name)

			return err
		},
	}
)
