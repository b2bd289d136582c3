package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobpilot/internal/models"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()

		a, err := newApplication(ctx)
		if err != nil {
			newLogger().Fatal("initializing", zap.Error(err))
		}
		defer a.Close()

		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")

		user := &models.User{Username: username, Email: email}
		if err := a.store.CreateUser(ctx, user); err != nil {
			a.logger.Fatal("creating user", zap.Error(err))
		}

		a.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().StringP("username", "u", "", "unique user name")
	userAddCmd.Flags().StringP("email", "e", "", "user email")
	userAddCmd.MarkFlagRequired("username")
}
