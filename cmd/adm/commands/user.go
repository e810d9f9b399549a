package commands

import (
	"context"
	"database/sql"

	"lingotext/internal/models"
	"lingotext/internal/observability"
	"lingotext/internal/services"
	contextutils "lingotext/internal/utils"

	"github.com/spf13/cobra"
)

// UserCommands returns the user management commands
func UserCommands(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for the lingotext application.

Available commands:
  create    - Create a new user
  show      - Show a user by username`,
	}

	userCmd.AddCommand(createUserCmd(userService, logger))
	userCmd.AddCommand(showUserCmd(userService, logger))

	return userCmd
}

func createUserCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	var (
		email      string
		password   string
		nativeLang string
		targetLang string
		subscribed bool
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			username := args[0]

			if password == "" {
				return contextutils.ErrorWithContextf("--password is required")
			}

			hash, err := services.HashPassword(password)
			if err != nil {
				return err
			}

			status := models.SubscriptionInactive
			if subscribed {
				status = models.SubscriptionActive
			}

			user := &models.User{
				Username:           username,
				Email:              sql.NullString{String: email, Valid: email != ""},
				PasswordHash:       sql.NullString{String: hash, Valid: true},
				SubscriptionStatus: status,
				NativeLanguage:     sql.NullString{String: nativeLang, Valid: nativeLang != ""},
				TargetLanguage:     sql.NullString{String: targetLang, Valid: targetLang != ""},
			}

			created, err := userService.CreateUser(ctx, user)
			if err != nil {
				logger.Error(ctx, "Failed to create user", err, map[string]interface{}{"username": username})
				return err
			}

			cmd.Printf("Created user %s (id %d)\n", created.Username, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&nativeLang, "native-language", "", "Native language code")
	cmd.Flags().StringVar(&targetLang, "target-language", "en", "Target language code")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "Create with an active subscription")

	return cmd
}

func showUserCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user by username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			user, err := userService.GetUserByUsername(ctx, args[0])
			if err != nil {
				logger.Error(ctx, "Failed to look up user", err, map[string]interface{}{"username": args[0]})
				return err
			}

			cmd.Printf("id:                  %d\n", user.ID)
			cmd.Printf("username:            %s\n", user.Username)
			cmd.Printf("subscription_status: %s\n", user.SubscriptionStatus)
			cmd.Printf("pdf_lesson_count:    %d\n", user.PDFLessonCount)
			if user.PDFURL.Valid {
				cmd.Printf("pdf_url:             %s\n", user.PDFURL.String)
			}
			return nil
		},
	}
}
