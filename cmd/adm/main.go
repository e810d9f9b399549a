// Package main provides the main entry point for the lingotext admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"lingotext/cmd/adm/commands"
	"lingotext/internal/config"
	"lingotext/internal/database"
	"lingotext/internal/observability"
	"lingotext/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	if os.Getenv("LINGOTEXT_CONFIG_FILE") == "" {
		defaultPaths := []string{
			"../config.yaml",
			"../../config.yaml",
			"config.yaml",
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv("LINGOTEXT_CONFIG_FILE", path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set LINGOTEXT_CONFIG_FILE environment variable: %v\n", err)
					os.Exit(1)
				}
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Quiet logs and no telemetry for the CLI
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "lingotext-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{"db_url": cfg.Database.URL})
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Warning: failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	userService := services.NewUserService(db, logger)
	jobService := services.NewPDFJobService(db, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Lingotext Administration Tool",
		Long: `Lingotext Administration Tool

A CLI tool for administering the lingotext application.
Provides commands for user management, database operations, and the PDF job queue.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.UserCommands(userService, logger))
	rootCmd.AddCommand(commands.DatabaseCommands(dbManager, logger, cfg.Database.URL, db))
	rootCmd.AddCommand(commands.PDFCommands(jobService, logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
