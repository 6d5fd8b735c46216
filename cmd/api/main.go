package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipe-assistant/internal/core/store"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/infrastructure/database"
	"recipe-assistant/internal/pkg/common"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recipe-assistant",
		Short: "Conversational recipe assistant service",
		Long: `recipe-assistant exposes recipe search, recipe detail generation and
cooking video lookup as model-callable tools, together with the ingredient
image, dish image and video endpoints the chat UI renders from.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("recipe-assistant version %s (built %s)\n", version, buildTime)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the recipe table",
		RunE:  runMigrate,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadRuntime 載入設定並初始化 logger
func loadRuntime() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	defer common.Sync()

	if cfg.Database.URL == "" {
		return fmt.Errorf("database url is not configured")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := database.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.NewPostgresStore(db).Migrate(ctx); err != nil {
		return err
	}
	common.LogInfo("Migration completed", zap.String("table", "recipe"))
	return nil
}
