package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"ainews/internal/app"
	"ainews/internal/config"
	"ainews/internal/db"
	"ainews/internal/utils"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configPath string
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ainewsctl",
		Short:        "Operator commands for the ainews server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			utils.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: $CONFIG_PATH)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == config.MemoryDSN {
				return errors.New("DATABASE_URL points to the in-memory store, nothing to migrate")
			}
			gdb, err := db.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	var stories int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one content generation batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stories > 0 {
				cfg.Generator.Stories = stories
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			a, err := app.New(ctx, cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Generator.Run(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().IntVarP(&stories, "stories", "n", 0, "number of stories (default: generator.stories)")
	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := *cfg
			for _, s := range []*string{&out.SessionSecret, &out.JWTSecret, &out.CronSecret, &out.LLM.APIKey, &out.Redis.Password} {
				if *s != "" {
					*s = "********"
				}
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(&out)
		},
	}
}
