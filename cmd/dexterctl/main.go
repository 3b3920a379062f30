// Package main implements dexterctl, the operations CLI for the dexter schema.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dexter/internal/config"
	"dexter/internal/util"
	"dexter/pkg/store"
)

var (
	configPath string
	envFile    string
	version    = "dev"

	cfg config.FileConfig
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dexterctl",
	Short: "Operate the dexter database schema",
	Long: `dexterctl applies and audits the dexter_* Postgres schema and runs the
background worker that expires team invites.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["config"] == "none" {
			return nil
		}
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		util.InitLogger(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.ConfigPath, "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config when present")
}

// openStore connects to Postgres with the configured pool.
func openStore(options ...store.GormStoreOption) (*store.GormStore, error) {
	opts := append([]store.GormStoreOption{
		store.WithPool(cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnLifetime()),
		store.WithLogLevel(util.GormLogLevel(cfg.LogLevel)),
	}, options...)
	s, err := store.NewGormStore(cfg.DatabaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}
