package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dexter/pkg/schema"
	"dexter/pkg/store"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(schemaCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the dexter_* schema",
	Long: `Apply enums, tables, foreign keys, check constraints and indexes for every
dexter_* table. Statements are idempotent and run under a Postgres advisory
lock, so concurrent invocations are safe.

Examples:
  dexterctl migrate
  DATABASE_URL=postgres://localhost/dexter dexterctl migrate --config deploy/config.yaml`,
	RunE: runMigrate,
}

var schemaCmd = &cobra.Command{
	Use:         "schema",
	Short:       "Print the schema DDL without connecting",
	Annotations: map[string]string{"config": "none"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, stmt := range schema.DDL() {
			if _, err := fmt.Fprintln(out, strings.TrimSuffix(strings.TrimSpace(stmt), ";")+";"); err != nil {
				return err
			}
		}
		return nil
	},
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	s, err := openStore(store.WithoutMigrate())
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()
	if err := s.Migrate(ctx); err != nil {
		return err
	}
	slog.Info("schema applied", "tables", len(schema.Tables), "enums", len(schema.Enums), "elapsed", time.Since(start))
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d tables\n", len(schema.Tables))
	return nil
}
