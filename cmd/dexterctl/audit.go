package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dexter/pkg/store"
)

var auditJSON bool

var errViolations = errors.New("audit found invariant violations")

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Count rows violating schema invariants",
	Long: `Run one counting query per invariant (check constraints and the rule that a
document's current version belongs to it) and print the results. Exits non-zero
when any invariant has violating rows.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	s, err := openStore(store.WithoutMigrate())
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.Audit(ctx)
	if err != nil {
		return err
	}
	if err := writeReport(cmd.OutOrStdout(), report, auditJSON); err != nil {
		return err
	}
	if !report.OK() {
		return errViolations
	}
	return nil
}

func writeReport(w io.Writer, report store.AuditReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVARIANT\tVIOLATIONS")
	for _, c := range report.Checks {
		fmt.Fprintf(tw, "%s\t%d\n", c.Name, c.Violations)
	}
	return tw.Flush()
}
