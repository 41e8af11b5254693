package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepeye-sec/deepeye/internal/config"
	"github.com/deepeye-sec/deepeye/internal/database"
	"github.com/deepeye-sec/deepeye/internal/model"
)

// NewHistoryCmd creates the history command.
// This command lists and compares past scan sessions stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [target-url]",
		Short: "List and compare past scan sessions",
		Long: `History displays scan sessions stored in the local database.

Without arguments it lists recent sessions across all targets. With a
target URL it lists that target's sessions, and --diff compares the two
most recent sessions to show which findings are new and which were
resolved.

Examples:
  # List recent sessions across all targets
  deepeye history

  # List sessions for one target
  deepeye history https://example.com

  # Show new and resolved findings between the last two scans
  deepeye history --diff https://example.com

  # List all targets present in the database
  deepeye history --targets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of sessions to list")
	cmd.Flags().Bool("targets", false,
		"List all targets present in the database")
	cmd.Flags().Bool("diff", false,
		"Compare the two most recent sessions for the target")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"Directory for the scan history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Opening read-only: a missing database just means nothing was scanned.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: false})
	if err != nil {
		return fmt.Errorf("no scan history found (run 'deepeye scan' first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	listTargets, err := cmd.Flags().GetBool("targets")
	if err != nil {
		return err
	}
	if listTargets {
		return printTargets(ctx, cmd, db)
	}

	var target string
	if len(args) > 0 {
		target = args[0]
	}

	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	if diff {
		if target == "" {
			return errors.New("--diff requires a target URL")
		}
		return printDiff(ctx, cmd, db, target)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	return printSessions(ctx, cmd, db, target, limit, jsonOutput)
}

// printTargets lists all distinct targets in the database.
func printTargets(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No targets in scan history.")
		return nil
	}

	for _, target := range targets {
		fmt.Fprintln(cmd.OutOrStdout(), target)
	}
	return nil
}

// printSessions lists stored sessions, most recent first.
func printSessions(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, target string, limit int, jsonOutput bool) error {
	sessions, err := db.ListSessions(ctx, target, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions in scan history.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-36s  %-19s  %-7s  %5s  %9s  %s\n",
		"SESSION", "DATE", "SET", "PAGES", "FINDINGS", "TARGET")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, s := range sessions {
		status := ""
		if s.Cancelled {
			status = " (cancelled)"
		}
		fmt.Fprintf(out, "%-36s  %-19s  %-7s  %5d  %9d  %s%s\n",
			s.ID,
			s.StartedAt.Format("2006-01-02 15:04:05"),
			s.TestSet,
			s.PagesVisited,
			s.TotalFindings(),
			s.Target,
			status,
		)
	}
	return nil
}

// sessionDiff holds the comparison between two sessions of the same target.
type sessionDiff struct {
	// Target is the compared target URL.
	Target string `json:"target"`

	// PreviousID and LatestID identify the compared sessions.
	PreviousID string `json:"previous_id"`
	LatestID   string `json:"latest_id"`

	// New are findings present in the latest session but not the previous.
	New []model.Finding `json:"new,omitempty"`

	// Resolved are findings present in the previous session but not the latest.
	Resolved []model.Finding `json:"resolved,omitempty"`
}

// printDiff compares the two most recent sessions for a target.
func printDiff(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, target string) error {
	metas, err := db.ListSessions(ctx, target, 2)
	if err != nil {
		return err
	}
	if len(metas) < 2 {
		return fmt.Errorf("need at least two sessions for %s to compare (found %d)", target, len(metas))
	}

	latest, err := db.GetSession(ctx, metas[0].ID)
	if err != nil {
		return err
	}
	previous, err := db.GetSession(ctx, metas[1].ID)
	if err != nil {
		return err
	}
	if latest == nil || previous == nil {
		return errors.New("session disappeared while comparing")
	}

	diff := diffSessions(previous, latest)

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(diff)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Comparing scans of %s\n", target)
	fmt.Fprintf(out, "  previous: %s (%s)\n", previous.ID, previous.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  latest:   %s (%s)\n\n", latest.ID, latest.StartedAt.Format("2006-01-02 15:04:05"))

	if len(diff.New) == 0 && len(diff.Resolved) == 0 {
		fmt.Fprintln(out, "No changes between the two scans.")
		return nil
	}

	if len(diff.New) > 0 {
		fmt.Fprintf(out, "NEW FINDINGS (%d)\n", len(diff.New))
		for _, f := range diff.New {
			fmt.Fprintf(out, "  + [%s] %s (%s)\n", f.SeverityText, f.Title, f.URL)
		}
		fmt.Fprintln(out)
	}
	if len(diff.Resolved) > 0 {
		fmt.Fprintf(out, "RESOLVED FINDINGS (%d)\n", len(diff.Resolved))
		for _, f := range diff.Resolved {
			fmt.Fprintf(out, "  - [%s] %s (%s)\n", f.SeverityText, f.Title, f.URL)
		}
	}
	return nil
}

// diffSessions computes new and resolved findings by finding identity.
func diffSessions(previous, latest *model.ScanSession) sessionDiff {
	diff := sessionDiff{
		Target:     latest.Target,
		PreviousID: previous.ID,
		LatestID:   latest.ID,
	}

	previousSet := make(map[string]bool, len(previous.Findings))
	for _, f := range previous.Findings {
		previousSet[f.Identity()] = true
	}
	latestSet := make(map[string]bool, len(latest.Findings))
	for _, f := range latest.Findings {
		latestSet[f.Identity()] = true
	}

	for _, f := range latest.Findings {
		if !previousSet[f.Identity()] {
			diff.New = append(diff.New, f)
		}
	}
	for _, f := range previous.Findings {
		if !latestSet[f.Identity()] {
			diff.Resolved = append(diff.Resolved, f)
		}
	}

	return diff
}
