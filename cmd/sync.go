package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"contact-sync/core/reconcile"
	"contact-sync/feature/contacts"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncUpdate bool
	syncCreate bool
	syncDryRun bool
	yesConfirm bool
)

// syncCmd reconciles the address book export with the local store.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the address book export with the local store",
	Long: `Reconcile every contact and group of the export object against the local store.

Reports, per family, which records would be updated, created, adopted or marked
deleted. After confirmation the local store is patched in one commit and the
corrected export (with local ids stamped into xref) is written back.

Examples:
  # Report only
  sync --dry-run

  # Apply with interactive confirmation
  sync

  # Apply without creating new local records
  sync --create=false --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncUpdate, "update", true, "Patch local records that changed in the export")
	syncCmd.Flags().BoolVar(&syncCreate, "create", true, "Create local records for new export records")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp()
	if err != nil {
		return err
	}
	l := a.logger
	defer l.Sync()

	opts := reconcile.Options{
		DoUpdate: syncUpdate,
		DoCreate: syncCreate,
		DryRun:   syncDryRun,
	}

	// Step 1: Plan (always runs, never writes)
	l.Info("Planning reconciliation...")
	plan, err := a.service.Sync(ctx, reconcile.Options{DryRun: true})
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}

	// Step 2: Print report
	actions := 0
	for _, family := range []string{contacts.FamilyContacts, contacts.FamilyGroups} {
		if fr, ok := plan.Families[family]; ok {
			actions += printSyncReport(l, fr.Report)
		}
	}

	// Step 3: Apply (if confirmed)
	if syncDryRun {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if actions == 0 {
		l.Info("No actions required.")
		return nil
	}
	if !confirmAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	opts.Confirmed = true

	l.Info("Applying actions...")
	res, err := a.service.Sync(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to apply: %w", err)
	}
	for family, fr := range res.Families {
		if fr.Applied == nil {
			continue
		}
		l.Info("Applied",
			zap.String("family", family),
			zap.Int("executed", fr.Applied.Executed),
			zap.Int("updated", len(fr.Applied.Updated)),
			zap.Int("created", len(fr.Applied.Created)),
			zap.Int("corrected", len(fr.Applied.Corrected)),
			zap.Int("failed", len(fr.Applied.Failed)),
		)
		for token, msg := range fr.Applied.Failed {
			l.Warn("Record not applied", zap.String("token", token), zap.String("error", msg))
		}
	}
	if res.Corrected != "" {
		l.Info("Corrected export written", zap.String("object", res.Corrected))
	}
	return nil
}

// printSyncReport logs a report and returns the number of records with work to do.
func printSyncReport(l *zap.Logger, report *reconcile.Report) int {
	s := report.Summary
	l.Info("Reconciliation report",
		zap.String("family", report.Family),
		zap.Int("total", s.Total),
		zap.Int("updated", s.Updated),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("new", s.New),
		zap.Int("duplicates", s.Duplicates),
		zap.Int("adopted", s.Adopted),
		zap.Int("deleted", s.Deleted),
		zap.Int("skipped", s.Skipped),
		zap.Int("ambiguous", s.Ambiguous),
		zap.Int("failed", s.Failed),
	)

	// Show sample of changes (max 5 for logger)
	const maxShow = 5
	shown := 0
	for _, res := range report.InOrder() {
		if res.Outcome == reconcile.OutcomeFailed {
			l.Warn("Record failed", zap.String("token", res.Token), zap.String("error", res.Error))
			continue
		}
		if len(res.ChangeSet) == 0 || shown == maxShow {
			continue
		}
		shown++
		ops := make([]string, 0, len(res.ChangeSet))
		for _, op := range res.ChangeSet {
			ops = append(ops, op.String())
		}
		l.Info("Sample change",
			zap.String("token", res.Token),
			zap.String("outcome", string(res.Outcome)),
			zap.Strings("ops", ops),
		)
	}

	return s.Updated + s.New + s.Adopted + s.Deleted + s.Fallbacks
}

// confirmAction prompts the user for confirmation or uses --yes flag.
func confirmAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\nType 'yes' to apply these changes: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
