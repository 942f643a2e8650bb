package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/autobudget-dev/autobudget/internal/auditlog"
	"github.com/autobudget-dev/autobudget/internal/ledger"
	"github.com/autobudget-dev/autobudget/internal/logging"
	"github.com/autobudget-dev/autobudget/internal/reconcile"
)

// AuditLogName is the CSV audit trail written next to the ledger file.
const AuditLogName = "reconcile-log.csv"

func newReconcileCommand() *cobra.Command {
	var configPath string
	var sinceStr string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Synthesize missing budget entries for recorded expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(configPath, sinceStr, dryRun)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to autobudget.yaml")
	cmd.Flags().StringVar(&sinceStr, "since", "", "only reconcile transactions on or after YYYY-MM-DD (default: config start_date)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without changing the ledger")

	return cmd
}

func runReconcile(configPath, sinceStr string, dryRun bool) error {
	cfg, ledgerPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	startDate, err := cfg.StartDate()
	if err != nil {
		return err
	}
	if sinceStr != "" {
		startDate, err = time.Parse("2006-01-02", sinceStr)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
	}

	store, err := ledger.OpenSQLite(ledgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := logging.NewLogger(cfg.Logging.Level)
	rec := reconcile.New(store, logger, reconcile.Options{
		StartDate: startDate,
		DryRun:    dryRun,
	})

	report, err := rec.Run()
	if err != nil {
		return err
	}

	if !dryRun && len(report.Synthesized) > 0 {
		now := time.Now()
		entries := make([]auditlog.Entry, len(report.Synthesized))
		for i, s := range report.Synthesized {
			entries[i] = auditlog.Entry{
				Timestamp:     now,
				TransactionID: s.TransactionID,
				SplitID:       s.SplitID,
				Account:       s.Account,
				Amount:        s.Amount,
			}
		}
		logPath := filepath.Join(filepath.Dir(ledgerPath), AuditLogName)
		if err := auditlog.Append(logPath, entries); err != nil {
			return fmt.Errorf("writing audit log: %w", err)
		}
	}

	action := "synthesized"
	if dryRun {
		action = "would synthesize"
	}
	fmt.Printf("Examined %d transactions, changed %d, %s %d splits\n",
		report.TransactionsExamined, report.TransactionsChanged, action, len(report.Synthesized))
	if n := len(report.UnmatchedExpenses); n > 0 {
		fmt.Printf("%d expense splits have no budget counterpart account\n", n)
	}
	if n := len(report.UnbalancedBudgets); n > 0 {
		fmt.Printf("%d budget splits look like manual adjustments\n", n)
	}
	if n := len(report.Failures); n > 0 {
		return fmt.Errorf("%d transactions failed to reconcile", n)
	}
	return nil
}
