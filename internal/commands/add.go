package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/autobudget-dev/autobudget/internal/ledger"
	"github.com/autobudget-dev/autobudget/internal/model"
)

func newAddCommand() *cobra.Command {
	var configPath string
	var dateStr string
	var description string
	var amountStr string
	var expensePath string
	var fromPath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(configPath, dateStr, description, amountStr, expensePath, fromPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to autobudget.yaml")
	cmd.Flags().StringVar(&dateStr, "date", "", "transaction date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&description, "description", "", "transaction description (required)")
	_ = cmd.MarkFlagRequired("description")
	cmd.Flags().StringVar(&amountStr, "amount", "", "expense amount, e.g. 12.50 (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&expensePath, "expense", "", "expense account, e.g. Expenses.Everyday.Food (required)")
	_ = cmd.MarkFlagRequired("expense")
	cmd.Flags().StringVar(&fromPath, "from", "Assets.Cash", "funding account")

	return cmd
}

func runAdd(configPath, dateStr, description, amountStr, expensePath, fromPath string) error {
	cfg, ledgerPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	date := time.Now().Truncate(24 * time.Hour)
	if dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("parsing amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}

	store, err := ledger.OpenSQLite(ledgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	expense, ok := store.LookupAccount(expensePath)
	if !ok {
		return fmt.Errorf("unknown expense account %q", expensePath)
	}
	from, ok := store.LookupAccount(fromPath)
	if !ok {
		return fmt.Errorf("unknown funding account %q", fromPath)
	}

	tx := &model.Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Description: description,
		Currency:    cfg.Budget.Currency,
	}
	store.NewSplit(tx, expense, amount)
	store.NewSplit(tx, from, amount.Neg())

	if err := store.InsertTransaction(tx); err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}

	fmt.Printf("Recorded %s %s to %s (%s)\n", amount, tx.Currency, expensePath, tx.ID)
	return nil
}
