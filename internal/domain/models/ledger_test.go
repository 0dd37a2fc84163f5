package models_test

import (
	"testing"

	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/shopspring/decimal"
)

func entry(t *testing.T, amount, typ string) models.LedgerEntry {
	t.Helper()
	d128, err := models.ToDecimal128(decimal.RequireFromString(amount))
	if err != nil {
		t.Fatalf("ToDecimal128(%s): %v", amount, err)
	}
	return models.LedgerEntry{Amount: d128, Type: typ}
}

func TestTotals(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(t, "150.00", models.LedgerIncoming),
		entry(t, "0.10", models.LedgerIncoming),
		entry(t, "0.20", models.LedgerIncoming),
		entry(t, "45.5", models.LedgerOutgoing),
	}

	got := models.Totals(entries)
	if got.Income.String() != "150.3" {
		t.Errorf("Income: got %s, want 150.3", got.Income)
	}
	if got.Expense.String() != "45.5" {
		t.Errorf("Expense: got %s, want 45.5", got.Expense)
	}
	if got.Balance.String() != "104.8" {
		t.Errorf("Balance: got %s, want 104.8", got.Balance)
	}
}

func TestTotals_Empty(t *testing.T) {
	got := models.Totals(nil)
	if !got.Balance.IsZero() || !got.Income.IsZero() || !got.Expense.IsZero() {
		t.Errorf("expected zero totals, got %+v", got)
	}
}

func TestToDecimal128_RoundsToCents(t *testing.T) {
	e := entry(t, "12.345", models.LedgerOutgoing)
	if got := e.AmountDecimal().String(); got != "12.35" {
		t.Errorf("AmountDecimal: got %s, want 12.35", got)
	}
	if got := e.Signed().String(); got != "-12.35" {
		t.Errorf("Signed: got %s, want -12.35", got)
	}
}
