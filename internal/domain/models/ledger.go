// internal/domain/models/ledger.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ledger entry directions.
const (
	LedgerIncoming = "incoming"
	LedgerOutgoing = "outgoing"
)

// Ledger categories offered by the financials screen.
const (
	CategorySponsorship = "Sponsorship"
	CategoryPlayerDues  = "Player Dues"
	CategoryEquipment   = "Equipment"
	CategoryConcessions = "Concessions"
	CategoryMerch       = "Merch"
	CategoryTravel      = "Travel"
	CategoryOther       = "Other"
)

// LedgerCategories is the allowed category set.
var LedgerCategories = []string{
	CategorySponsorship,
	CategoryPlayerDues,
	CategoryEquipment,
	CategoryConcessions,
	CategoryMerch,
	CategoryTravel,
	CategoryOther,
}

// LedgerEntry is one line in the club's financial ledger.
// Amount is always positive; Type carries the direction.
type LedgerEntry struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Description string               `bson:"description" json:"description"`
	Amount      primitive.Decimal128 `bson:"amount" json:"-"`
	Type        string               `bson:"type" json:"type"`
	Category    string               `bson:"category" json:"category"`
	Date        string               `bson:"date" json:"date"` // YYYY-MM-DD
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"created_by"`
	Cashier     string               `bson:"cashier,omitempty" json:"cashier,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

// AmountDecimal returns Amount as a decimal.Decimal. A malformed stored
// value reads as zero.
func (e *LedgerEntry) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(e.Amount.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Signed returns the amount with outgoing entries negated.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Type == LedgerOutgoing {
		return e.AmountDecimal().Neg()
	}
	return e.AmountDecimal()
}

// ToDecimal128 converts d to a Decimal128 rounded to cents.
func ToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.StringFixed(2))
}

// LedgerView is the JSON shape of an entry; the amount is a two-place string.
type LedgerView struct {
	LedgerEntry
	Amount string `json:"amount"`
}

// View returns e with its amount formatted for clients.
func (e LedgerEntry) View() LedgerView {
	return LedgerView{LedgerEntry: e, Amount: e.AmountDecimal().StringFixed(2)}
}

// LedgerTotals summarizes a set of entries.
type LedgerTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Totals sums entries by direction.
func Totals(entries []LedgerEntry) LedgerTotals {
	t := LedgerTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for i := range entries {
		amt := entries[i].AmountDecimal()
		if entries[i].Type == LedgerOutgoing {
			t.Expense = t.Expense.Add(amt)
		} else {
			t.Income = t.Income.Add(amt)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}
