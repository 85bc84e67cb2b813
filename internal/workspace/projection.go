package workspace

import (
	"github.com/shopspring/decimal"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
	"pfa/internal/money"
	"pfa/internal/pagination"
)

// Placeholder is shown for an absent category or description.
const Placeholder = "—"

// Row is a transaction as the list displays it.
type Row struct {
	ID          int64          `json:"id"`
	Date        string         `json:"date"`
	Type        models.TxnType `json:"type"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Amount      string         `json:"amount"`
}

// Totals sums the rows on the current page.
type Totals struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

// ListView is everything the list screen renders.
type ListView struct {
	Rows    []Row             `json:"rows"`
	Bounds  pagination.Bounds `json:"bounds"`
	Totals  Totals            `json:"totals"`
	Query   Query             `json:"query"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
}

// DisplayAmount renders the amount signed by type: "-₹60.00" for an
// expense, "+₹1,000.00" for income.
func DisplayAmount(t models.Transaction) string {
	sign := "+"
	if t.Type == models.TxnTypeExpense {
		sign = "-"
	}
	return sign + money.FormatINR(t.Rupees().Abs())
}

// CategoryLabel returns the server-provided name, else the name looked up
// by id, else the placeholder.
func CategoryLabel(t models.Transaction, idx *models.CategoryIndex) string {
	if t.Category != nil && *t.Category != "" {
		return *t.Category
	}
	if t.CategoryID != nil {
		if name, ok := idx.Name(*t.CategoryID); ok {
			return name
		}
	}
	return Placeholder
}

// Project maps transactions to display rows, keeping their order.
func Project(items []models.Transaction, idx *models.CategoryIndex) []Row {
	rows := make([]Row, len(items))
	for i, t := range items {
		desc := t.DescriptionText()
		if desc == "" {
			desc = Placeholder
		}
		rows[i] = Row{
			ID:          t.ID,
			Date:        t.Date.String(),
			Type:        t.Type,
			Category:    CategoryLabel(t, idx),
			Description: desc,
			Amount:      DisplayAmount(t),
		}
	}
	return rows
}

// ComputeTotals returns income, expense and net for items.
func ComputeTotals(items []models.Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range items {
		if t.Type == models.TxnTypeIncome {
			income = income.Add(t.Rupees())
		} else {
			expense = expense.Add(t.Rupees())
		}
	}
	return Totals{
		Income:  money.FormatINR(income),
		Expense: money.FormatINR(expense),
		Net:     money.FormatINR(income.Sub(expense)),
	}
}

// View projects a list snapshot for display.
func View(s Snapshot, idx *models.CategoryIndex) ListView {
	v := ListView{
		Rows:    Project(s.Page.Items, idx),
		Bounds:  pagination.NewBounds(s.Query.Page, s.Query.Limit, s.Page.Total),
		Totals:  ComputeTotals(s.Page.Items),
		Query:   s.Query,
		Loading: s.Loading,
	}
	if s.Err != nil {
		v.Error = apperrors.As(s.Err).Message
	}
	return v
}
