package models

import (
	"time"

	"github.com/shopspring/decimal"

	"pfa/internal/money"
)

// TxnType represents the type of transaction
type TxnType string

const (
	TxnTypeExpense TxnType = "expense"
	TxnTypeIncome  TxnType = "income"
)

// Valid reports whether t is a known transaction type.
func (t TxnType) Valid() bool {
	return t == TxnTypeExpense || t == TxnTypeIncome
}

// TxnTypeOptions are the dropdown choices for the type field.
var TxnTypeOptions = []Option{
	{Value: string(TxnTypeExpense), Label: "Expense"},
	{Value: string(TxnTypeIncome), Label: "Income"},
}

// Transaction represents one income or expense event as returned by the API.
// List rows carry the category name; create responses carry the id and the
// amount in paise.
type Transaction struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id,omitempty"`
	Type        TxnType          `json:"type"`
	Date        Date             `json:"date"`
	CategoryID  *int64           `json:"category_id,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	AmountMinor *int64           `json:"amount_minor,omitempty"`
	CreatedAt   *time.Time       `json:"created_at,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// Rupees returns the amount in rupees regardless of which representation the
// server sent.
func (t Transaction) Rupees() decimal.Decimal {
	if t.Amount != nil {
		return *t.Amount
	}
	if t.AmountMinor != nil {
		return money.FromPaise(*t.AmountMinor)
	}
	return decimal.Zero
}

// DescriptionText returns the description or "".
func (t Transaction) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// TransactionPayload is the body of POST /transactions and each element of
// POST /transactions/bulk.
type TransactionPayload struct {
	UserID      int64   `json:"user_id"`
	Type        TxnType `json:"type"`
	Date        Date    `json:"date"`
	CategoryID  *int64  `json:"category_id"`
	Description *string `json:"description"`
	Amount      *string `json:"amount,omitempty"`
	AmountMinor *int64  `json:"amount_minor,omitempty"`
}

// TransactionPatch is the body of PATCH /transactions/{id}. Nil fields are
// left untouched by the server.
type TransactionPatch struct {
	Type        *TxnType `json:"type,omitempty"`
	Date        *Date    `json:"date,omitempty"`
	CategoryID  *int64   `json:"category_id,omitempty"`
	Description *string  `json:"description,omitempty"`
	Amount      *string  `json:"amount,omitempty"`
}

// TransactionPage is the list response envelope.
type TransactionPage struct {
	Items []Transaction `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

// Filter narrows a transaction list. UserID is implicit and filled from the
// session by the gateway.
type Filter struct {
	UserID     int64    `json:"-"`
	From       *Date    `json:"from,omitempty"`
	To         *Date    `json:"to,omitempty"`
	Type       *TxnType `json:"type,omitempty"`
	CategoryID *int64   `json:"category_id,omitempty"`
}

// Matches reports whether t falls inside the filter. Used to check list
// results and by the in-memory fake API.
func (f Filter) Matches(t Transaction) bool {
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	return true
}
