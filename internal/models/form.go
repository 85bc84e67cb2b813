package models

import (
	"strconv"
	"strings"

	"pfa/internal/money"
)

// TransactionForm holds the values of the create/edit dialog as the user
// typed them. Validation runs on submit, not per keystroke.
type TransactionForm struct {
	Type        TxnType `json:"type" validate:"required,txn_type"`
	Date        string  `json:"date" validate:"required,iso_date"`
	CategoryID  *int64  `json:"category_id" validate:"required_if=Type expense"`
	Description string  `json:"description" validate:"max=500"`
	Amount      string  `json:"amount" validate:"required,positive_amount"`
}

// NewTransactionForm returns the defaults of a fresh create dialog.
func NewTransactionForm() TransactionForm {
	return TransactionForm{
		Type: TxnTypeExpense,
		Date: Today().String(),
	}
}

// FormFromTransaction pre-populates the edit dialog from t. When the row
// only carries a category name, idx recovers the id.
func FormFromTransaction(t Transaction, idx *CategoryIndex) TransactionForm {
	form := TransactionForm{
		Type:        t.Type,
		Date:        t.Date.String(),
		Description: t.DescriptionText(),
		Amount:      t.Rupees().StringFixed(2),
	}
	switch {
	case t.CategoryID != nil:
		id := *t.CategoryID
		form.CategoryID = &id
	case t.Category != nil:
		if id, ok := idx.IDByName(*t.Category); ok {
			form.CategoryID = &id
		}
	}
	return form
}

// ParseCategoryID parses an optional category id from a form value.
func ParseCategoryID(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Payload converts a validated form into a create payload. The amount is
// sent as a two-decimal rupee string; income never carries a category. The
// gateway fills in the user id.
func (f TransactionForm) Payload() (TransactionPayload, error) {
	date, err := ParseDate(f.Date)
	if err != nil {
		return TransactionPayload{}, err
	}
	amount, err := money.NormalizeRupees(f.Amount)
	if err != nil {
		return TransactionPayload{}, err
	}
	p := TransactionPayload{
		Type:        f.Type,
		Date:        date,
		Description: trimmedOrNil(f.Description),
		Amount:      &amount,
	}
	if f.Type == TxnTypeExpense && f.CategoryID != nil {
		id := *f.CategoryID
		p.CategoryID = &id
	}
	return p, nil
}

// Patch converts a validated form into an update body carrying every
// editable field.
func (f TransactionForm) Patch() (TransactionPatch, error) {
	p, err := f.Payload()
	if err != nil {
		return TransactionPatch{}, err
	}
	description := ""
	if p.Description != nil {
		description = *p.Description
	}
	return TransactionPatch{
		Type:        &p.Type,
		Date:        &p.Date,
		CategoryID:  p.CategoryID,
		Description: &description,
		Amount:      p.Amount,
	}, nil
}

// Form returns the row as dialog form values so rows and the dialog share
// one set of validation rules.
func (r ReceiptDraftRow) Form() TransactionForm {
	return TransactionForm{
		Type:        r.Type,
		Date:        r.Date,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount,
	}
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
