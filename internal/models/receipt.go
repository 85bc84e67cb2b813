package models

import "github.com/shopspring/decimal"

// Confidence is the extractor's per-field confidence in [0, 1].
type Confidence struct {
	Amount      float64 `json:"amount"`
	Description float64 `json:"description"`
	Date        float64 `json:"date"`
}

// ExtractedTransaction is one line item detected in a receipt.
type ExtractedTransaction struct {
	Type        string          `json:"type"`
	Date        *Date           `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Confidence  Confidence      `json:"confidence"`
}

// ReceiptDiagnostics describes how the extraction was produced.
type ReceiptDiagnostics struct {
	Source       string  `json:"source"`
	DateDetected string  `json:"date_detected,omitempty"`
	Items        int     `json:"items,omitempty"`
	Total        float64 `json:"total,omitempty"`
}

// ReceiptExtraction is the response of POST /extract/receipt.
type ReceiptExtraction struct {
	Transactions []ExtractedTransaction `json:"transactions"`
	RawJSON      string                 `json:"raw_json"`
	Diagnostics  ReceiptDiagnostics     `json:"diagnostics"`
}

// ReceiptDraftRow is a staged, not yet persisted candidate transaction. Key
// is assigned on the client so rows can be addressed stably while the user
// edits, removes and reorders them.
type ReceiptDraftRow struct {
	Key         string  `json:"key"`
	Type        TxnType `json:"type" validate:"required,txn_type"`
	Date        string  `json:"date" validate:"required,iso_date"`
	CategoryID  *int64  `json:"category_id" validate:"required_if=Type expense"`
	Description string  `json:"description" validate:"max=500"`
	Amount      string  `json:"amount" validate:"required,positive_amount"`
}

// DraftPatch is a partial edit of a draft row. Nil fields are unchanged;
// ClearCategory unsets the category.
type DraftPatch struct {
	Type          *TxnType `json:"type,omitempty"`
	Date          *string  `json:"date,omitempty"`
	CategoryID    *int64   `json:"category_id,omitempty"`
	ClearCategory bool     `json:"clear_category,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Amount        *string  `json:"amount,omitempty"`
}

// Apply returns r with p applied.
func (p DraftPatch) Apply(r ReceiptDraftRow) ReceiptDraftRow {
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.ClearCategory {
		r.CategoryID = nil
	} else if p.CategoryID != nil {
		id := *p.CategoryID
		r.CategoryID = &id
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	return r
}
