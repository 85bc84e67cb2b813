// Package staging implements the receipt import workflow: upload a receipt,
// review the extracted rows, edit them, and create them in one bulk request.
package staging

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	apperrors "pfa/internal/errors"
	"pfa/internal/logger"
	"pfa/internal/models"
	"pfa/internal/validator"
	"pfa/internal/workspace"
)

// EmptyReceiptMessage is shown when the extractor found no line items.
const EmptyReceiptMessage = "No items detected in receipt. You can still add rows manually."

// API is the part of the gateway the workflow uses.
type API interface {
	ExtractReceipt(ctx context.Context, filename string, r io.Reader) (models.ReceiptExtraction, error)
	CreateTransactionsBulk(ctx context.Context, payloads []models.TransactionPayload) ([]models.Transaction, error)
}

// State is the state of the staging workflow.
type State string

const (
	StateEmpty      State = "empty"
	StateUploading  State = "uploading"
	StateStaged     State = "staged"
	StateReviewing  State = "reviewing"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// editable reports whether the working rows may be changed in s.
func (s State) editable() bool {
	switch s {
	case StateEmpty, StateStaged, StateReviewing, StateFailed:
		return true
	}
	return false
}

// View is what the import screen renders.
type View struct {
	State       State                      `json:"state"`
	Staged      []models.ReceiptDraftRow   `json:"staged"`
	Rows        []models.ReceiptDraftRow   `json:"rows"`
	Fields      apperrors.FieldErrors      `json:"fields,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Diagnostics *models.ReceiptDiagnostics `json:"diagnostics,omitempty"`
}

// Workflow holds staged receipt rows and the editable working rows. Staged
// rows only reach the working rows through ApplyStaged.
type Workflow struct {
	mu        sync.Mutex
	api       API
	refresher workspace.Refresher
	notices   *workspace.Notices

	state       State
	generation  uint64
	staged      []models.ReceiptDraftRow
	rows        []models.ReceiptDraftRow
	fields      apperrors.FieldErrors
	errMsg      string
	diagnostics *models.ReceiptDiagnostics
}

// New returns an empty workflow. refresher is told to reload the list after
// a successful import.
func New(api API, refresher workspace.Refresher, notices *workspace.Notices) *Workflow {
	return &Workflow{api: api, refresher: refresher, notices: notices, state: StateEmpty}
}

// View returns a copy of the current state.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := View{
		State:  w.state,
		Staged: append([]models.ReceiptDraftRow{}, w.staged...),
		Rows:   append([]models.ReceiptDraftRow{}, w.rows...),
		Error:  w.errMsg,
	}
	if len(w.fields) > 0 {
		v.Fields = make(apperrors.FieldErrors, len(w.fields))
		for k, msg := range w.fields {
			v.Fields[k] = msg
		}
	}
	if w.diagnostics != nil {
		d := *w.diagnostics
		v.Diagnostics = &d
	}
	return v
}

func (w *Workflow) invalidState(op string) error {
	return apperrors.WithMessage(apperrors.ErrInvalidState, "Cannot "+op+" while "+string(w.state))
}

// Upload sends the receipt to the extractor and stages one draft row per
// detected line item. Staged rows replace any earlier staged rows; the
// working rows are not touched.
func (w *Workflow) Upload(ctx context.Context, filename string, r io.Reader) error {
	w.mu.Lock()
	if !w.state.editable() && w.state != StateDone {
		err := w.invalidState("upload")
		w.mu.Unlock()
		return err
	}
	prev := w.state
	w.state = StateUploading
	w.errMsg = ""
	gen := w.generation
	w.mu.Unlock()

	extraction, err := w.api.ExtractReceipt(ctx, filename, r)

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		logger.Get().Debugw("discarding receipt extraction after reset", "file", filename)
		return nil
	}
	if err != nil {
		w.state = prev
		w.errMsg = apperrors.As(err).Message
		w.mu.Unlock()
		w.notices.Error(err)
		return err
	}

	diag := extraction.Diagnostics
	w.diagnostics = &diag
	if len(extraction.Transactions) == 0 {
		w.state = StateEmpty
		w.staged = nil
		w.mu.Unlock()
		w.notices.Push(workspace.LevelInfo, EmptyReceiptMessage)
		return nil
	}

	staged := make([]models.ReceiptDraftRow, len(extraction.Transactions))
	for i, e := range extraction.Transactions {
		staged[i] = draftFromExtracted(e)
	}
	w.staged = staged
	w.state = StateStaged
	w.mu.Unlock()

	logger.Get().Infow("receipt staged", "file", filename, "rows", len(staged), "source", diag.Source)
	w.notices.Push(workspace.LevelSuccess, fmt.Sprintf("Found %d item(s)", len(staged)))
	return nil
}

// draftFromExtracted copies date, description and amount. Extracted rows are
// always staged as uncategorized expenses. A date the extractor could not
// read stays blank until the user fills it in.
func draftFromExtracted(e models.ExtractedTransaction) models.ReceiptDraftRow {
	date := ""
	if e.Date != nil && !e.Date.IsZero() {
		date = e.Date.String()
	}
	return models.ReceiptDraftRow{
		Key:         newKey(),
		Type:        models.TxnTypeExpense,
		Date:        date,
		Description: strings.TrimSpace(e.Description),
		Amount:      e.Amount.StringFixed(2),
	}
}

func newKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ApplyStaged replaces the working rows with the staged rows and clears the
// staged buffer.
func (w *Workflow) ApplyStaged() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateStaged || len(w.staged) == 0 {
		return w.invalidState("apply staged rows")
	}
	w.rows = w.staged
	w.staged = nil
	w.fields, w.errMsg = nil, ""
	w.state = StateReviewing
	return nil
}

// AddRow appends a blank, undated expense row and returns its key.
func (w *Workflow) AddRow() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.editable() {
		return "", w.invalidState("add a row")
	}
	row := models.ReceiptDraftRow{Key: newKey(), Type: models.TxnTypeExpense}
	w.rows = append(w.rows, row)
	w.state = StateReviewing
	return row.Key, nil
}

// RemoveRow deletes working row i.
func (w *Workflow) RemoveRow(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.editable() {
		return w.invalidState("remove a row")
	}
	if err := w.checkIndex(i); err != nil {
		return err
	}
	w.rows = append(w.rows[:i:i], w.rows[i+1:]...)
	// Row indices shifted, so per-row messages no longer line up.
	w.fields = nil
	w.state = StateReviewing
	return nil
}

// EditRow applies patch to working row i.
func (w *Workflow) EditRow(i int, patch models.DraftPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.editable() {
		return w.invalidState("edit a row")
	}
	if err := w.checkIndex(i); err != nil {
		return err
	}
	w.rows[i] = patch.Apply(w.rows[i])
	prefix := rowPrefix(i)
	for k := range w.fields {
		if strings.HasPrefix(k, prefix) {
			delete(w.fields, k)
		}
	}
	w.state = StateReviewing
	return nil
}

func (w *Workflow) checkIndex(i int) error {
	if i < 0 || i >= len(w.rows) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("Row %d does not exist", i+1))
	}
	return nil
}

func rowPrefix(i int) string {
	return fmt.Sprintf("rows[%d].", i)
}

// SubmitAll validates every working row and creates them in one bulk
// request. Any invalid row stops the submit before the network and all rows
// are kept. The server creates all rows or none.
func (w *Workflow) SubmitAll(ctx context.Context) error {
	w.mu.Lock()
	if !w.state.editable() {
		err := w.invalidState("submit")
		w.mu.Unlock()
		return err
	}
	if len(w.rows) == 0 {
		w.mu.Unlock()
		return apperrors.ErrNoRows
	}

	fields := apperrors.FieldErrors{}
	for i, row := range w.rows {
		for k, msg := range validator.Fields(row, rowPrefix(i)) {
			fields[k] = msg
		}
	}
	if len(fields) > 0 {
		w.fields, w.errMsg = fields, ""
		w.state = StateReviewing
		w.mu.Unlock()
		return apperrors.Invalid(fields)
	}

	payloads := make([]models.TransactionPayload, len(w.rows))
	for i, row := range w.rows {
		p, err := row.Form().Payload()
		if err != nil {
			w.mu.Unlock()
			return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Errorf("row %d: %w", i+1, err))
		}
		payloads[i] = p
	}
	w.fields, w.errMsg = nil, ""
	w.state = StateSubmitting
	gen := w.generation
	w.mu.Unlock()

	created, err := w.api.CreateTransactionsBulk(ctx, payloads)

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		logger.Get().Warnw("bulk create finished after reset", "rows", len(payloads), "error", err)
		return nil
	}
	if err != nil {
		w.state = StateFailed
		w.errMsg = apperrors.As(err).Message
		w.mu.Unlock()
		w.notices.Error(err)
		return err
	}
	w.state = StateDone
	w.rows = nil
	w.mu.Unlock()

	w.notices.Push(workspace.LevelSuccess, fmt.Sprintf("Added %d transaction(s)", len(created)))
	if w.refresher != nil {
		if err := w.refresher.Refresh(ctx); err != nil {
			logger.Get().Warnw("refresh after import failed", "error", err)
		}
	}
	return nil
}

// Reset discards staged and working rows. A request still in flight is
// ignored when it completes.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.state = StateEmpty
	w.staged, w.rows = nil, nil
	w.fields, w.errMsg = nil, ""
	w.diagnostics = nil
}
