package workspace

import (
	"context"
	"sync"

	apperrors "pfa/internal/errors"
	"pfa/internal/logger"
	"pfa/internal/models"
	"pfa/internal/validator"
)

// Mutator writes transactions.
type Mutator interface {
	CreateTransaction(ctx context.Context, payload models.TransactionPayload) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// Refresher is told to reload after a successful write.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Phase is the state of the mutation workflow.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseDialogOpen    Phase = "dialog_open"
	PhaseSubmitting    Phase = "submitting"
	PhaseConfirmDelete Phase = "confirm_delete"
	PhaseDeleting      Phase = "deleting"
)

// Mode says whether the dialog creates or edits.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// DialogView is what the dialog and delete confirmation render.
type DialogView struct {
	Phase  Phase                  `json:"phase"`
	Mode   Mode                   `json:"mode,omitempty"`
	Target *models.Transaction    `json:"target,omitempty"`
	Form   models.TransactionForm `json:"form"`
	Fields apperrors.FieldErrors  `json:"fields,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Dialog drives create, edit and delete of single transactions. At most
// one write is in flight at a time.
type Dialog struct {
	mu        sync.Mutex
	api       Mutator
	refresher Refresher
	notices   *Notices

	phase      Phase
	generation uint64
	mode       Mode
	target     *models.Transaction
	form       models.TransactionForm
	fields     apperrors.FieldErrors
	errMsg     string
}

// NewDialog returns an idle dialog.
func NewDialog(api Mutator, refresher Refresher, notices *Notices) *Dialog {
	return &Dialog{api: api, refresher: refresher, notices: notices, phase: PhaseIdle}
}

// View returns the current dialog state.
func (d *Dialog) View() DialogView {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := DialogView{Phase: d.phase, Mode: d.mode, Form: d.form, Fields: d.fields, Error: d.errMsg}
	if d.target != nil {
		t := *d.target
		v.Target = &t
	}
	return v
}

func (d *Dialog) invalidState(op string) error {
	return apperrors.WithMessage(apperrors.ErrInvalidState, "Cannot "+op+" while "+string(d.phase))
}

// OpenCreate opens an empty create dialog.
func (d *Dialog) OpenCreate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseIdle {
		return d.invalidState("open the dialog")
	}
	d.open(ModeCreate, nil, models.NewTransactionForm())
	return nil
}

// OpenEdit opens the dialog pre-filled from t. idx recovers the category id
// when t only carries the category name.
func (d *Dialog) OpenEdit(t models.Transaction, idx *models.CategoryIndex) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseIdle {
		return d.invalidState("open the dialog")
	}
	d.open(ModeEdit, &t, models.FormFromTransaction(t, idx))
	return nil
}

func (d *Dialog) open(mode Mode, target *models.Transaction, form models.TransactionForm) {
	d.phase, d.mode, d.target, d.form = PhaseDialogOpen, mode, target, form
	d.fields, d.errMsg = nil, ""
}

func (d *Dialog) reset() {
	d.phase, d.mode, d.target = PhaseIdle, "", nil
	d.form, d.fields, d.errMsg = models.TransactionForm{}, nil, ""
}

// Cancel closes the dialog or the delete confirmation.
func (d *Dialog) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.phase {
	case PhaseDialogOpen, PhaseConfirmDelete:
		d.reset()
		return nil
	case PhaseIdle:
		return nil
	default:
		return d.invalidState("cancel")
	}
}

// Submit validates form and, if it passes, creates or updates the
// transaction. Field errors keep the dialog open and make no request.
func (d *Dialog) Submit(ctx context.Context, form models.TransactionForm) error {
	d.mu.Lock()
	if d.phase != PhaseDialogOpen {
		err := d.invalidState("submit")
		d.mu.Unlock()
		return err
	}
	d.form = form
	if err := validator.Validate(form); err != nil {
		d.fields, d.errMsg = apperrors.As(err).Fields, ""
		d.mu.Unlock()
		return err
	}
	d.fields, d.errMsg = nil, ""
	mode, target := d.mode, d.target
	d.phase = PhaseSubmitting
	gen := d.generation
	d.mu.Unlock()

	err := d.write(ctx, mode, target, form)

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return err
	}
	if err != nil {
		d.phase = PhaseDialogOpen
		d.errMsg = apperrors.As(err).Message
		d.mu.Unlock()
		d.notices.Error(err)
		return err
	}
	d.reset()
	d.mu.Unlock()

	if mode == ModeCreate {
		d.notices.Push(LevelSuccess, "Transaction added")
	} else {
		d.notices.Push(LevelSuccess, "Transaction updated")
	}
	d.refresh(ctx)
	return nil
}

func (d *Dialog) write(ctx context.Context, mode Mode, target *models.Transaction, form models.TransactionForm) error {
	if mode == ModeEdit {
		patch, err := form.Patch()
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidInput, err)
		}
		_, err = d.api.UpdateTransaction(ctx, target.ID, patch)
		return err
	}
	payload, err := form.Payload()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	_, err = d.api.CreateTransaction(ctx, payload)
	return err
}

// RequestDelete asks for confirmation before deleting t.
func (d *Dialog) RequestDelete(t models.Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseIdle {
		return d.invalidState("delete")
	}
	d.phase, d.target, d.errMsg = PhaseConfirmDelete, &t, ""
	return nil
}

// ConfirmDelete deletes the transaction awaiting confirmation. On failure
// the workflow returns to idle and the list is left as it was.
func (d *Dialog) ConfirmDelete(ctx context.Context) error {
	d.mu.Lock()
	if d.phase != PhaseConfirmDelete {
		err := d.invalidState("confirm delete")
		d.mu.Unlock()
		return err
	}
	target := d.target
	d.phase = PhaseDeleting
	gen := d.generation
	d.mu.Unlock()

	err := d.api.DeleteTransaction(ctx, target.ID)

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return err
	}
	d.reset()
	d.mu.Unlock()

	if err != nil {
		d.notices.Error(err)
		return err
	}
	d.notices.Push(LevelSuccess, "Transaction deleted")
	d.refresh(ctx)
	return nil
}

// Reset closes the dialog whatever its phase. A write still in flight
// completes on the server but no longer updates the dialog.
func (d *Dialog) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	d.reset()
}

func (d *Dialog) refresh(ctx context.Context) {
	if d.refresher == nil {
		return
	}
	if err := d.refresher.Refresh(ctx); err != nil {
		logger.Get().Warnw("refresh after write failed", "error", err)
	}
}
