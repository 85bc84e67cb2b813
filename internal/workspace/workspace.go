package workspace

import (
	"context"

	"pfa/internal/logger"
	"pfa/internal/models"
)

// API is the part of the gateway the workspace uses.
type API interface {
	Lister
	CategoryLister
	Mutator
}

// Workspace bundles the controllers of the transaction screen.
type Workspace struct {
	List       *List
	Categories *Categories
	Dialog     *Dialog
	Notices    *Notices
}

// New wires a workspace on top of api.
func New(api API, opts Options) *Workspace {
	list := NewList(api, opts)
	notices := &Notices{}
	return &Workspace{
		List:       list,
		Categories: NewCategories(api),
		Dialog:     NewDialog(api, list, notices),
		Notices:    notices,
	}
}

// View returns the list view-model. Categories are loaded on first use; if
// that fails rows fall back to the names the server sent.
func (w *Workspace) View(ctx context.Context) ListView {
	idx, err := w.Categories.Index(ctx)
	if err != nil {
		logger.Get().Warnw("loading categories failed", "error", err)
	}
	return View(w.List.Snapshot(), idx)
}

// Find returns the transaction with id from the current page.
func (w *Workspace) Find(id int64) (models.Transaction, bool) {
	for _, t := range w.List.Snapshot().Page.Items {
		if t.ID == id {
			return t, true
		}
	}
	return models.Transaction{}, false
}

// Reset returns every controller to its initial state, e.g. after sign-out.
func (w *Workspace) Reset() {
	w.List.Reset()
	w.Categories.Invalidate()
	w.Dialog.Reset()
	w.Notices.Drain()
}
