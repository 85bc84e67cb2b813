package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
	"pfa/internal/validator"
	"pfa/internal/workspace"
)

// TransactionHandler serves the transaction list screen: the list itself,
// its query, the create/edit dialog and delete confirmation.
type TransactionHandler struct {
	ws *workspace.Workspace
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ws *workspace.Workspace) *TransactionHandler {
	return &TransactionHandler{ws: ws}
}

// RangeRequest sets or clears the date range. An empty bound clears it.
type RangeRequest struct {
	From string `json:"from" binding:"omitempty,iso_date"`
	To   string `json:"to" binding:"omitempty,iso_date"`
}

// QueryRequest changes the list query. Absent fields are left as they are.
// Type and category accept "all" (or "") to drop the filter.
type QueryRequest struct {
	Range      *RangeRequest `json:"range"`
	Type       *string       `json:"type" binding:"omitempty,oneof=all expense income"`
	CategoryID *string       `json:"category_id"`
	Page       *int          `json:"page"`
	Limit      *int          `json:"limit"`
}

func (r QueryRequest) change() (workspace.Change, error) {
	var ch workspace.Change
	if r.Range != nil {
		ch.SetRange = true
		from, err := optionalDate(r.Range.From)
		if err != nil {
			return ch, err
		}
		to, err := optionalDate(r.Range.To)
		if err != nil {
			return ch, err
		}
		ch.From, ch.To = from, to
	}
	if r.Type != nil {
		ch.SetType = true
		if *r.Type != "" && *r.Type != "all" {
			t := models.TxnType(*r.Type)
			ch.Type = &t
		}
	}
	if r.CategoryID != nil {
		ch.SetCategory = true
		if *r.CategoryID != "all" {
			id, err := models.ParseCategoryID(*r.CategoryID)
			if err != nil {
				return ch, apperrors.Invalid(apperrors.FieldErrors{"category_id": "Invalid"})
			}
			ch.CategoryID = id
		}
	}
	ch.Page, ch.Limit = r.Page, r.Limit
	return ch, nil
}

func optionalDate(s string) (*models.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, apperrors.Invalid(apperrors.FieldErrors{"range": "Invalid date"})
	}
	return &d, nil
}

// ScreenResponse is the list view together with the dialog state.
type ScreenResponse struct {
	List   workspace.ListView   `json:"list"`
	Dialog workspace.DialogView `json:"dialog"`
}

func (h *TransactionHandler) screen(c *gin.Context) ScreenResponse {
	return ScreenResponse{List: h.ws.View(c.Request.Context()), Dialog: h.ws.Dialog.View()}
}

// List returns the current page, fetching it on first use. A failed fetch
// is reported inside the view so the screen can offer a retry; only an
// expired session is answered with an error.
// @Summary     Transaction list
// @Tags        transactions
// @Produce     json
// @Success     200 {object} ScreenResponse
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	if err := h.ws.List.Load(c.Request.Context()); apperrors.IsUnauthorized(err) {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.screen(c))
}

// UpdateQuery applies a range, type, category, page or limit change.
// @Summary     Change the list query
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body QueryRequest true "Query changes"
// @Success     200 {object} ScreenResponse
// @Failure     400 {object} middleware.ErrorResponse "Page out of range or unsupported limit"
// @Failure     422 {object} middleware.ErrorResponse "Invalid filter"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /transactions/query [put]
func (h *TransactionHandler) UpdateQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindError(err))
		return
	}
	ch, err := req.change()
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.ws.List.Apply(c.Request.Context(), ch); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.screen(c))
}

// Refresh refetches the current page.
// @Summary     Refetch the current page
// @Tags        transactions
// @Produce     json
// @Success     200 {object} ScreenResponse
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /transactions/refresh [post]
func (h *TransactionHandler) Refresh(c *gin.Context) {
	if err := h.ws.List.Refresh(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.screen(c))
}

// Notices returns and clears pending notices.
// @Summary     Drain pending notices
// @Tags        transactions
// @Produce     json
// @Success     200 {object} map[string][]workspace.Notice
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /notices [get]
func (h *TransactionHandler) Notices(c *gin.Context) {
	notices := h.ws.Notices.Drain()
	if notices == nil {
		notices = []workspace.Notice{}
	}
	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

// Dialog returns the dialog state.
// @Summary     Dialog state
// @Tags        dialog
// @Produce     json
// @Success     200 {object} workspace.DialogView
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /dialog [get]
func (h *TransactionHandler) Dialog(c *gin.Context) {
	c.JSON(http.StatusOK, h.ws.Dialog.View())
}

// OpenCreate opens an empty create dialog.
// @Summary     Open the create dialog
// @Tags        dialog
// @Produce     json
// @Success     200 {object} workspace.DialogView
// @Failure     409 {object} middleware.ErrorResponse "Dialog already open"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /dialog/create [post]
func (h *TransactionHandler) OpenCreate(c *gin.Context) {
	if err := h.ws.Dialog.OpenCreate(); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ws.Dialog.View())
}

// OpenEdit opens the dialog for a transaction on the current page.
// @Summary     Open the edit dialog
// @Tags        dialog
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} workspace.DialogView
// @Failure     400 {object} middleware.ErrorResponse "Invalid ID"
// @Failure     404 {object} middleware.ErrorResponse "Not on the current page"
// @Failure     409 {object} middleware.ErrorResponse "Dialog already open"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /dialog/edit/{id} [post]
func (h *TransactionHandler) OpenEdit(c *gin.Context) {
	t, ok := h.onPage(c)
	if !ok {
		return
	}
	idx, _ := h.ws.Categories.Index(c.Request.Context())
	if err := h.ws.Dialog.OpenEdit(t, idx); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ws.Dialog.View())
}

// Cancel closes the dialog or delete confirmation.
// @Summary     Close the dialog
// @Tags        dialog
// @Produce     json
// @Success     200 {object} workspace.DialogView
// @Failure     409 {object} middleware.ErrorResponse "Submit in flight"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /dialog/cancel [post]
func (h *TransactionHandler) Cancel(c *gin.Context) {
	if err := h.ws.Dialog.Cancel(); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ws.Dialog.View())
}

// Submit validates the dialog form and creates or updates the transaction.
// @Summary     Submit the dialog
// @Tags        dialog
// @Accept      json
// @Produce     json
// @Param       request body models.TransactionForm true "Transaction form"
// @Success     200 {object} ScreenResponse
// @Failure     422 {object} middleware.ErrorResponse "Invalid input"
// @Failure     409 {object} middleware.ErrorResponse "Dialog not open"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /dialog/submit [post]
func (h *TransactionHandler) Submit(c *gin.Context) {
	var form models.TransactionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondWithError(c, validator.BindError(err))
		return
	}
	if err := h.ws.Dialog.Submit(c.Request.Context(), form); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.screen(c))
}

// RequestDelete asks for confirmation before deleting.
// @Summary     Ask to delete a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} workspace.DialogView
// @Failure     400 {object} middleware.ErrorResponse "Invalid ID"
// @Failure     404 {object} middleware.ErrorResponse "Not on the current page"
// @Failure     409 {object} middleware.ErrorResponse "Dialog already open"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /transactions/{id}/delete [post]
func (h *TransactionHandler) RequestDelete(c *gin.Context) {
	t, ok := h.onPage(c)
	if !ok {
		return
	}
	if err := h.ws.Dialog.RequestDelete(t); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ws.Dialog.View())
}

// ConfirmDelete deletes the transaction awaiting confirmation.
// @Summary     Confirm a delete
// @Tags        transactions
// @Produce     json
// @Success     200 {object} ScreenResponse
// @Failure     409 {object} middleware.ErrorResponse "Nothing to confirm"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /delete/confirm [post]
func (h *TransactionHandler) ConfirmDelete(c *gin.Context) {
	if err := h.ws.Dialog.ConfirmDelete(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.screen(c))
}

// onPage resolves the :id path parameter to a transaction on the current
// page. Rows can only be edited or deleted from the page the user sees.
func (h *TransactionHandler) onPage(c *gin.Context) (models.Transaction, bool) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return models.Transaction{}, false
	}
	t, ok := h.ws.Find(id)
	if !ok {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Transaction is not on the current page"))
		return models.Transaction{}, false
	}
	return t, true
}
