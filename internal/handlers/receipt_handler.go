package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
	"pfa/internal/staging"
	"pfa/internal/validator"
)

// ReceiptHandler serves the receipt import screen.
type ReceiptHandler struct {
	flow *staging.Workflow
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(flow *staging.Workflow) *ReceiptHandler {
	return &ReceiptHandler{flow: flow}
}

// View returns staged and working rows.
// @Summary     Receipt import state
// @Tags        receipt
// @Produce     json
// @Success     200 {object} staging.View
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /receipt [get]
func (h *ReceiptHandler) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.flow.View())
}

// Upload extracts line items from the multipart "file" field.
// @Summary     Upload a receipt
// @Tags        receipt
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Receipt image or PDF"
// @Success     200 {object} staging.View
// @Failure     400 {object} middleware.ErrorResponse "Empty or unreadable upload"
// @Failure     422 {object} middleware.ErrorResponse "Missing file"
// @Failure     409 {object} middleware.ErrorResponse "Upload in flight"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /receipt/upload [post]
func (h *ReceiptHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.Invalid(apperrors.FieldErrors{"file": "Required"}))
		return
	}
	file, err := fh.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer func() { _ = file.Close() }()

	if err := h.flow.Upload(c.Request.Context(), fh.Filename, file); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.flow.View())
}

// Apply moves the staged rows into the working rows.
// @Summary     Apply staged rows
// @Tags        receipt
// @Produce     json
// @Success     200 {object} staging.View
// @Failure     409 {object} middleware.ErrorResponse "Nothing staged"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /receipt/apply [post]
func (h *ReceiptHandler) Apply(c *gin.Context) {
	h.respond(c, http.StatusOK, h.flow.ApplyStaged())
}

// AddRow appends a blank row.
// @Summary     Add a blank row
// @Tags        receipt
// @Produce     json
// @Success     201 {object} staging.View
// @Failure     409 {object} middleware.ErrorResponse "Submit in flight"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /receipt/rows [post]
func (h *ReceiptHandler) AddRow(c *gin.Context) {
	_, err := h.flow.AddRow()
	h.respond(c, http.StatusCreated, err)
}

// EditRow patches the row at :index.
// @Summary     Edit a row
// @Tags        receipt
// @Accept      json
// @Produce     json
// @Param       index path int true "Row index"
// @Param       request body models.DraftPatch true "Fields to change"
// @Success     200 {object} staging.View
// @Failure     400 {object} middleware.ErrorResponse "Invalid index"
// @Failure     409 {object} middleware.ErrorResponse "Submit in flight"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /receipt/rows/{index} [patch]
func (h *ReceiptHandler) EditRow(c *gin.Context) {
	i, err := parseIndex(c, "index")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var patch models.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondWithError(c, validator.BindError(err))
		return
	}
	h.respond(c, http.StatusOK, h.flow.EditRow(i, patch))
}

// RemoveRow deletes the row at :index.
// @Summary     Remove a row
// @Tags        receipt
// @Produce     json
// @Param       index path int true "Row index"
// @Success     200 {object} staging.View
// @Failure     400 {object} middleware.ErrorResponse "Invalid index"
// @Failure     409 {object} middleware.ErrorResponse "Submit in flight"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /receipt/rows/{index} [delete]
func (h *ReceiptHandler) RemoveRow(c *gin.Context) {
	i, err := parseIndex(c, "index")
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respond(c, http.StatusOK, h.flow.RemoveRow(i))
}

// Submit creates every working row in one request.
// @Summary     Create every row
// @Tags        receipt
// @Produce     json
// @Success     200 {object} staging.View
// @Failure     422 {object} middleware.ErrorResponse "Invalid rows"
// @Failure     409 {object} middleware.ErrorResponse "Submit in flight"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /receipt/submit [post]
func (h *ReceiptHandler) Submit(c *gin.Context) {
	h.respond(c, http.StatusOK, h.flow.SubmitAll(c.Request.Context()))
}

// Reset discards the import.
// @Summary     Discard the import
// @Tags        receipt
// @Produce     json
// @Success     200 {object} staging.View
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Router      /receipt/reset [post]
func (h *ReceiptHandler) Reset(c *gin.Context) {
	h.flow.Reset()
	c.JSON(http.StatusOK, h.flow.View())
}

func (h *ReceiptHandler) respond(c *gin.Context, status int, err error) {
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(status, h.flow.View())
}
