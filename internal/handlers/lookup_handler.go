package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pfa/internal/models"
	"pfa/internal/summary"
	"pfa/internal/validator"
	"pfa/internal/workspace"
)

// LookupHandler serves categories and the summary charts.
type LookupHandler struct {
	categories *workspace.Categories
	summary    *summary.Service
}

// NewLookupHandler creates a new LookupHandler
func NewLookupHandler(categories *workspace.Categories, svc *summary.Service) *LookupHandler {
	return &LookupHandler{categories: categories, summary: svc}
}

// CategorySummaryQuery holds the optional range of the category chart.
type CategorySummaryQuery struct {
	From string `form:"from" json:"from" binding:"omitempty,iso_date"`
	To   string `form:"to" json:"to" binding:"omitempty,iso_date"`
}

// MonthlySummaryQuery holds the year of the monthly chart.
type MonthlySummaryQuery struct {
	Year int `form:"year" json:"year" binding:"omitempty,min=1"`
}

// Categories returns the category list and dropdown options. ?refresh=true
// drops the cache first.
// @Summary     Category list and options
// @Tags        lookups
// @Produce     json
// @Param       refresh query bool false "Drop the cached list first"
// @Success     200 {object} map[string]interface{}
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /categories [get]
func (h *LookupHandler) Categories(c *gin.Context) {
	if c.Query("refresh") == "true" {
		h.categories.Invalidate()
	}
	idx, err := h.categories.Index(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": idx.Categories(),
		"options":    idx.Options(),
		"types":      models.TxnTypeOptions,
	})
}

// CategorySummary returns expenses by category.
// @Summary     Expenses by category
// @Tags        lookups
// @Produce     json
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} summary.CategoryView
// @Failure     422 {object} middleware.ErrorResponse "Invalid date"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /summary/category [get]
func (h *LookupHandler) CategorySummary(c *gin.Context) {
	var q CategorySummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, validator.BindError(err))
		return
	}
	from, err := optionalDate(q.From)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := optionalDate(q.To)
	if err != nil {
		respondWithError(c, err)
		return
	}
	view, err := h.summary.ByCategory(c.Request.Context(), from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// MonthlySummary returns expenses per month.
// @Summary     Expenses per month
// @Tags        lookups
// @Produce     json
// @Param       year query int false "Year, defaults to the current one"
// @Success     200 {object} summary.MonthlyView
// @Failure     422 {object} middleware.ErrorResponse "Invalid year"
// @Failure     401 {object} middleware.ErrorResponse "Session expired"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /summary/monthly [get]
func (h *LookupHandler) MonthlySummary(c *gin.Context) {
	var q MonthlySummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, validator.BindError(err))
		return
	}
	view, err := h.summary.Monthly(c.Request.Context(), q.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
