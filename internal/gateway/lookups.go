package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"pfa/internal/models"
)

// ListCategories returns the categories visible to the signed-in user,
// ordered by name.
func (c *Client) ListCategories(ctx context.Context, query models.CategoryQuery) ([]models.Category, error) {
	q := url.Values{}
	q.Set("include_global", strconv.FormatBool(query.IncludeGlobal))
	if query.UserID != nil {
		q.Set("user_id", strconv.FormatInt(*query.UserID, 10))
	}
	if query.Q != "" {
		q.Set("q", query.Q)
	}

	var categories []models.Category
	if err := c.doJSON(ctx, http.MethodGet, "/categories", q, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CategorySummary returns expense totals per category between from and to.
// Either bound may be nil.
func (c *Client) CategorySummary(ctx context.Context, from, to *models.Date) (models.CategorySummary, error) {
	userID, err := c.userID()
	if err != nil {
		return models.CategorySummary{}, err
	}
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	if from != nil {
		q.Set("from", from.String())
	}
	if to != nil {
		q.Set("to", to.String())
	}

	var out models.CategorySummary
	if err := c.doJSON(ctx, http.MethodGet, "/summary/category", q, nil, &out); err != nil {
		return models.CategorySummary{}, err
	}
	return out, nil
}

// MonthlySummary returns expense totals for each month of year.
func (c *Client) MonthlySummary(ctx context.Context, year int) (models.MonthlySummary, error) {
	userID, err := c.userID()
	if err != nil {
		return models.MonthlySummary{}, err
	}
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	q.Set("year", strconv.Itoa(year))

	var out models.MonthlySummary
	if err := c.doJSON(ctx, http.MethodGet, "/summary/monthly", q, nil, &out); err != nil {
		return models.MonthlySummary{}, err
	}
	return out, nil
}
