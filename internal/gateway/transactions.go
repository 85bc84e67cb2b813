package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
)

// ListTransactions fetches one page of the signed-in user's transactions,
// newest first.
func (c *Client) ListTransactions(ctx context.Context, filter models.Filter, page, limit int) (models.TransactionPage, error) {
	userID, err := c.userID()
	if err != nil {
		return models.TransactionPage{}, err
	}

	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if filter.From != nil {
		q.Set("from", filter.From.String())
	}
	if filter.To != nil {
		q.Set("to", filter.To.String())
	}
	if filter.Type != nil {
		q.Set("type", string(*filter.Type))
	}
	if filter.CategoryID != nil {
		q.Set("category_id", strconv.FormatInt(*filter.CategoryID, 10))
	}

	var result models.TransactionPage
	if err := c.doJSON(ctx, http.MethodGet, "/transactions", q, nil, &result); err != nil {
		return models.TransactionPage{}, err
	}
	if result.Page < 1 || (result.Limit > 0 && len(result.Items) > result.Limit) {
		return models.TransactionPage{}, apperrors.Wrap(apperrors.ErrBadResponse,
			fmt.Errorf("invalid page envelope: page=%d limit=%d items=%d", result.Page, result.Limit, len(result.Items)))
	}
	return result, nil
}

// CreateTransaction stores a single transaction.
func (c *Client) CreateTransaction(ctx context.Context, payload models.TransactionPayload) (models.Transaction, error) {
	userID, err := c.userID()
	if err != nil {
		return models.Transaction{}, err
	}
	payload.UserID = userID

	var created models.Transaction
	if err := c.doJSON(ctx, http.MethodPost, "/transactions", nil, payload, &created); err != nil {
		return models.Transaction{}, err
	}
	return created, nil
}

// CreateTransactionsBulk stores all payloads in one request. The API
// accepts or rejects the batch as a whole.
func (c *Client) CreateTransactionsBulk(ctx context.Context, payloads []models.TransactionPayload) ([]models.Transaction, error) {
	userID, err := c.userID()
	if err != nil {
		return nil, err
	}
	body := make([]models.TransactionPayload, len(payloads))
	for i, p := range payloads {
		p.UserID = userID
		body[i] = p
	}

	var created []models.Transaction
	if err := c.doJSON(ctx, http.MethodPost, "/transactions/bulk", nil, body, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTransaction applies patch to transaction id.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (models.Transaction, error) {
	var updated models.Transaction
	if err := c.doJSON(ctx, http.MethodPatch, transactionPath(id), nil, patch, &updated); err != nil {
		return models.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction removes transaction id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, transactionPath(id), nil, nil, nil)
}

func transactionPath(id int64) string {
	return "/transactions/" + strconv.FormatInt(id, 10)
}
