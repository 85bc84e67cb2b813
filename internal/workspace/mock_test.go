package workspace

import (
	"context"
	"sync"

	"pfa/internal/models"
)

// --- mock gateway ---

type listCall struct {
	filter models.Filter
	page   int
	limit  int
}

type mockAPI struct {
	mu    sync.Mutex
	lists []listCall

	listTransactionsFn  func(ctx context.Context, filter models.Filter, page, limit int) (models.TransactionPage, error)
	listCategoriesFn    func(ctx context.Context, query models.CategoryQuery) ([]models.Category, error)
	createTransactionFn func(ctx context.Context, payload models.TransactionPayload) (models.Transaction, error)
	updateTransactionFn func(ctx context.Context, id int64, patch models.TransactionPatch) (models.Transaction, error)
	deleteTransactionFn func(ctx context.Context, id int64) error
}

func (m *mockAPI) ListTransactions(ctx context.Context, filter models.Filter, page, limit int) (models.TransactionPage, error) {
	m.mu.Lock()
	m.lists = append(m.lists, listCall{filter: filter, page: page, limit: limit})
	m.mu.Unlock()
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(ctx, filter, page, limit)
	}
	return models.TransactionPage{Items: []models.Transaction{}, Page: page, Limit: limit, Total: 0}, nil
}

func (m *mockAPI) ListCategories(ctx context.Context, query models.CategoryQuery) ([]models.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx, query)
	}
	return []models.Category{}, nil
}

func (m *mockAPI) CreateTransaction(ctx context.Context, payload models.TransactionPayload) (models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(ctx, payload)
	}
	return models.Transaction{ID: 1}, nil
}

func (m *mockAPI) UpdateTransaction(ctx context.Context, id int64, patch models.TransactionPatch) (models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(ctx, id, patch)
	}
	return models.Transaction{ID: id}, nil
}

func (m *mockAPI) DeleteTransaction(ctx context.Context, id int64) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(ctx, id)
	}
	return nil
}

func (m *mockAPI) listCalls() []listCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]listCall(nil), m.lists...)
}

var _ API = (*mockAPI)(nil)

// pageWithTotal answers every list call with total rows available.
func pageWithTotal(total int64) func(context.Context, models.Filter, int, int) (models.TransactionPage, error) {
	return func(_ context.Context, _ models.Filter, page, limit int) (models.TransactionPage, error) {
		return models.TransactionPage{Items: []models.Transaction{}, Page: page, Limit: limit, Total: total}, nil
	}
}

func datePtr(s string) *models.Date {
	d := models.MustParseDate(s)
	return &d
}
