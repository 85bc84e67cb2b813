package workspace

import (
	"context"
	"testing"
	"time"

	apperrors "pfa/internal/errors"
	"pfa/internal/models"
	"pfa/internal/testutil"
)

func loadedList(t *testing.T, api *mockAPI, opts Options) *List {
	t.Helper()
	l := NewList(api, opts)
	testutil.AssertNoError(t, l.Load(context.Background()))
	return l
}

func TestList_SetRange(t *testing.T) {
	tests := []struct {
		name             string
		startFrom        *models.Date
		startTo          *models.Date
		from, to         *models.Date
		wantFrom, wantTo string
	}{
		{"plain range", nil, nil, datePtr("2024-03-01"), datePtr("2024-03-31"), "2024-03-01", "2024-03-31"},
		{"new from after to moves to", datePtr("2024-03-01"), datePtr("2024-03-10"), datePtr("2024-03-20"), datePtr("2024-03-10"), "2024-03-20", "2024-03-20"},
		{"new to before from moves from", datePtr("2024-03-10"), datePtr("2024-03-20"), datePtr("2024-03-10"), datePtr("2024-03-01"), "2024-03-01", "2024-03-01"},
		{"both change and cross, to wins", datePtr("2024-03-01"), datePtr("2024-03-02"), datePtr("2024-04-10"), datePtr("2024-04-05"), "2024-04-05", "2024-04-05"},
		{"clear both", datePtr("2024-03-01"), datePtr("2024-03-02"), nil, nil, "", ""},
		{"open ended", nil, nil, datePtr("2024-03-01"), nil, "2024-03-01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := loadedList(t, &mockAPI{}, Options{PageSize: 10})
			testutil.AssertNoError(t, l.SetRange(context.Background(), tt.startFrom, tt.startTo))
			testutil.AssertNoError(t, l.SetRange(context.Background(), tt.from, tt.to))

			q := l.Query()
			gotFrom, gotTo := "", ""
			if q.From != nil {
				gotFrom = q.From.String()
			}
			if q.To != nil {
				gotTo = q.To.String()
			}
			if gotFrom != tt.wantFrom || gotTo != tt.wantTo {
				t.Errorf("expected %q..%q, got %q..%q", tt.wantFrom, tt.wantTo, gotFrom, gotTo)
			}
		})
	}
}

func TestList_SetRangeNeverInverts(t *testing.T) {
	l := loadedList(t, &mockAPI{}, Options{PageSize: 10})
	base := models.MustParseDate("2024-01-01")

	for i := 0; i < 40; i++ {
		from := base.AddDays((i * 7) % 31)
		to := base.AddDays((i * 13) % 29)
		var fromPtr, toPtr *models.Date
		if i%3 != 0 {
			fromPtr = &from
		}
		if i%4 != 0 {
			toPtr = &to
		}
		testutil.AssertNoError(t, l.SetRange(context.Background(), fromPtr, toPtr))

		q := l.Query()
		if q.From != nil && q.To != nil && q.From.After(*q.To) {
			t.Fatalf("step %d: from %s after to %s", i, q.From, q.To)
		}
	}
}

func TestList_SetPage(t *testing.T) {
	api := &mockAPI{listTransactionsFn: pageWithTotal(45)}
	l := loadedList(t, api, Options{PageSize: 10, ResetPageOnLimit: true})
	ctx := context.Background()

	testutil.AssertNoError(t, l.SetPage(ctx, 5))
	if l.Query().Page != 5 {
		t.Errorf("expected page 5, got %d", l.Query().Page)
	}

	for _, n := range []int{0, -1, 6} {
		err := l.SetPage(ctx, n)
		testutil.AssertAppError(t, err, apperrors.ErrPageOutOfRange.Code)
		if l.Query().Page != 5 {
			t.Errorf("rejected page %d changed the page to %d", n, l.Query().Page)
		}
	}

	from, to := l.Query().From, l.Query().To
	if from != nil || to != nil || l.Query().Limit != 10 {
		t.Error("SetPage must not touch range or limit")
	}
}

func TestList_SetPageOnFreshList(t *testing.T) {
	ctx := context.Background()

	t.Run("past the end is rejected without requesting it", func(t *testing.T) {
		api := &mockAPI{listTransactionsFn: pageWithTotal(45)}
		l := NewList(api, Options{PageSize: 10})

		testutil.AssertAppError(t, l.SetPage(ctx, 9), apperrors.ErrPageOutOfRange.Code)
		if l.Query().Page != 1 {
			t.Errorf("expected page to stay 1, got %d", l.Query().Page)
		}
		for _, call := range api.listCalls() {
			if call.page != 1 {
				t.Errorf("page %d must not be requested", call.page)
			}
		}
	})

	t.Run("valid page loads the first page then the target", func(t *testing.T) {
		api := &mockAPI{listTransactionsFn: pageWithTotal(45)}
		l := NewList(api, Options{PageSize: 10})

		testutil.AssertNoError(t, l.SetPage(ctx, 5))
		calls := api.listCalls()
		if len(calls) != 2 || calls[0].page != 1 || calls[1].page != 5 {
			t.Errorf("unexpected fetches %+v", calls)
		}
	})

	t.Run("page is checked against the new filter", func(t *testing.T) {
		api := &mockAPI{listTransactionsFn: func(_ context.Context, f models.Filter, page, limit int) (models.TransactionPage, error) {
			total := int64(100)
			if f.Type != nil {
				total = 15
			}
			return models.TransactionPage{Items: []models.Transaction{}, Page: page, Limit: limit, Total: total}, nil
		}}
		l := loadedList(t, api, Options{PageSize: 10})

		income := models.TxnTypeIncome
		page := 5
		err := l.Apply(ctx, Change{SetType: true, Type: &income, Page: &page})
		testutil.AssertAppError(t, err, apperrors.ErrPageOutOfRange.Code)
		if q := l.Query(); q.Page != 1 || q.Type == nil {
			t.Errorf("expected filter applied on page 1, got %+v", q)
		}
	})
}

func TestList_SetLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unsupported sizes", func(t *testing.T) {
		l := loadedList(t, &mockAPI{}, Options{PageSize: 10})
		testutil.AssertAppError(t, l.SetLimit(ctx, 15), apperrors.ErrInvalidLimit.Code)
		if l.Query().Limit != 10 {
			t.Errorf("limit changed to %d", l.Query().Limit)
		}
	})

	t.Run("resets page when configured", func(t *testing.T) {
		l := loadedList(t, &mockAPI{listTransactionsFn: pageWithTotal(100)}, Options{PageSize: 10, ResetPageOnLimit: true})
		testutil.AssertNoError(t, l.SetPage(ctx, 4))
		testutil.AssertNoError(t, l.SetLimit(ctx, 20))
		if q := l.Query(); q.Page != 1 || q.Limit != 20 {
			t.Errorf("expected page 1 limit 20, got %+v", q)
		}
	})

	t.Run("keeps page and clamps after fetch otherwise", func(t *testing.T) {
		api := &mockAPI{listTransactionsFn: pageWithTotal(100)}
		l := loadedList(t, api, Options{PageSize: 10, ResetPageOnLimit: false})
		testutil.AssertNoError(t, l.SetPage(ctx, 3))
		testutil.AssertNoError(t, l.SetLimit(ctx, 50))
		if q := l.Query(); q.Page != 2 || q.Limit != 50 {
			t.Errorf("expected page clamped to 2 with limit 50, got %+v", q)
		}
		calls := api.listCalls()
		last := calls[len(calls)-1]
		if last.page != 2 || last.limit != 50 {
			t.Errorf("expected a refetch of the clamped page, got %+v", last)
		}
	})
}

func TestList_FilterChangeResetsPage(t *testing.T) {
	ctx := context.Background()
	l := loadedList(t, &mockAPI{listTransactionsFn: pageWithTotal(100)}, Options{PageSize: 10})
	testutil.AssertNoError(t, l.SetPage(ctx, 7))

	income := models.TxnTypeIncome
	testutil.AssertNoError(t, l.SetType(ctx, &income))
	if l.Query().Page != 1 {
		t.Errorf("type change should reset page, got %d", l.Query().Page)
	}

	testutil.AssertNoError(t, l.SetPage(ctx, 3))
	cat := int64(4)
	testutil.AssertNoError(t, l.SetCategory(ctx, &cat))
	if l.Query().Page != 1 {
		t.Errorf("category change should reset page, got %d", l.Query().Page)
	}

	bad := models.TxnType("transfer")
	if err := l.SetType(ctx, &bad); !apperrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestList_OneFetchPerChange(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{listTransactionsFn: pageWithTotal(100)}
	l := loadedList(t, api, Options{PageSize: 10})

	if n := len(api.listCalls()); n != 1 {
		t.Fatalf("expected one initial fetch, got %d", n)
	}

	testutil.AssertNoError(t, l.Load(ctx))
	testutil.AssertNoError(t, l.SetPage(ctx, 1))
	testutil.AssertNoError(t, l.SetLimit(ctx, 10))
	if n := len(api.listCalls()); n != 1 {
		t.Errorf("unchanged query must not fetch, got %d calls", n)
	}

	testutil.AssertNoError(t, l.SetPage(ctx, 2))
	if n := len(api.listCalls()); n != 2 {
		t.Errorf("expected one fetch for the page change, got %d calls", n)
	}

	testutil.AssertNoError(t, l.Refresh(ctx))
	if n := len(api.listCalls()); n != 3 {
		t.Errorf("expected refresh to fetch, got %d calls", n)
	}
	if last := api.listCalls()[2]; last.page != 2 {
		t.Errorf("refresh should keep the page, got %d", last.page)
	}
}

func TestList_FetchErrorCanBeRetried(t *testing.T) {
	ctx := context.Background()
	fail := true
	api := &mockAPI{listTransactionsFn: func(_ context.Context, _ models.Filter, page, limit int) (models.TransactionPage, error) {
		if fail {
			return models.TransactionPage{}, apperrors.ErrTransport
		}
		return models.TransactionPage{Items: []models.Transaction{}, Page: page, Limit: limit}, nil
	}}
	l := NewList(api, Options{PageSize: 10})

	testutil.AssertAppError(t, l.Load(ctx), apperrors.ErrTransport.Code)
	if l.Snapshot().Err == nil {
		t.Error("expected error in snapshot")
	}

	fail = false
	testutil.AssertNoError(t, l.Load(ctx))
	if l.Snapshot().Err != nil {
		t.Error("expected error cleared after retry")
	}
}

func TestList_StaleResponseDiscarded(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	firstStarted := make(chan struct{})

	api := &mockAPI{listTransactionsFn: func(_ context.Context, _ models.Filter, page, limit int) (models.TransactionPage, error) {
		if page == 2 {
			close(firstStarted)
			<-release
			return models.TransactionPage{Items: []models.Transaction{{ID: 200}}, Page: 2, Limit: limit, Total: 100}, nil
		}
		return models.TransactionPage{Items: []models.Transaction{{ID: int64(page) * 100}}, Page: page, Limit: limit, Total: 100}, nil
	}}
	l := loadedList(t, api, Options{PageSize: 10})

	done := make(chan error)
	go func() { done <- l.SetPage(ctx, 2) }()
	<-firstStarted

	testutil.AssertNoError(t, l.SetPage(ctx, 3))
	close(release)

	select {
	case err := <-done:
		testutil.AssertNoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("slow fetch never returned")
	}

	s := l.Snapshot()
	if s.Query.Page != 3 || len(s.Page.Items) != 1 || s.Page.Items[0].ID != 300 {
		t.Errorf("expected page 3 results to win, got query page %d items %+v", s.Query.Page, s.Page.Items)
	}
	if s.Loading {
		t.Error("expected loading to be false")
	}
}

func TestList_UnauthorizedSurvivesReset(t *testing.T) {
	var l *List
	api := &mockAPI{listTransactionsFn: func(context.Context, models.Filter, int, int) (models.TransactionPage, error) {
		// The session teardown resets the list before the error returns.
		l.Reset()
		return models.TransactionPage{}, apperrors.ErrUnauthorized
	}}
	l = NewList(api, Options{PageSize: 10})

	testutil.AssertAppError(t, l.Load(context.Background()), apperrors.ErrUnauthorized.Code)
	if s := l.Snapshot(); s.Err != nil || s.Loading {
		t.Errorf("reset list must stay clean, got %+v", s)
	}
}

func TestList_Reset(t *testing.T) {
	ctx := context.Background()
	l := loadedList(t, &mockAPI{listTransactionsFn: pageWithTotal(100)}, Options{PageSize: 20})
	testutil.AssertNoError(t, l.SetPage(ctx, 3))

	l.Reset()
	if q := l.Query(); q.Page != 1 || q.Limit != 20 {
		t.Errorf("unexpected query after reset %+v", q)
	}
	if s := l.Snapshot(); len(s.Page.Items) != 0 || s.Page.Total != 0 {
		t.Errorf("expected results cleared, got %+v", s.Page)
	}
}
