package workspace

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "pfa/internal/errors"
	"pfa/internal/gateway"
	"pfa/internal/models"
	"pfa/internal/session"
	"pfa/internal/testutil"
)

type mockRefresher struct {
	mu    sync.Mutex
	count int
}

func (m *mockRefresher) Refresh(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return nil
}

func (m *mockRefresher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func validForm() models.TransactionForm {
	cat := int64(1)
	return models.TransactionForm{Type: models.TxnTypeExpense, Date: "2024-03-01", CategoryID: &cat, Amount: "60"}
}

func TestDialog_OpenCreate(t *testing.T) {
	d := NewDialog(&mockAPI{}, &mockRefresher{}, &Notices{})
	testutil.AssertNoError(t, d.OpenCreate())

	v := d.View()
	if v.Phase != PhaseDialogOpen || v.Mode != ModeCreate {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Form.Type != models.TxnTypeExpense || v.Form.Date != models.Today().String() {
		t.Errorf("unexpected defaults %+v", v.Form)
	}

	testutil.AssertAppError(t, d.OpenCreate(), apperrors.ErrInvalidState.Code)

	testutil.AssertNoError(t, d.Cancel())
	if d.View().Phase != PhaseIdle {
		t.Error("cancel should return to idle")
	}
}

func TestDialog_SubmitValidation(t *testing.T) {
	created := 0
	api := &mockAPI{createTransactionFn: func(context.Context, models.TransactionPayload) (models.Transaction, error) {
		created++
		return models.Transaction{ID: 1}, nil
	}}
	d := NewDialog(api, &mockRefresher{}, &Notices{})
	testutil.AssertNoError(t, d.OpenCreate())

	form := validForm()
	form.CategoryID = nil
	form.Amount = "0"
	err := d.Submit(context.Background(), form)

	testutil.AssertFieldError(t, err, "category_id", "Required")
	testutil.AssertFieldError(t, err, "amount", "Must be > 0")
	if created != 0 {
		t.Error("invalid form must not reach the gateway")
	}
	v := d.View()
	if v.Phase != PhaseDialogOpen || v.Fields["amount"] != "Must be > 0" {
		t.Errorf("dialog should stay open with field errors, got %+v", v)
	}
	if v.Form.Amount != "0" {
		t.Error("dialog should keep what the user typed")
	}
}

func TestDialog_SubmitRejectsSubPaisaAmount(t *testing.T) {
	created := 0
	api := &mockAPI{createTransactionFn: func(context.Context, models.TransactionPayload) (models.Transaction, error) {
		created++
		return models.Transaction{ID: 1}, nil
	}}
	d := NewDialog(api, &mockRefresher{}, &Notices{})
	testutil.AssertNoError(t, d.OpenCreate())

	form := validForm()
	form.Amount = "0.001"
	testutil.AssertFieldError(t, d.Submit(context.Background(), form), "amount", "Must be > 0")
	if created != 0 {
		t.Error("an amount that rounds to 0.00 must not reach the gateway")
	}
}

func TestDialog_SubmitCreate(t *testing.T) {
	var got models.TransactionPayload
	api := &mockAPI{createTransactionFn: func(_ context.Context, p models.TransactionPayload) (models.Transaction, error) {
		got = p
		return models.Transaction{ID: 9}, nil
	}}
	refresher := &mockRefresher{}
	notices := &Notices{}
	d := NewDialog(api, refresher, notices)
	testutil.AssertNoError(t, d.OpenCreate())

	testutil.AssertNoError(t, d.Submit(context.Background(), validForm()))

	if *got.Amount != "60.00" || got.Type != models.TxnTypeExpense {
		t.Errorf("unexpected payload %+v", got)
	}
	if d.View().Phase != PhaseIdle {
		t.Error("expected idle after success")
	}
	if refresher.calls() != 1 {
		t.Errorf("expected one refresh, got %d", refresher.calls())
	}
	n := notices.Drain()
	if len(n) != 1 || n[0].Level != LevelSuccess {
		t.Errorf("expected success notice, got %+v", n)
	}
}

func TestDialog_SubmitEdit(t *testing.T) {
	var gotID int64
	var gotPatch models.TransactionPatch
	api := &mockAPI{updateTransactionFn: func(_ context.Context, id int64, p models.TransactionPatch) (models.Transaction, error) {
		gotID, gotPatch = id, p
		return models.Transaction{ID: id}, nil
	}}
	d := NewDialog(api, &mockRefresher{}, &Notices{})

	name := "Food"
	target := txn(42, models.TxnTypeExpense, "60")
	target.Category = &name
	idx := models.NewCategoryIndex([]models.Category{{ID: 1, Name: "Food"}})
	testutil.AssertNoError(t, d.OpenEdit(target, idx))

	v := d.View()
	if v.Mode != ModeEdit || v.Form.CategoryID == nil || *v.Form.CategoryID != 1 || v.Form.Amount != "60.00" {
		t.Fatalf("edit form not pre-populated: %+v", v.Form)
	}

	form := v.Form
	form.Amount = "75"
	testutil.AssertNoError(t, d.Submit(context.Background(), form))
	if gotID != 42 || *gotPatch.Amount != "75.00" {
		t.Errorf("unexpected update id=%d patch=%+v", gotID, gotPatch)
	}
}

func TestDialog_SubmitFailureKeepsDialog(t *testing.T) {
	api := &mockAPI{createTransactionFn: func(context.Context, models.TransactionPayload) (models.Transaction, error) {
		return models.Transaction{}, apperrors.WithStatus(apperrors.ErrRequest, 400, "category_id is required for expense.")
	}}
	refresher := &mockRefresher{}
	notices := &Notices{}
	d := NewDialog(api, refresher, notices)
	testutil.AssertNoError(t, d.OpenCreate())

	err := d.Submit(context.Background(), validForm())
	testutil.AssertAppError(t, err, apperrors.ErrRequest.Code)

	v := d.View()
	if v.Phase != PhaseDialogOpen || v.Error != "category_id is required for expense." {
		t.Errorf("expected dialog open with error, got %+v", v)
	}
	if refresher.calls() != 0 {
		t.Error("failed submit must not refresh")
	}
	if n := notices.Drain(); len(n) != 1 || n[0].Level != LevelError {
		t.Errorf("expected error notice, got %+v", n)
	}
}

func TestDialog_OneSubmitInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &mockAPI{createTransactionFn: func(context.Context, models.TransactionPayload) (models.Transaction, error) {
		close(started)
		<-release
		return models.Transaction{ID: 1}, nil
	}}
	d := NewDialog(api, &mockRefresher{}, &Notices{})
	testutil.AssertNoError(t, d.OpenCreate())

	done := make(chan error)
	go func() { done <- d.Submit(context.Background(), validForm()) }()
	<-started

	if d.View().Phase != PhaseSubmitting {
		t.Errorf("expected submitting, got %s", d.View().Phase)
	}
	testutil.AssertAppError(t, d.Submit(context.Background(), validForm()), apperrors.ErrInvalidState.Code)
	testutil.AssertAppError(t, d.Cancel(), apperrors.ErrInvalidState.Code)

	close(release)
	select {
	case err := <-done:
		testutil.AssertNoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submit never finished")
	}
}

func TestDialog_Delete(t *testing.T) {
	t.Run("confirm deletes and refreshes", func(t *testing.T) {
		var deleted int64
		api := &mockAPI{deleteTransactionFn: func(_ context.Context, id int64) error {
			deleted = id
			return nil
		}}
		refresher := &mockRefresher{}
		d := NewDialog(api, refresher, &Notices{})

		testutil.AssertNoError(t, d.RequestDelete(txn(5, models.TxnTypeIncome, "1")))
		if d.View().Phase != PhaseConfirmDelete || d.View().Target.ID != 5 {
			t.Fatalf("unexpected view %+v", d.View())
		}
		testutil.AssertNoError(t, d.ConfirmDelete(context.Background()))
		if deleted != 5 || refresher.calls() != 1 || d.View().Phase != PhaseIdle {
			t.Errorf("deleted=%d refreshes=%d phase=%s", deleted, refresher.calls(), d.View().Phase)
		}
	})

	t.Run("cancel skips the request", func(t *testing.T) {
		called := false
		api := &mockAPI{deleteTransactionFn: func(context.Context, int64) error {
			called = true
			return nil
		}}
		d := NewDialog(api, &mockRefresher{}, &Notices{})
		testutil.AssertNoError(t, d.RequestDelete(txn(5, models.TxnTypeIncome, "1")))
		testutil.AssertNoError(t, d.Cancel())
		testutil.AssertAppError(t, d.ConfirmDelete(context.Background()), apperrors.ErrInvalidState.Code)
		if called {
			t.Error("cancelled delete must not reach the gateway")
		}
	})

	t.Run("failure returns to idle without refresh", func(t *testing.T) {
		api := &mockAPI{deleteTransactionFn: func(context.Context, int64) error {
			return apperrors.ErrTransport
		}}
		refresher := &mockRefresher{}
		notices := &Notices{}
		d := NewDialog(api, refresher, notices)
		testutil.AssertNoError(t, d.RequestDelete(txn(5, models.TxnTypeIncome, "1")))

		testutil.AssertAppError(t, d.ConfirmDelete(context.Background()), apperrors.ErrTransport.Code)
		if d.View().Phase != PhaseIdle || refresher.calls() != 0 {
			t.Errorf("phase=%s refreshes=%d", d.View().Phase, refresher.calls())
		}
		if n := notices.Drain(); len(n) != 1 || n[0].Message != apperrors.ErrTransport.Message {
			t.Errorf("expected transport notice, got %+v", n)
		}
	})
}

func TestWorkspace_CreateAppearsOnceInList(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	user := api.CreateUser(t, "asha@example.com", "password123")
	food := api.CreateCategory(t, "Food", nil)
	sess := session.New(session.NewMemoryStore(""))
	testutil.AssertNoError(t, sess.Login(testutil.SignToken(user.ID, time.Hour)))

	ctx := context.Background()
	ws := New(gateway.New(api.URL(), sess, 5*time.Second), Options{PageSize: 10, ResetPageOnLimit: true})
	testutil.AssertNoError(t, ws.List.SetRange(ctx, datePtr("2024-03-01"), datePtr("2024-03-31")))

	testutil.AssertNoError(t, ws.Dialog.OpenCreate())
	form := models.TransactionForm{Type: models.TxnTypeExpense, Date: "2024-03-15", CategoryID: &food.ID, Amount: "250", Description: "groceries"}
	testutil.AssertNoError(t, ws.Dialog.Submit(ctx, form))

	view := ws.View(ctx)
	matches := 0
	for _, row := range view.Rows {
		if row.Description == "groceries" {
			matches++
			if row.Amount != "-₹250.00" || row.Category != "Food" {
				t.Errorf("unexpected row %+v", row)
			}
		}
	}
	if matches != 1 {
		t.Errorf("expected created transaction exactly once, got %d (rows %+v)", matches, view.Rows)
	}

	created, ok := ws.Find(view.Rows[0].ID)
	if !ok {
		t.Fatal("expected to find the created transaction on the page")
	}
	testutil.AssertNoError(t, ws.Dialog.RequestDelete(created))
	testutil.AssertNoError(t, ws.Dialog.ConfirmDelete(ctx))
	if rows := ws.View(ctx).Rows; len(rows) != 0 {
		t.Errorf("expected empty list after delete, got %+v", rows)
	}
}
