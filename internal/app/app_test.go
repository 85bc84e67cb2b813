package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	apperrors "pfa/internal/errors"
	"pfa/internal/config"
	"pfa/internal/models"
	"pfa/internal/session"
	"pfa/internal/testutil"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Env:              "test",
		APIURL:           apiURL,
		RequestTimeout:   5 * time.Second,
		PageSize:         10,
		ResetPageOnLimit: true,
	}
}

func TestApp_SignInAndOut(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.CreateUser(t, "asha@example.com", "password123")
	a, err := New(testConfig(api.URL()), session.NewMemoryStore(""))
	testutil.AssertNoError(t, err)
	ctx := context.Background()

	t.Run("rejects malformed credentials without a request", func(t *testing.T) {
		err := a.SignIn(ctx, models.Credentials{Email: "nope", Password: ""})
		testutil.AssertFieldError(t, err, "email", "Invalid email")
		testutil.AssertFieldError(t, err, "password", "Required")
		if api.Calls(http.MethodPost, "/auth/login") != 0 {
			t.Error("invalid credentials must not be sent")
		}
	})

	t.Run("wrong password keeps the session empty", func(t *testing.T) {
		err := a.SignIn(ctx, models.Credentials{Email: "asha@example.com", Password: "wrong-password"})
		if err == nil || apperrors.IsUnauthorized(err) {
			t.Fatalf("expected a rejected request, got %v", err)
		}
		if a.Session.Authenticated() {
			t.Error("session must stay signed out")
		}
	})

	t.Run("sign in then out", func(t *testing.T) {
		testutil.AssertNoError(t, a.SignIn(ctx, models.Credentials{Email: " asha@example.com ", Password: "password123"}))
		if !a.Session.Authenticated() {
			t.Fatal("expected an authenticated session")
		}
		testutil.AssertNoError(t, a.Workspace.List.Load(ctx))

		testutil.AssertNoError(t, a.SignOut())
		if a.Session.Authenticated() {
			t.Error("expected signed out")
		}
	})
}

func TestApp_TeardownResetsControllers(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	user := api.CreateUser(t, "asha@example.com", "password123")
	for i := 0; i < 25; i++ {
		api.CreateTransaction(t, user.ID, models.TxnTypeIncome, "2024-03-01", nil, 100)
	}

	store := session.NewMemoryStore(testutil.SignToken(user.ID, time.Hour))
	a, err := New(testConfig(api.URL()), store)
	testutil.AssertNoError(t, err)
	ctx := context.Background()

	testutil.AssertNoError(t, a.Workspace.List.Load(ctx))
	testutil.AssertNoError(t, a.Workspace.List.SetPage(ctx, 3))
	_, err = a.Import.AddRow()
	testutil.AssertNoError(t, err)

	api.FailNext(http.MethodGet, "/transactions", http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})
	err = a.Workspace.List.Refresh(ctx)
	testutil.AssertAppError(t, err, apperrors.ErrUnauthorized.Code)

	if a.Session.Authenticated() {
		t.Error("401 should clear the session")
	}
	if q := a.Workspace.List.Query(); q.Page != 1 {
		t.Errorf("expected list reset to page 1, got %d", q.Page)
	}
	if v := a.Import.View(); len(v.Rows) != 0 {
		t.Errorf("expected import rows cleared, got %+v", v.Rows)
	}
	if saved, _ := store.Load(); saved != "" {
		t.Error("expected saved token cleared")
	}
}

func TestApp_RestoresSavedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	cfg := testConfig("http://127.0.0.1:1")
	cfg.TokenPath = path

	a, err := Open(cfg)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, a.Session.Login(testutil.SignToken(7, time.Hour)))
	testutil.AssertNoError(t, a.Close())

	b, err := Open(cfg)
	testutil.AssertNoError(t, err)
	defer func() { _ = b.Close() }()
	id, err := b.Session.UserID()
	testutil.AssertNoError(t, err)
	if id != 7 {
		t.Errorf("expected user 7, got %d", id)
	}
}

func TestApp_SignUp(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	a, err := New(testConfig(api.URL()), session.NewMemoryStore(""))
	testutil.AssertNoError(t, err)

	_, err = a.SignUp(context.Background(), models.RegisterRequest{Email: "new@example.com", Password: "short"})
	testutil.AssertFieldError(t, err, "password", "Too short")

	account, err := a.SignUp(context.Background(), models.RegisterRequest{Email: "new@example.com", Password: "password123", FullName: "New User"})
	testutil.AssertNoError(t, err)
	if account.Email != "new@example.com" || a.Session.Authenticated() {
		t.Errorf("unexpected account %+v or session state", account)
	}
}
