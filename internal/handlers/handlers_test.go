package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pfa/internal/app"
	"pfa/internal/config"
	"pfa/internal/models"
	"pfa/internal/session"
	"pfa/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	api    *testutil.FakeAPI
	app    *app.App
	router *gin.Engine
	userID int64
	food   models.Category
}

func setup(t *testing.T, signedIn bool) fixture {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	user := api.CreateUser(t, "asha@example.com", "password123")
	food := api.CreateCategory(t, "Food", nil)

	token := ""
	if signedIn {
		token = testutil.SignToken(user.ID, time.Hour)
	}
	a, err := app.New(&config.Config{
		Env:              "test",
		APIURL:           api.URL(),
		RequestTimeout:   5 * time.Second,
		PageSize:         10,
		ResetPageOnLimit: true,
	}, session.NewMemoryStore(token))
	testutil.AssertNoError(t, err)

	return fixture{api: api, app: a, router: NewRouter(a), userID: user.ID, food: food}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func listRows(t *testing.T, result map[string]interface{}) []interface{} {
	t.Helper()
	list := result["list"].(map[string]interface{})
	rows, _ := list["rows"].([]interface{})
	return rows
}

// --- tests ---

func TestHealth(t *testing.T) {
	f := setup(t, false)
	rec := doRequest(f.router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	f := setup(t, false)

	t.Run("protected routes redirect when signed out", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodGet, "/api/transactions", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["redirect"] != "/login" {
			t.Errorf("expected redirect to /login, got %v", result["redirect"])
		}
	})

	t.Run("login validates before calling the api", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPost, "/api/login", `{"email":"not-an-email"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_FAILED")
		if f.api.Calls(http.MethodPost, "/auth/login") != 0 {
			t.Error("invalid login must not be sent")
		}
	})

	t.Run("wrong password is not a redirect", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPost, "/api/login", `{"email":"asha@example.com","password":"nope"}`)
		result := parseJSON(t, rec)
		if rec.Code == http.StatusOK || result["redirect"] != nil {
			t.Errorf("expected a plain error, got %d %v", rec.Code, result)
		}
	})

	t.Run("login then logout", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPost, "/api/login", `{"email":"asha@example.com","password":"password123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["authenticated"] != true {
			t.Error("expected authenticated session")
		}

		rec = doRequest(f.router, http.MethodGet, "/api/transactions", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 after login, got %d", rec.Code)
		}

		rec = doRequest(f.router, http.MethodPost, "/api/logout", "")
		if parseJSON(t, rec)["authenticated"] != false {
			t.Error("expected signed out")
		}
	})

	t.Run("register", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPost, "/api/register", `{"email":"new@example.com","password":"password123"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestExpiredTokenRedirects(t *testing.T) {
	f := setup(t, true)
	f.api.FailNext(http.MethodGet, "/transactions", http.StatusUnauthorized, map[string]string{"detail": "Invalid token"})

	rec := doRequest(f.router, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusUnauthorized || parseJSON(t, rec)["redirect"] != "/login" {
		t.Fatalf("expected 401 redirect, got %d %s", rec.Code, rec.Body.String())
	}
	if f.app.Session.Authenticated() {
		t.Error("expected the session to be cleared")
	}
}

func TestTransactionScreen(t *testing.T) {
	f := setup(t, true)
	for i := 0; i < 12; i++ {
		f.api.CreateTransaction(t, f.userID, models.TxnTypeExpense, "2024-03-05", &f.food.ID, 1000)
	}
	f.api.CreateTransaction(t, f.userID, models.TxnTypeIncome, "2024-04-01", nil, 500000)

	rec := doRequest(f.router, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rows := listRows(t, parseJSON(t, rec)); len(rows) != 10 {
		t.Errorf("expected a page of 10, got %d", len(rows))
	}

	t.Run("filter by range and type", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPut, "/api/transactions/query",
			`{"range":{"from":"2024-03-01","to":"2024-03-31"},"type":"expense"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		list := parseJSON(t, rec)["list"].(map[string]interface{})
		bounds := list["bounds"].(map[string]interface{})
		if bounds["total"].(float64) != 12 {
			t.Errorf("expected 12 matching rows, got %v", bounds["total"])
		}
		row := list["rows"].([]interface{})[0].(map[string]interface{})
		if row["amount"] != "-₹10.00" || row["category"] != "Food" {
			t.Errorf("unexpected row %v", row)
		}
	})

	t.Run("invalid date is a field error", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPut, "/api/transactions/query", `{"range":{"from":"03/01/2024"}}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		fields := parseJSON(t, rec)["error"].(map[string]interface{})["fields"].(map[string]interface{})
		if fields["from"] != "Invalid date" {
			t.Errorf("unexpected fields %v", fields)
		}
	})

	t.Run("out of range page is rejected", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPut, "/api/transactions/query", `{"page":9}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PAGE_OUT_OF_RANGE")
	})

	t.Run("unsupported limit is rejected", func(t *testing.T) {
		rec := doRequest(f.router, http.MethodPut, "/api/transactions/query", `{"limit":7}`)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_LIMIT")
	})
}

func TestDialogFlow(t *testing.T) {
	f := setup(t, true)
	doRequest(f.router, http.MethodGet, "/api/transactions", "")

	rec := doRequest(f.router, http.MethodPost, "/api/dialog/create", "")
	if rec.Code != http.StatusOK || parseJSON(t, rec)["phase"] != "dialog_open" {
		t.Fatalf("expected open dialog, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(f.router, http.MethodPost, "/api/dialog/submit", `{"type":"expense","date":"2024-03-05","amount":"0"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if f.api.Calls(http.MethodPost, "/transactions") != 0 {
		t.Error("invalid form must not be sent")
	}

	body := `{"type":"expense","date":"2024-03-05","category_id":` + jsonInt(f.food.ID) + `,"amount":"250","description":"groceries"}`
	rec = doRequest(f.router, http.MethodPost, "/api/dialog/submit", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rows := listRows(t, parseJSON(t, rec))
	if len(rows) != 1 {
		t.Fatalf("expected the new row in the list, got %v", rows)
	}
	id := int64(rows[0].(map[string]interface{})["id"].(float64))

	rec = doRequest(f.router, http.MethodGet, "/api/notices", "")
	notices := parseJSON(t, rec)["notices"].([]interface{})
	if len(notices) != 1 || notices[0].(map[string]interface{})["message"] != "Transaction added" {
		t.Errorf("unexpected notices %v", notices)
	}

	rec = doRequest(f.router, http.MethodPost, "/api/dialog/edit/"+jsonInt(id), "")
	form := parseJSON(t, rec)["form"].(map[string]interface{})
	if form["category_id"].(float64) != float64(f.food.ID) || form["amount"] != "250.00" {
		t.Errorf("edit form not pre-populated: %v", form)
	}
	doRequest(f.router, http.MethodPost, "/api/dialog/cancel", "")

	rec = doRequest(f.router, http.MethodPost, "/api/transactions/"+jsonInt(id)+"/delete", "")
	if parseJSON(t, rec)["phase"] != "confirm_delete" {
		t.Fatalf("expected delete confirmation, got %s", rec.Body.String())
	}
	rec = doRequest(f.router, http.MethodPost, "/api/delete/confirm", "")
	if rec.Code != http.StatusOK || len(listRows(t, parseJSON(t, rec))) != 0 {
		t.Errorf("expected empty list after delete, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(f.router, http.MethodPost, "/api/dialog/edit/999999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a row not on the page, got %d", rec.Code)
	}
}

func TestReceiptFlow(t *testing.T) {
	f := setup(t, true)
	date := models.MustParseDate("2024-03-09")
	f.api.SetExtraction(models.ReceiptExtraction{
		Transactions: []models.ExtractedTransaction{
			{Date: &date, Description: "Milk"},
			{Date: &date, Description: "Bread"},
		},
	})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "receipt.png")
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"))
	_ = w.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/receipt/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || parseJSON(t, rec)["state"] != "staged" {
		t.Fatalf("expected staged, got %d %s", rec.Code, rec.Body.String())
	}

	doRequest(f.router, http.MethodPost, "/api/receipt/apply", "")
	for i, amount := range []string{"30", "45.5"} {
		body := `{"amount":"` + amount + `","category_id":` + jsonInt(f.food.ID) + `}`
		rec = doRequest(f.router, http.MethodPatch, "/api/receipt/rows/"+jsonInt(int64(i)), body)
		if rec.Code != http.StatusOK {
			t.Fatalf("edit row %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}
	doRequest(f.router, http.MethodPost, "/api/receipt/rows", "")

	rec = doRequest(f.router, http.MethodPost, "/api/receipt/submit", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected blank row to block submit, got %d", rec.Code)
	}
	if f.api.Calls(http.MethodPost, "/transactions/bulk") != 0 {
		t.Error("invalid rows must not be sent")
	}

	rec = doRequest(f.router, http.MethodDelete, "/api/receipt/rows/2", "")
	if len(parseJSON(t, rec)["rows"].([]interface{})) != 2 {
		t.Fatalf("expected two rows left, got %s", rec.Body.String())
	}

	rec = doRequest(f.router, http.MethodPost, "/api/receipt/submit", "")
	if rec.Code != http.StatusOK || parseJSON(t, rec)["state"] != "done" {
		t.Fatalf("expected done, got %d %s", rec.Code, rec.Body.String())
	}
	if got := f.api.CountTransactions(t, f.userID); got != 2 {
		t.Errorf("expected 2 stored transactions, got %d", got)
	}
}

func TestLookups(t *testing.T) {
	f := setup(t, true)
	f.api.CreateTransaction(t, f.userID, models.TxnTypeExpense, "2024-03-05", &f.food.ID, 30000)

	rec := doRequest(f.router, http.MethodGet, "/api/categories", "")
	options := parseJSON(t, rec)["options"].([]interface{})
	if len(options) != 1 || options[0].(map[string]interface{})["label"] != "Food" {
		t.Errorf("unexpected options %v", options)
	}

	rec = doRequest(f.router, http.MethodGet, "/api/summary/category?from=2024-03-01&to=2024-03-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["total"] != "₹300.00" {
		t.Errorf("unexpected summary %s", rec.Body.String())
	}

	rec = doRequest(f.router, http.MethodGet, "/api/summary/category?from=bad", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for a bad date, got %d", rec.Code)
	}

	rec = doRequest(f.router, http.MethodGet, "/api/summary/monthly?year=2024", "")
	bars := parseJSON(t, rec)["bars"].([]interface{})
	if len(bars) != 12 || bars[2].(map[string]interface{})["amount"] != "₹300.00" {
		t.Errorf("unexpected bars %v", bars)
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
