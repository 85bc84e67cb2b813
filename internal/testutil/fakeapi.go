// Package testutil provides an in-memory stand-in for the remote finance
// API, plus assertions shared by the client tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pfa/internal/models"
)

// counter keeps database names unique across fake APIs in one test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

type userRow struct {
	ID           int64  `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex"`
	FullName     string
	PasswordHash string
}

type categoryRow struct {
	ID     int64 `gorm:"primaryKey"`
	Name   string
	UserID *int64 `gorm:"index"`
}

type transactionRow struct {
	ID          int64 `gorm:"primaryKey"`
	UserID      int64 `gorm:"index"`
	Type        string
	Date        string `gorm:"index"`
	CategoryID  *int64
	Description *string
	AmountMinor int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// allModels is the list of all GORM models to auto-migrate.
var allModels = []interface{}{
	&userRow{},
	&categoryRow{},
	&transactionRow{},
}

type failure struct {
	status int
	body   any
}

// FakeAPI serves the remote finance API from an in-memory SQLite database.
// It mirrors the status codes and error bodies of the real service closely
// enough for gateway, workspace and web tests to run against it.
type FakeAPI struct {
	Server *httptest.Server
	DB     *gorm.DB

	mu         sync.Mutex
	calls      map[string]int
	failures   map[string]failure
	extraction models.ReceiptExtraction
	hook       func(c *gin.Context)
}

// NewFakeAPI starts a fake API. It is shut down when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:fakeapi%d?mode=memory&cache=shared", nextID())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open fake API database: %v", err)
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate fake API database: %v", err)
	}

	f := &FakeAPI{
		DB:       db,
		calls:    make(map[string]int),
		failures: make(map[string]failure),
	}
	f.Server = httptest.NewServer(f.router())

	t.Cleanup(func() {
		f.Server.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return f
}

// URL returns the base URL of the fake API.
func (f *FakeAPI) URL() string { return f.Server.URL }

func (f *FakeAPI) router() *gin.Engine {
	r := gin.New()
	r.Use(f.record())

	auth := r.Group("/auth")
	auth.POST("/register", f.register)
	auth.POST("/login", f.login)

	api := r.Group("/", f.requireAuth())
	api.GET("/categories", f.listCategories)
	api.GET("/transactions", f.listTransactions)
	api.POST("/transactions", f.createTransaction)
	api.POST("/transactions/bulk", f.createTransactionsBulk)
	api.PATCH("/transactions/:id", f.updateTransaction)
	api.DELETE("/transactions/:id", f.deleteTransaction)
	api.POST("/extract/receipt", f.extractReceipt)
	api.GET("/summary/category", f.summaryByCategory)
	api.GET("/summary/monthly", f.summaryMonthly)
	return r
}

func routeKey(method, path string) string { return method + " " + path }

// record counts calls per route and serves injected failures.
func (f *FakeAPI) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := routeKey(c.Request.Method, c.FullPath())

		f.mu.Lock()
		f.calls[key]++
		fail, failing := f.failures[key]
		delete(f.failures, key)
		hook := f.hook
		f.mu.Unlock()

		if hook != nil {
			hook(c)
		}
		if failing {
			c.AbortWithStatusJSON(fail.status, fail.body)
			return
		}
		c.Next()
	}
}

func (f *FakeAPI) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		userID, err := parseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}
		var user userRow
		if err := f.DB.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
			return
		}
		c.Set("userID", user.ID)
		c.Next()
	}
}

// Calls returns how many requests hit the route, e.g.
// Calls("POST", "/transactions/bulk") or Calls("DELETE", "/transactions/:id").
func (f *FakeAPI) Calls(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[routeKey(method, path)]
}

// FailNext makes the next request to the route answer status with body.
func (f *FakeAPI) FailNext(method, path string, status int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[routeKey(method, path)] = failure{status: status, body: body}
}

// SetHook installs fn to run before every request is handled.
func (f *FakeAPI) SetHook(fn func(c *gin.Context)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = fn
}

// SetExtraction sets the result of POST /extract/receipt.
func (f *FakeAPI) SetExtraction(e models.ReceiptExtraction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extraction = e
}

// CreateUser registers a user directly in the database.
func (f *FakeAPI) CreateUser(t *testing.T, email, password string) models.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := userRow{Email: email, PasswordHash: string(hash)}
	if err := f.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return models.Account{ID: user.ID, Email: user.Email}
}

// CreateCategory adds a category; a nil userID makes it global.
func (f *FakeAPI) CreateCategory(t *testing.T, name string, userID *int64) models.Category {
	t.Helper()

	row := categoryRow{Name: name, UserID: userID}
	if err := f.DB.Create(&row).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return models.Category{ID: row.ID, Name: row.Name, UserID: row.UserID}
}

// CreateTransaction seeds a transaction without going through the API.
func (f *FakeAPI) CreateTransaction(t *testing.T, userID int64, typ models.TxnType, date string, categoryID *int64, amountMinor int64) int64 {
	t.Helper()

	row := transactionRow{
		UserID:      userID,
		Type:        string(typ),
		Date:        date,
		CategoryID:  categoryID,
		AmountMinor: amountMinor,
	}
	if err := f.DB.Create(&row).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return row.ID
}

// CountTransactions returns the number of stored transactions of userID.
func (f *FakeAPI) CountTransactions(t *testing.T, userID int64) int64 {
	t.Helper()

	var n int64
	if err := f.DB.Model(&transactionRow{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	return n
}
