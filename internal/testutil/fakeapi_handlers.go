package testutil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pfa/internal/models"
	"pfa/internal/money"
)

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

// missing answers the way the API reports an absent required query field.
func missing(c *gin.Context, field string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{
		"loc":  []string{"query", field},
		"msg":  "field required",
		"type": "value_error.missing",
	}}})
}

func currentUser(c *gin.Context) int64 {
	return c.MustGet("userID").(int64)
}

func (f *FakeAPI) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		detail(c, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	var existing int64
	f.DB.Model(&userRow{}).Where("email = ?", req.Email).Count(&existing)
	if existing > 0 {
		detail(c, http.StatusBadRequest, "Email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	user := userRow{Email: req.Email, FullName: req.FullName, PasswordHash: string(hash)}
	if err := f.DB.Create(&user).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, models.Account{ID: user.ID, Email: user.Email, FullName: user.FullName})
}

func (f *FakeAPI) login(c *gin.Context) {
	email, password := c.PostForm("username"), c.PostForm("password")

	var user userRow
	err := f.DB.Where("email = ?", email).First(&user).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		detail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	c.JSON(http.StatusOK, models.Token{AccessToken: SignToken(user.ID, time.Hour), TokenType: "bearer"})
}

func (f *FakeAPI) listCategories(c *gin.Context) {
	userID := currentUser(c)
	q := f.DB.Model(&categoryRow{})
	if c.DefaultQuery("include_global", "true") == "true" {
		q = q.Where("user_id = ? OR user_id IS NULL", userID)
	} else {
		q = q.Where("user_id = ?", userID)
	}
	if name := c.Query("q"); name != "" {
		q = q.Where("name LIKE ?", "%"+name+"%")
	}

	var rows []categoryRow
	if err := q.Order("name asc, id asc").Find(&rows).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]models.Category, len(rows))
	for i, r := range rows {
		out[i] = models.Category{ID: r.ID, Name: r.Name, UserID: r.UserID}
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) listTransactions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		missing(c, "user_id")
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		detail(c, http.StatusUnprocessableEntity, "page must be >= 1")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		detail(c, http.StatusUnprocessableEntity, "limit must be between 1 and 100")
		return
	}

	q := f.DB.Table("transaction_rows AS t").Where("t.user_id = ?", userID)
	if from := c.Query("from"); from != "" {
		q = q.Where("t.date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		q = q.Where("t.date <= ?", to)
	}
	if typ := c.Query("type"); typ != "" {
		q = q.Where("t.type = ?", typ)
	}
	if cat := c.Query("category_id"); cat != "" {
		q = q.Where("t.category_id = ?", cat)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	type listed struct {
		ID          int64
		Date        string
		Type        string
		Category    *string
		Description *string
		AmountMinor int64
	}
	var rows []listed
	err = q.Select("t.id, t.date, t.type, c.name AS category, t.description, t.amount_minor").
		Joins("LEFT JOIN category_rows AS c ON c.id = t.category_id").
		Order("t.date desc, t.id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]gin.H, len(rows))
	for i, r := range rows {
		items[i] = gin.H{
			"id":          r.ID,
			"date":        r.Date,
			"type":        r.Type,
			"category":    r.Category,
			"description": r.Description,
			"amount":      money.FromPaise(r.AmountMinor).StringFixed(2),
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "page": page, "limit": limit, "total": total})
}

type payloadIn struct {
	UserID      int64   `json:"user_id"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
	CategoryID  *int64  `json:"category_id"`
	Description *string `json:"description"`
	Amount      *string `json:"amount"`
	AmountMinor *int64  `json:"amount_minor"`
}

type badRequest struct {
	status int
	msg    string
}

func (e *badRequest) Error() string { return e.msg }

// toRow applies the API's create rules to one payload.
func (f *FakeAPI) toRow(userID int64, p payloadIn) (transactionRow, error) {
	if p.Type != string(models.TxnTypeExpense) && p.Type != string(models.TxnTypeIncome) {
		return transactionRow{}, &badRequest{http.StatusUnprocessableEntity, "type must be expense or income"}
	}
	if _, err := models.ParseDate(p.Date); err != nil {
		return transactionRow{}, &badRequest{http.StatusUnprocessableEntity, "invalid date"}
	}

	switch {
	case p.Amount == nil && p.AmountMinor == nil:
		return transactionRow{}, &badRequest{http.StatusBadRequest, "Provide either 'amount' (rupees) or 'amount_minor' (paise)."}
	case p.Amount != nil && p.AmountMinor != nil:
		return transactionRow{}, &badRequest{http.StatusBadRequest, "Provide only one of 'amount' or 'amount_minor', not both."}
	}
	minor := int64(0)
	if p.AmountMinor != nil {
		minor = *p.AmountMinor
	} else {
		d, err := decimal.NewFromString(*p.Amount)
		if err != nil {
			return transactionRow{}, &badRequest{http.StatusBadRequest, "Invalid 'amount' format. Use e.g. '123.45'."}
		}
		minor = money.ToPaise(d)
	}
	if minor <= 0 {
		return transactionRow{}, &badRequest{http.StatusBadRequest, "'amount' must be > 0."}
	}

	var categoryID *int64
	if p.Type == string(models.TxnTypeExpense) {
		if p.CategoryID == nil {
			return transactionRow{}, &badRequest{http.StatusBadRequest, "category_id is required for expense."}
		}
		var n int64
		f.DB.Model(&categoryRow{}).
			Where("id = ? AND (user_id = ? OR user_id IS NULL)", *p.CategoryID, userID).
			Count(&n)
		if n == 0 {
			return transactionRow{}, &badRequest{http.StatusNotFound, "Category not found for this user."}
		}
		categoryID = p.CategoryID
	}

	var description *string
	if p.Description != nil {
		if s := strings.TrimSpace(*p.Description); s != "" {
			description = &s
		}
	}

	return transactionRow{
		UserID:      userID,
		Type:        p.Type,
		Date:        p.Date,
		CategoryID:  categoryID,
		Description: description,
		AmountMinor: minor,
	}, nil
}

func readOut(r transactionRow) gin.H {
	return gin.H{
		"id":           r.ID,
		"user_id":      r.UserID,
		"type":         r.Type,
		"date":         r.Date,
		"category_id":  r.CategoryID,
		"description":  r.Description,
		"amount_minor": r.AmountMinor,
		"created_at":   r.CreatedAt,
		"updated_at":   r.UpdatedAt,
	}
}

func writeErr(c *gin.Context, err error) {
	var bad *badRequest
	if errors.As(err, &bad) {
		detail(c, bad.status, bad.msg)
		return
	}
	detail(c, http.StatusInternalServerError, err.Error())
}

func (f *FakeAPI) createTransaction(c *gin.Context) {
	var p payloadIn
	if err := c.ShouldBindJSON(&p); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	row, err := f.toRow(currentUser(c), p)
	if err != nil {
		writeErr(c, err)
		return
	}
	if err := f.DB.Create(&row).Error; err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, readOut(row))
}

// createTransactionsBulk stores every row or none.
func (f *FakeAPI) createTransactionsBulk(c *gin.Context) {
	var payloads []payloadIn
	if err := c.ShouldBindJSON(&payloads); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if len(payloads) == 0 {
		detail(c, http.StatusBadRequest, "No transactions provided.")
		return
	}

	userID := currentUser(c)
	rows := make([]transactionRow, len(payloads))
	for i, p := range payloads {
		row, err := f.toRow(userID, p)
		if err != nil {
			var bad *badRequest
			if errors.As(err, &bad) {
				detail(c, bad.status, fmt.Sprintf("Row %d: %s", i+1, bad.msg))
				return
			}
			writeErr(c, err)
			return
		}
		rows[i] = row
	}

	err := f.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, len(rows))
	for i, r := range rows {
		out[i] = readOut(r)
	}
	c.JSON(http.StatusCreated, out)
}

func (f *FakeAPI) ownedTransaction(c *gin.Context) (transactionRow, bool) {
	var row transactionRow
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err == nil {
		err = f.DB.Where("id = ? AND user_id = ?", id, currentUser(c)).First(&row).Error
	}
	if err != nil {
		detail(c, http.StatusNotFound, "Transaction not found")
		return row, false
	}
	return row, true
}

func (f *FakeAPI) updateTransaction(c *gin.Context) {
	row, ok := f.ownedTransaction(c)
	if !ok {
		return
	}
	var patch payloadIn
	if err := c.ShouldBindJSON(&patch); err != nil {
		detail(c, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	merged := payloadIn{
		Type:        row.Type,
		Date:        row.Date,
		CategoryID:  row.CategoryID,
		Description: row.Description,
		AmountMinor: &row.AmountMinor,
	}
	if patch.Type != "" {
		merged.Type = patch.Type
	}
	if patch.Date != "" {
		merged.Date = patch.Date
	}
	if patch.CategoryID != nil {
		merged.CategoryID = patch.CategoryID
	}
	if patch.Description != nil {
		merged.Description = patch.Description
	}
	if patch.Amount != nil {
		merged.AmountMinor = nil
		merged.Amount = patch.Amount
	} else if patch.AmountMinor != nil {
		merged.AmountMinor = patch.AmountMinor
	}

	updated, err := f.toRow(row.UserID, merged)
	if err != nil {
		writeErr(c, err)
		return
	}
	updated.ID, updated.CreatedAt = row.ID, row.CreatedAt
	if err := f.DB.Save(&updated).Error; err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, readOut(updated))
}

func (f *FakeAPI) deleteTransaction(c *gin.Context) {
	row, ok := f.ownedTransaction(c)
	if !ok {
		return
	}
	if err := f.DB.Delete(&row).Error; err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (f *FakeAPI) extractReceipt(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "file is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		writeErr(c, err)
		return
	}
	defer func() { _ = file.Close() }()
	raw, err := io.ReadAll(file)
	if err != nil || len(raw) == 0 {
		detail(c, http.StatusBadRequest, "Empty upload")
		return
	}

	f.mu.Lock()
	out := f.extraction
	f.mu.Unlock()
	if out.Transactions == nil {
		out.Transactions = []models.ExtractedTransaction{}
	}
	c.JSON(http.StatusOK, out)
}

func (f *FakeAPI) expenseRows(userID int64, where string, args ...any) ([]transactionRow, error) {
	var rows []transactionRow
	q := f.DB.Where("user_id = ? AND type = ?", userID, string(models.TxnTypeExpense))
	if where != "" {
		q = q.Where(where, args...)
	}
	return rows, q.Find(&rows).Error
}

func (f *FakeAPI) summaryByCategory(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	rows, err := f.expenseRows(currentUser(c), "date >= ? AND date <= ?", from, to)
	if err != nil {
		writeErr(c, err)
		return
	}

	var categories []categoryRow
	f.DB.Find(&categories)
	names := make(map[int64]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}

	sums := make(map[string]int64)
	var total int64
	for _, r := range rows {
		label := "Uncategorized"
		if r.CategoryID != nil {
			if name, ok := names[*r.CategoryID]; ok {
				label = name
			}
		}
		sums[label] += r.AmountMinor
		total += r.AmountMinor
	}
	labels := make([]string, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if sums[labels[i]] != sums[labels[j]] {
			return sums[labels[i]] > sums[labels[j]]
		}
		return labels[i] < labels[j]
	})
	values := make([]float64, len(labels))
	for i, label := range labels {
		values[i] = money.FromPaise(sums[label]).InexactFloat64()
	}
	c.JSON(http.StatusOK, models.CategorySummary{
		Labels: labels,
		Values: values,
		Total:  money.FromPaise(total).InexactFloat64(),
	})
}

func (f *FakeAPI) summaryMonthly(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		missing(c, "year")
		return
	}
	rows, err := f.expenseRows(currentUser(c), "date LIKE ?", fmt.Sprintf("%04d-%%", year))
	if err != nil {
		writeErr(c, err)
		return
	}

	totals := make([]int64, 12)
	for _, r := range rows {
		d, err := models.ParseDate(r.Date)
		if err != nil {
			continue
		}
		totals[d.Month()-1] += r.AmountMinor
	}
	values := make([]float64, 12)
	for i, n := range totals {
		values[i] = money.FromPaise(n).InexactFloat64()
	}
	c.JSON(http.StatusOK, models.MonthlySummary{Year: year, Labels: monthLabels, Values: values})
}
