package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pfa/internal/app"
	"pfa/internal/middleware"
	"pfa/internal/validator"
)

// NewRouter returns the local web front for a.
func NewRouter(a *app.App) *gin.Engine {
	validator.Register()

	authHandler := NewAuthHandler(a)
	transactionHandler := NewTransactionHandler(a.Workspace)
	receiptHandler := NewReceiptHandler(a.Import)
	lookupHandler := NewLookupHandler(a.Workspace.Categories, a.Summary)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "api": a.Config.APIURL})
	})

	api := router.Group("/api")

	// Public routes
	api.POST("/login", authHandler.Login)
	api.POST("/register", authHandler.Register)
	api.POST("/logout", authHandler.Logout)
	api.GET("/session", authHandler.Session)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.RequireSession(a.Session))

	protected.GET("/notices", transactionHandler.Notices)

	// Transaction list
	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.List)
	transactions.PUT("/query", transactionHandler.UpdateQuery)
	transactions.POST("/refresh", transactionHandler.Refresh)
	transactions.POST("/:id/delete", transactionHandler.RequestDelete)

	// Create/edit dialog
	dialog := protected.Group("/dialog")
	dialog.GET("", transactionHandler.Dialog)
	dialog.POST("/create", transactionHandler.OpenCreate)
	dialog.POST("/edit/:id", transactionHandler.OpenEdit)
	dialog.POST("/cancel", transactionHandler.Cancel)
	dialog.POST("/submit", transactionHandler.Submit)
	protected.POST("/delete/confirm", transactionHandler.ConfirmDelete)

	// Receipt import
	receipt := protected.Group("/receipt")
	receipt.GET("", receiptHandler.View)
	receipt.POST("/upload", receiptHandler.Upload)
	receipt.POST("/apply", receiptHandler.Apply)
	receipt.POST("/rows", receiptHandler.AddRow)
	receipt.PATCH("/rows/:index", receiptHandler.EditRow)
	receipt.DELETE("/rows/:index", receiptHandler.RemoveRow)
	receipt.POST("/submit", receiptHandler.Submit)
	receipt.POST("/reset", receiptHandler.Reset)

	// Lookups
	protected.GET("/categories", lookupHandler.Categories)
	protected.GET("/summary/category", lookupHandler.CategorySummary)
	protected.GET("/summary/monthly", lookupHandler.MonthlySummary)

	return router
}
