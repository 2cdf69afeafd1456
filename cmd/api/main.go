package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gerrardelliot83-create/bankrecon/docs"
	"github.com/gerrardelliot83-create/bankrecon/internal/config"
	"github.com/gerrardelliot83-create/bankrecon/internal/handler"
	"github.com/gerrardelliot83-create/bankrecon/internal/middleware"
	"github.com/gerrardelliot83-create/bankrecon/internal/repository"
	"github.com/gerrardelliot83-create/bankrecon/internal/service"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

// @title Bank Statement Import & Reconciliation API
// @version 1.0
// @description API for importing bank statements and reconciling transactions against expenses and invoices

// @contact.name API Support
// @contact.email support@bankrecon.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Bank Statement Import Service")

	db, err := connectDB(&cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	importRepo := repository.NewImportRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	reconService := service.NewReconciliationService(importRepo, txRepo, expenseRepo, invoiceRepo, cfg.Matching)
	importService := service.NewImportService(importRepo, txRepo, reconService, cfg.Matching.AutoSuggestThreshold)

	importHandler := handler.NewImportHandler(importService, cfg.App.MaxUploadSize)
	reconHandler := handler.NewReconciliationHandler(reconService)

	router := setupRouter(importHandler, reconHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func setupRouter(importHandler *handler.ImportHandler, reconHandler *handler.ReconciliationHandler) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.CreateImport)
			imports.GET("/:import_id", importHandler.GetImport)
			imports.POST("/:import_id/mapping/infer", importHandler.InferMapping)
			imports.PUT("/:import_id/mapping", importHandler.SetMapping)
			imports.POST("/:import_id/process", importHandler.ProcessImport)
			imports.GET("/:import_id/transactions", importHandler.ListTransactions)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("/:trx_id/suggestions", reconHandler.GetSuggestions)
			transactions.POST("/:trx_id/match", reconHandler.Match)
			transactions.POST("/:trx_id/unmatch", reconHandler.Unmatch)
			transactions.POST("/:trx_id/ignore", reconHandler.Ignore)
			transactions.POST("/:trx_id/reopen", reconHandler.Reopen)
		}
	}

	return router
}
