package commands

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/gerrardelliot83-create/bankrecon/internal/config"
	"github.com/gerrardelliot83-create/bankrecon/internal/repository"
	"github.com/gerrardelliot83-create/bankrecon/internal/service"
	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "importctl",
		Short: "Operate on bank statement imports from the command line",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newProcessCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newSuggestCommand())

	return rootCmd
}

// env bundles the services and the database handle they run against.
type env struct {
	db      *sql.DB
	imports service.ImportService
	recon   service.ReconciliationService
}

func (e *env) close() {
	_ = e.db.Close()
}

// newEnv loads configuration from the environment and wires the service
// stack against the configured database.
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger.Init(cfg.App.LogLevel)

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	importRepo := repository.NewImportRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	recon := service.NewReconciliationService(importRepo, txRepo, expenseRepo, invoiceRepo, cfg.Matching)
	imports := service.NewImportService(importRepo, txRepo, recon, cfg.Matching.AutoSuggestThreshold)

	return &env{db: db, imports: imports, recon: recon}, nil
}
