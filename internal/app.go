// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "finance-tracker/internal/api"
	"finance-tracker/internal/api/handler"
	"finance-tracker/internal/balance"
	"finance-tracker/internal/config"
	"finance-tracker/internal/events"
	"finance-tracker/internal/repository"
	"finance-tracker/internal/repository/postgres"
	"finance-tracker/internal/service"
	"finance-tracker/internal/util"
	"finance-tracker/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	TransactionRepository repository.TransactionRepository

	// Balance cache shared by every request; cleared on each committed change
	BalanceCache *balance.Cache

	// Change event publisher (AMQP or no-op)
	Publisher events.Publisher

	// Services
	TransactionService service.TransactionService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components. configFile may be empty.
func (app *Application) Initialize(ctx context.Context, configFile string) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(util.LoggerOptions{Level: cfg.LogLevel, Format: cfg.LogFormat})
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Apply schema migrations
	if cfg.AutoMigrate {
		if err := db.MigrateUp(cfg.DB); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		app.Logger.Info("Database schema is up to date.")
	}

	// 4. Connect to Database
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 5. Initialize Repositories
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize event publishing
	if cfg.AMQP.URL == "" {
		app.Publisher = events.NoopPublisher{}
		app.Logger.Info("AMQP_URL not set, transaction events are disabled.")
	} else {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		app.Publisher = publisher
		app.Logger.Info("Publishing transaction events.", "exchange", cfg.AMQP.Exchange)
	}

	// 7. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.BalanceCache = balance.NewCache()
	app.TransactionService = service.NewTransactionService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.TransactionRepository,
		app.BalanceCache,
		app.Publisher,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 8. Initialize HTTP Handlers and Router
	transactionHandler := handler.NewTransactionHandler(app.TransactionService, app.Logger)
	app.HTTPHandler = router.NewRouter(transactionHandler, cfg.RequestTimeout, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Logger.Warn("Failed to close event publisher", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
