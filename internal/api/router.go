// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finance-tracker/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router. A non-positive timeout
// falls back to handler.DefaultTimeout.
func NewRouter(transactionHandler *handler.TransactionHandler, timeout time.Duration, logger *slog.Logger) http.Handler {
	if timeout <= 0 {
		timeout = handler.DefaultTimeout
	}

	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)        // Add a request ID to the context
	r.Use(middleware.RealIP)           // Use the real IP address
	r.Use(middleware.Logger)           // Log HTTP requests
	r.Use(middleware.Recoverer)        // Recover from panics and return 500
	r.Use(middleware.Timeout(timeout)) // Cancel the request context after timeout
	r.Use(middleware.AllowContentType("application/json"))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Transaction API routes
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", transactionHandler.CreateTransaction)
		r.Get("/", transactionHandler.SearchTransactions)
		r.Get("/account/{accountName}", transactionHandler.GetTransactionsByAccount)
		r.Get("/balance/{accountName}", transactionHandler.GetBalance)
		r.Get("/{id}", transactionHandler.GetTransaction)
		r.Put("/{id}", transactionHandler.UpdateTransaction)
		r.Delete("/{id}", transactionHandler.DeleteTransaction)
	})

	logger.Debug("HTTP routes registered", "request_timeout", timeout.String())
	return r
}
