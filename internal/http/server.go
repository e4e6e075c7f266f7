// Package http exposes the JSON API: auth, the three user collections,
// and the analytics projections computed from settled snapshots.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"grana/internal/auth"
	"grana/internal/cache"
	"grana/internal/core"
	applog "grana/internal/log"
	"grana/internal/services"
)

type Server struct {
	http.Server

	authSvc      *auth.Service
	syncSvc      *services.SyncService
	transactions *services.TransactionService
	recurring    *services.RecurringService
	accounts     *services.AccountService

	rateLimiter *rateLimiter
	logs        *applog.StructuredLogger

	// Settled snapshots per user; writes invalidate.
	snapshotCache *cache.LRU[string, core.Snapshot]
	janitor       *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer configures all routes and returns a ready-to-run server.
func NewServer(addr string, logger *applog.Logger, authSvc *auth.Service, syncSvc *services.SyncService, transactions *services.TransactionService, recurring *services.RecurringService, accounts *services.AccountService) *Server {
	s := &Server{
		authSvc:       authSvc,
		syncSvc:       syncSvc,
		transactions:  transactions,
		recurring:     recurring,
		accounts:      accounts,
		rateLimiter:   newRateLimiter(),
		logs:          applog.NewStructuredLogger(logger),
		snapshotCache: cache.NewLRU[string, core.Snapshot](500, time.Minute),
		janitor:       cache.NewJanitor(),
	}

	s.janitor.Register(s.snapshotCache)
	s.janitor.Start(10 * time.Minute)

	r := mux.NewRouter()
	r.Use(applog.Middleware(logger))
	r.Use(applog.RequestIDMiddleware(requestID))
	r.Use(s.withObservability)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-request", s.handleResetRequest).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset", s.handleReset).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.withAuth)

	authed.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)

	authed.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	authed.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	authed.HandleFunc("/transactions/installments", s.handleCreateInstallments).Methods(http.MethodPost)
	authed.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	authed.HandleFunc("/recurring-expenses", s.handleListRecurring).Methods(http.MethodGet)
	authed.HandleFunc("/recurring-expenses", s.handleCreateRecurring).Methods(http.MethodPost)
	authed.HandleFunc("/recurring-expenses/{id}", s.handleDeleteRecurring).Methods(http.MethodDelete)

	authed.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	authed.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	authed.HandleFunc("/accounts/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)
	authed.HandleFunc("/accounts/{id}/deposit", s.handleDeposit).Methods(http.MethodPost)
	authed.HandleFunc("/accounts/{id}/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	authed.HandleFunc("/accounts/{id}/total", s.handleSetTotal).Methods(http.MethodPut)
	authed.HandleFunc("/accounts/{id}/goal-projection", s.handleGoalProjection).Methods(http.MethodGet)
	authed.HandleFunc("/accounts/{id}/growth", s.handleInvestmentGrowth).Methods(http.MethodGet)

	authed.HandleFunc("/analytics/dashboard", s.handleDashboard).Methods(http.MethodGet)
	authed.HandleFunc("/analytics/categories", s.handleCategories).Methods(http.MethodGet)
	authed.HandleFunc("/analytics/monthly-flow", s.handleMonthlyFlow).Methods(http.MethodGet)
	authed.HandleFunc("/analytics/annual-projection", s.handleAnnualProjection).Methods(http.MethodGet)
	authed.HandleFunc("/analytics/cashflow", s.handleCashFlow).Methods(http.MethodGet)
	authed.HandleFunc("/analytics/budget", s.handleBudget).Methods(http.MethodGet)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Shutdown stops background routines then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

type contextKey string

const userIDKey contextKey = "user_id"

// withAuth resolves the bearer token and stores the user id in the context.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.authSvc.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// withObservability adds security headers, rate limiting and request logging.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		ctx := r.Context()

		if isMutation(r.Method) && !s.rateLimiter.allow(ip) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		s.logs.LogHTTPStart(ctx, r, ip)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logs.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	})
}

// requestID honors an upstream X-Request-ID, generating one otherwise.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return generateRequestID()
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// snapshot returns the user's settled snapshot, serving a cached copy when
// one is fresh. A diverged materialization still yields a usable snapshot,
// so it is logged and served rather than failing the read.
func (s *Server) snapshot(ctx context.Context, uid string) (core.Snapshot, error) {
	if snap, ok := s.snapshotCache.Get(uid); ok {
		return snap, nil
	}

	snap, err := s.syncSvc.Refresh(ctx, uid)
	if err != nil {
		if errors.Is(err, services.ErrMaterializationDiverged) {
			applog.FromContext(ctx).WarnContext(ctx, "Serving snapshot despite diverged materialization", applog.FieldUserID, uid)
		} else {
			return core.Snapshot{}, err
		}
	}

	s.snapshotCache.Set(uid, snap)
	return snap, nil
}

func (s *Server) invalidateSnapshot(uid string) {
	s.snapshotCache.Invalidate(uid)
}
