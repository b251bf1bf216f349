// Package http exposes the JSON API: accounts and sessions, the per-user
// record CRUD, batch images and the three dashboard reports.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/log"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/middleware/ratelimit"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/middleware/security"
	"github.com/juan2005elpapu/BIOS-INGESOFT/internal/services"
)

// Deps collects everything the server needs. ReadyCheck is probed by
// /readyz; leaving it nil reports ready unconditionally.
type Deps struct {
	Accounts   *services.AccountService
	Batches    *services.BatchService
	Animals    *services.AnimalService
	Costs      *services.CostService
	Tracking   *services.TrackingService
	Dashboard  *services.DashboardService
	Logger     *log.Logger
	ReadyCheck func(context.Context) error

	RequestsPerMinute int
}

type Server struct {
	http.Server

	accounts   *services.AccountService
	batches    *services.BatchService
	animals    *services.AnimalService
	costs      *services.CostService
	tracking   *services.TrackingService
	dashboard  *services.DashboardService
	logger     *log.Logger
	readyCheck func(context.Context) error

	limiter *ratelimit.Limiter
}

// NewServer wires routes and the middleware chain and returns a server ready
// for ListenAndServe.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		accounts:   deps.Accounts,
		batches:    deps.Batches,
		animals:    deps.Animals,
		costs:      deps.Costs,
		tracking:   deps.Tracking,
		dashboard:  deps.Dashboard,
		logger:     deps.Logger.WithComponent(log.ComponentHTTP),
		readyCheck: deps.ReadyCheck,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RequestsPerMinute,
		}),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.handleMe)

	mux.HandleFunc("GET /api/batches", s.handleListBatches)
	mux.HandleFunc("POST /api/batches", s.handleCreateBatch)
	mux.HandleFunc("GET /api/batches/options", s.handleBatchOptions)
	mux.HandleFunc("GET /api/batches/{id}", s.handleGetBatch)
	mux.HandleFunc("PUT /api/batches/{id}", s.handleUpdateBatch)
	mux.HandleFunc("DELETE /api/batches/{id}", s.handleDeleteBatch)
	mux.HandleFunc("POST /api/batches/{id}/image", s.handleSetBatchImage)
	mux.Handle("GET /api/batches/{id}/image",
		security.StaticAssetMiddleware(3600)(http.HandlerFunc(s.handleGetBatchImage)))

	mux.HandleFunc("GET /api/animals", s.handleListAnimals)
	mux.HandleFunc("POST /api/animals", s.handleCreateAnimal)
	mux.HandleFunc("GET /api/animals/options", s.handleAnimalOptions)
	mux.HandleFunc("GET /api/animals/{id}", s.handleGetAnimal)
	mux.HandleFunc("PUT /api/animals/{id}", s.handleUpdateAnimal)
	mux.HandleFunc("DELETE /api/animals/{id}", s.handleDeleteAnimal)

	mux.HandleFunc("GET /api/costs", s.handleListCosts)
	mux.HandleFunc("POST /api/costs", s.handleCreateCost)
	mux.HandleFunc("GET /api/costs/{id}", s.handleGetCost)
	mux.HandleFunc("PUT /api/costs/{id}", s.handleUpdateCost)
	mux.HandleFunc("DELETE /api/costs/{id}", s.handleDeleteCost)

	mux.HandleFunc("GET /api/weights", s.handleListWeights)
	mux.HandleFunc("POST /api/weights", s.handleCreateWeight)
	mux.HandleFunc("DELETE /api/weights/{id}", s.handleDeleteWeight)

	mux.HandleFunc("GET /api/productions", s.handleListProductions)
	mux.HandleFunc("POST /api/productions", s.handleCreateProduction)
	mux.HandleFunc("DELETE /api/productions/{id}", s.handleDeleteProduction)

	mux.HandleFunc("GET /api/dashboard/batches", s.handleDashboardBatches)
	mux.HandleFunc("GET /api/dashboard/tracking", s.handleDashboardTracking)
	mux.HandleFunc("GET /api/dashboard/costs", s.handleDashboardCosts)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := headers.Middleware(s.withLogging(s.withSession(s.withRateLimit(mux))))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withRateLimit throttles mutating requests per client IP; reads pass
// through.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "rate limit exceeded",
			log.FieldClientIP, clientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		w.Header().Set("Retry-After", "60")
		respondJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// withLogging tags the context logger with a request id and logs completion
// with the captured status code.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.LogHTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP(r))
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Shutdown stops background goroutines before draining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readyCheck != nil {
		if err := s.readyCheck(r.Context()); err != nil {
			s.logger.ErrorContext(r.Context(), "readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
