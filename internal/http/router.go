package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/http/account"
	"github.com/MrJamesThe3rd/brokerledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/brokerledger/internal/http/payment"
	"github.com/MrJamesThe3rd/brokerledger/internal/http/reconciliation"
	"github.com/MrJamesThe3rd/brokerledger/internal/http/sequence"
)

type Options struct {
	AllowedOrigins []string
	// JWTSecret enables HS256 bearer auth on /api/v1 when set.
	JWTSecret string
}

type Handlers struct {
	Payments        *payment.Handler
	Ledger          *ledger.Handler
	Accounts        *account.Handler
	Sequences       *sequence.Handler
	Reconciliations *reconciliation.Handler
}

func New(logger *zap.Logger, opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(requireBearer([]byte(opts.JWTSecret)))
		}

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Payments.Routes(r)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Ledger.Routes(r)
		})

		r.Route("/accounts", h.Accounts.Routes)
		r.Route("/sequences", h.Sequences.Routes)

		r.Route("/reconciliations", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
			h.Reconciliations.Routes(r)
		})
	})

	return router
}
