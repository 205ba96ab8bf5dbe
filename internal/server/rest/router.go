package rest

import (
	"net/http"

	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the outer surface of the router.
type RouterOptions struct {
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string
	// Registry receives request metrics and is served on /metrics. Nil
	// disables both.
	Registry *prometheus.Registry
}

func NewRouter(d Deps, l logging.Logger, opts RouterOptions) http.Handler {
	h := &Handler{
		auth:         d.Auth,
		resolver:     d.Resolver,
		users:        d.Users,
		transactions: d.Transactions,
		exporter:     d.Exporter,
		health:       d.Health,
		logger:       l.With("module", "http"),
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.Use(h.observe)

	// Public routes
	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	if opts.Registry != nil {
		h.metrics = NewMetrics(opts.Registry)
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	r.HandleFunc("/token", h.token).Methods(http.MethodPost)
	r.HandleFunc("/users", h.register).Methods(http.MethodPost)

	// Protected routes
	api := r.NewRoute().Subrouter()
	api.Use(h.authenticate)

	api.HandleFunc("/users/me", h.profile).Methods(http.MethodGet)
	api.HandleFunc("/users/me", h.updateProfile).Methods(http.MethodPatch)
	api.HandleFunc("/users/me", h.deleteAccount).Methods(http.MethodDelete)

	api.HandleFunc("/transactions", h.listTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", h.createTransaction).Methods(http.MethodPost)
	if h.exporter != nil {
		api.HandleFunc("/transactions/export", h.exportTransactions).Methods(http.MethodGet)
	}
	api.HandleFunc("/transactions/{id}", h.getTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", h.updateTransaction).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/transactions/{id}", h.deleteTransaction).Methods(http.MethodDelete)

	cors := handlers.CORS(
		handlers.AllowedOrigins(opts.AllowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	return cors(r)
}
