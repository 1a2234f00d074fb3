package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"asset-ledger-api/internal/auth"
	"asset-ledger-api/internal/config"
	"asset-ledger-api/internal/handlers"
	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
	"asset-ledger-api/pkg/importer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router     *chi.Mux
	Service    *ledger.Service
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Logger     *slog.Logger
	Config     *config.Config
	// Sessions is set when row-level security is on.
	Sessions SessionBinder
	Imports  *handlers.ImportsHandler
}

// Deps are the collaborators NewServer wires into the router.
type Deps struct {
	Service *ledger.Service
	// Metrics should be the same instance handed to the service as its
	// Recorder. A fresh one is created when nil.
	Metrics  *Metrics
	Sessions SessionBinder
	// Resolver maps spreadsheet names to ids for the purchase import. When
	// nil it is built over the service's store.
	Resolver importer.Resolver
	Logger   *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Service == nil {
		return nil, errors.New("server: ledger service is required")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		return nil, err
	}

	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Resolver == nil {
		deps.Resolver = importer.NewStoreResolver(deps.Service.Store())
	}

	s := &Server{
		Router:     chi.NewRouter(),
		Service:    deps.Service,
		JWTManager: jwtManager,
		Metrics:    deps.Metrics,
		Logger:     deps.Logger,
		Config:     cfg,
		Imports:    handlers.NewImportsHandler(deps.Service, deps.Resolver, deps.Logger),
	}
	if cfg.RLSEnabled {
		if deps.Sessions == nil {
			return nil, errors.New("server: RLS_ENABLED requires a session binder")
		}
		s.Sessions = deps.Sessions
	}

	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(RequestLogger(s.Logger))
	s.Router.Use(middleware.Recoverer)
	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendMessage(w, http.StatusNotFound, "Can't find "+r.URL.Path+" on this server!")
	})
	s.Router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendMessage(w, http.StatusMethodNotAllowed, "Method "+r.Method+" is not allowed on "+r.URL.Path)
	})

	// public routes
	s.Router.Get("/health", s.health)
	s.Router.Get("/dbping", s.dbPing)
	s.Router.Post("/auth/login", s.loginUser)

	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWTManager))
		if s.Sessions != nil {
			r.Use(s.withRLSSession)
		}
		s.mountProtectedRoutes(r)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	sendSuccess(w, http.StatusOK, map[string]string{"state": "ok"})
}

func (s *Server) dbPing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Service.Ping(ctx); err != nil {
		s.Logger.WarnContext(r.Context(), "store ping failed", "err", err)
		sendMessage(w, http.StatusServiceUnavailable, "db: unavailable")
		return
	}
	sendSuccess(w, http.StatusOK, map[string]string{"db": "ok"})
}

// mountProtectedRoutes mounts every route that needs a bearer token.
func (s *Server) mountProtectedRoutes(r chi.Router) {
	const (
		admin      = models.RoleAdmin
		commander  = models.RoleCommander
		logistics  = models.RoleLogistics
		unitLeader = models.RoleUnitLeader
	)

	r.Get("/auth/profile", s.getUserProfile)
	r.Patch("/auth/profile", s.updateUserProfile)
	r.Patch("/auth/password", s.changePassword)

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.MustRole(admin))
		r.Get("/", s.listUsers)
		r.Post("/", s.createUser)
		r.Get("/{id}", s.getUser)
		r.Patch("/{id}", s.updateUser)
		r.Patch("/{id}/toggle-status", s.toggleUserStatus)
		r.Delete("/{id}", s.deleteUser)
	})

	r.Route("/locations", func(r chi.Router) {
		r.Get("/", s.listLocations)
		r.Get("/{id}", s.getLocation)
		r.With(auth.MustRole(admin)).Post("/", s.createLocation)
		r.With(auth.MustRole(admin)).Patch("/{id}", s.updateLocation)
		r.With(auth.MustRole(admin)).Delete("/{id}", s.deactivateLocation)
	})

	r.Route("/asset-types", func(r chi.Router) {
		r.Get("/", s.listAssetTypes)
		r.Get("/{id}", s.getAssetType)
		r.With(auth.MustRole(admin)).Post("/", s.createAssetType)
		r.With(auth.MustRole(admin)).Patch("/{id}", s.updateAssetType)
		r.With(auth.MustRole(admin)).Delete("/{id}", s.deleteAssetType)
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", s.listInventory)
		r.Get("/{id}", s.getInventoryItem)
		r.With(auth.MustRole(admin, logistics)).Post("/", s.createInventoryItem)
		r.With(auth.MustRole(admin, logistics)).Patch("/{id}", s.updateInventoryItem)
		r.With(auth.MustRole(admin, logistics)).Delete("/{id}", s.deleteInventoryItem)
	})

	r.Route("/purchases", func(r chi.Router) {
		r.Get("/", s.listPurchases)
		r.Get("/{id}", s.getPurchase)
		r.With(auth.MustRole(admin, logistics)).Post("/", s.createPurchase)
		r.With(auth.MustRole(admin, logistics)).Patch("/{id}", s.updatePurchase)
		r.With(auth.MustRole(admin)).Delete("/{id}", s.deletePurchase)
	})

	r.Route("/transfers", func(r chi.Router) {
		r.Get("/", s.listTransfers)
		r.Get("/{id}", s.getTransfer)
		r.With(auth.MustRole(admin, logistics)).Post("/", s.createTransfer)
		r.With(auth.MustRole(admin)).Patch("/{id}/approve", s.approveTransfer)
		r.With(auth.MustRole(admin)).Patch("/{id}/reject", s.rejectTransfer)
		r.Patch("/{id}/cancel", s.cancelTransfer)
	})

	r.Route("/assignments", func(r chi.Router) {
		r.Get("/", s.listAssignments)
		r.Get("/{id}", s.getAssignment)
		r.Group(func(r chi.Router) {
			r.Use(auth.MustRole(admin, commander))
			r.Post("/", s.createAssignment)
			r.Patch("/{id}", s.updateAssignment)
			r.Patch("/{id}/activate", s.activateAssignment)
			r.Patch("/{id}/return", s.returnAssignment)
			r.Patch("/{id}/expend", s.expendAssignment)
		})
	})

	r.Route("/expenditures", func(r chi.Router) {
		r.Get("/", s.listExpenditures)
		r.Get("/stats", s.expenditureStats)
		r.Get("/{id}", s.getExpenditure)
		r.With(auth.MustRole(admin, commander, logistics, unitLeader)).Post("/", s.createExpenditure)
		r.Patch("/{id}", s.updateExpenditure)
		r.Delete("/{id}", s.deleteExpenditure)
		r.With(auth.MustRole(admin)).Patch("/{id}/approve", s.approveExpenditure)
	})

	r.Get("/summary", s.getSummary)

	r.Route("/imports/purchases", func(r chi.Router) {
		r.Use(auth.MustRole(admin, logistics))
		r.Post("/", s.Imports.UploadPurchases)
		r.Get("/template", s.Imports.DownloadTemplate)
	})
}
