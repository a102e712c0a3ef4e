package main

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/viuworks/taller/internal/capacity"
	"github.com/viuworks/taller/internal/catalog"
	"github.com/viuworks/taller/internal/config"
	"github.com/viuworks/taller/internal/db"
	"github.com/viuworks/taller/internal/draft"
	"github.com/viuworks/taller/internal/migrations"
	"github.com/viuworks/taller/internal/pricing"
	"github.com/viuworks/taller/internal/seed"
	"github.com/viuworks/taller/internal/snapshot"
	"github.com/viuworks/taller/internal/store"
)

type server struct {
	store       *store.Store
	registry    *catalog.Registry
	db          *sql.DB
	sessions    *sessionService
	authorizer  capacity.Authorizer
	drafts      *draft.Client
	maxCapacity int64

	mu         sync.RWMutex
	pricingCfg pricing.Config
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		if stats, err := seed.Run(database); err != nil {
			log.Fatalf("seed reference data: %v", err)
		} else if stats.Inserts > 0 {
			log.Printf("seed: %d filas insertadas", stats.Inserts)
		}
	}

	registry, err := catalog.Load(database)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	state, err := loadState(database)
	if err != nil {
		log.Fatalf("load state: %v", err)
	}

	srv := &server{
		store:       store.New(state.Orders),
		registry:    registry,
		db:          database,
		sessions:    newSessionService(cfg.SessionSecret),
		authorizer:  capacity.NewKeyAuthorizer(cfg.SupervisorKey),
		drafts:      draft.NewClient(cfg.DraftAPIURL, cfg.DraftAPIKey),
		maxCapacity: cfg.PlantMaxCapacity,
		pricingCfg:  state.PricingConfig,
	}

	r := srv.routes()

	addr := ":" + cfg.Port
	log.Printf("taller escuchando en %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// loadState reads the persisted board snapshot, falling back to the demo
// board when none exists or the stored document cannot be decoded.
func loadState(database *sql.DB) (snapshot.State, error) {
	state, err := snapshot.Load(database, snapshot.StoreName)
	switch {
	case err == nil:
		if err := state.PricingConfig.Validate(); err != nil {
			log.Printf("snapshot: configuración de precios inválida (%v), usando valores por defecto", err)
			state.PricingConfig = pricing.DefaultConfig()
		}
		return state, nil
	case errors.Is(err, snapshot.ErrNotFound):
		return seededState(), nil
	case errors.Is(err, snapshot.ErrCorrupt):
		log.Printf("snapshot: %v, regenerando desde datos de demostración", err)
		return seededState(), nil
	default:
		return snapshot.State{}, err
	}
}

func seededState() snapshot.State {
	return snapshot.State{
		Orders:        seed.Orders(),
		PricingConfig: pricing.DefaultConfig(),
	}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/session", s.handleSessionCreate)
	r.Delete("/session", s.handleSessionDelete)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/board", s.handleBoard)
		r.Get("/orders", s.handleOrdersList)
		r.Post("/orders", s.handleOrderCreate)
		r.Post("/orders/reorder", s.handleReorder)
		r.Post("/orders/{id}/status", s.handleOrderStatus)
		r.Post("/orders/{id}/approve", s.handleOrderApprove)
		r.Post("/orders/{id}/file-status", s.handleFileStatus)

		r.Post("/quotes/preview", s.handleQuotePreview)
		r.Post("/quotes/draft", s.handleQuoteDraft)

		r.Get("/capacity", s.handleCapacity)
		r.Post("/capacity/override", s.handleCapacityOverride)
		r.Get("/production-queue", s.handleProductionQueue)

		r.Get("/materials", s.handleMaterials)
		r.Get("/customers", s.handleCustomers)

		r.Get("/admin/pricing-config", s.handlePricingConfigGet)
		r.Put("/admin/pricing-config", s.handlePricingConfigPut)
	})

	return r
}
