package app

import (
	"fmt"
	"log"

	"github.com/louisbranch/featurebook/internal/platform/i18n/catalog"
	"github.com/louisbranch/featurebook/internal/platform/random"
	"github.com/louisbranch/featurebook/internal/platform/text"
	"github.com/louisbranch/featurebook/internal/services/item/check"
	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
	"github.com/louisbranch/featurebook/internal/services/item/domain/feature"
	"github.com/louisbranch/featurebook/internal/services/item/kinds"
	"github.com/louisbranch/featurebook/internal/services/item/render"
	itemsqlite "github.com/louisbranch/featurebook/internal/services/item/storage/sqlite"
)

// RuntimeConfig selects storage, locale and display preferences.
type RuntimeConfig struct {
	DBPath   string
	Locale   string
	Settings classfeature.Settings
	// Confirmer answers the rename dialog.
	Confirmer classfeature.Confirmer
	// Seed overrides the dice seed source.
	Seed random.SeedFunc
}

// Runtime owns the store behind a Service.
type Runtime struct {
	Service *Service
	Store   *itemsqlite.Store
	Locale  string
}

// Open wires a Service over a SQLite store at cfg.DBPath.
func Open(cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Confirmer == nil {
		return nil, fmt.Errorf("confirmer is required")
	}
	store, err := itemsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open item store: %w", err)
	}

	bundle := catalog.Default()
	locale := bundle.Match(cfg.Locale)
	printer := bundle.Printer(locale)

	pipeline := render.NewPipeline()
	if _, err := classfeature.RegisterRenderHooks(pipeline, text.NewEnricher(), cfg.Settings); err != nil {
		_ = store.Close()
		return nil, err
	}
	displayer, err := check.NewDisplayer(pipeline, store, printer)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	registry := feature.NewRegistry()
	if err := kinds.Register(registry, check.NewRoller(displayer, cfg.Seed)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("register feature types: %w", err)
	}
	registry.Seal()

	service, err := NewService(Deps{
		Registry:  registry,
		Items:     store,
		Pipeline:  pipeline,
		Displayer: displayer,
		Renamer:   classfeature.NewFUIDRenamer(cfg.Confirmer, store, printer),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Runtime{Service: service, Store: store, Locale: locale}, nil
}

// Close releases the store.
func (r *Runtime) Close() {
	if r == nil || r.Store == nil {
		return
	}
	if err := r.Store.Close(); err != nil {
		log.Printf("close item store: %v", err)
	}
}
