// Package app bootstraps the application. It acts as the facade for the
// whole system, wiring adapters to core services.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/cve"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/nvd"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/reporting"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/scanner"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/storage"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/web"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/adapters/web/handlers"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/config"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/domain"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/audit"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/auth"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/enrichment"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/review"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/services/scans"
	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/telemetry"
)

// Application holds the core components of the application.
type Application struct {
	Config *config.Config

	Store   *storage.SQLiteAdapter
	CVEs    *cve.SQLiteRepository
	Server  *web.Server
	Handler *web.Handlers

	AuthService       *auth.AuthService
	AuditService      *audit.AuditService
	ScanService       *scans.Service
	EnrichmentService *enrichment.Service
	ReviewService     *review.Service

	wsManager *web.WSManager
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{Config: cfg}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	app.Store = store

	cveRepo, err := cve.NewSQLiteRepository(app.Config.CVEDBPath)
	if err != nil {
		return fmt.Errorf("CVE cache initialization failed: %w", err)
	}
	app.CVEs = cveRepo

	// Outbound collaborators
	var nvdOpts []nvd.Option
	if app.Config.NVDBaseURL != "" {
		nvdOpts = append(nvdOpts, nvd.WithBaseURL(app.Config.NVDBaseURL))
	}
	if app.Config.NVDAPIKey != "" {
		nvdOpts = append(nvdOpts, nvd.WithAPIKey(app.Config.NVDAPIKey))
	}
	lookup := nvd.NewClient(nvdOpts...)
	engine := scanner.NewClient(app.Config.ScannerURL, app.Config.ScannerTimeout)

	// Core services
	app.AuditService = audit.NewAuditService(store)
	app.AuthService = auth.NewAuthService(store)
	app.wsManager = web.NewWSManager()

	app.EnrichmentService = enrichment.NewService(
		store, store, cveRepo, lookup, enrichment.DefaultConfig())

	app.ScanService = scans.NewService(
		store, store, engine, app.EnrichmentService,
		app.AuditService, app.wsManager,
		app.Config.ConfirmThreshold, app.Config.AutoEnrich)

	app.ReviewService = review.NewService(
		store, store, cveRepo, store.Reports(),
		reporting.NewTemplateNarrativeGenerator(), app.AuditService)

	if err := app.ensureDefaultAdmin(store); err != nil {
		log.Printf("Warning: could not ensure default admin: %v", err)
	}

	// Web layer
	app.Server = web.NewServer(app.Config.Addr, app.AuthService, app.wsManager)
	app.Handler = &web.Handlers{
		Auth:            handlers.NewAuthHandler(app.AuthService, app.AuditService),
		Targets:         handlers.NewTargetHandler(app.ScanService),
		Scans:           handlers.NewScanHandler(app.ScanService, app.EnrichmentService),
		Reports:         handlers.NewReportHandler(app.ReviewService, app.ScanService, cveRepo, reporting.NewPDFExporter()),
		Vulnerabilities: handlers.NewVulnerabilityHandler(cveRepo),
		Audit:           handlers.NewAuditHandler(app.AuditService),
	}

	return nil
}

func (app *Application) ensureDefaultAdmin(store *storage.SQLiteAdapter) error {
	if _, err := store.GetByUsername(context.Background(), "admin"); err != nil {
		log.Println("Provisioning default admin user...")
		return app.AuthService.CreateUser(context.Background(), domain.User{
			Username: "admin",
			Role:     domain.RoleAdmin,
		}, "changeit")
	}
	return nil
}

// Run starts the web server and blocks until the context is cancelled.
func (app *Application) Run(ctx context.Context) error {
	handler := web.SetupRoutes(app.Server, *app.Handler)
	return app.Server.Run(ctx, handler)
}

// Close releases the database handles.
func (app *Application) Close() {
	if app.CVEs != nil {
		if err := app.CVEs.Close(); err != nil {
			log.Printf("Warning: CVE cache close error: %v", err)
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			log.Printf("Warning: storage close error: %v", err)
		}
	}
}
