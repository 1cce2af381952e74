package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/aliascfg"
	"github.com/tripzydevops/hotel-sub000/internal/adapters/embed"
	"github.com/tripzydevops/hotel-sub000/internal/adapters/notify"
	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/adapters/provider"
	"github.com/tripzydevops/hotel-sub000/internal/app"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
	"github.com/tripzydevops/hotel-sub000/internal/shared"
	mysqlrepo "github.com/tripzydevops/hotel-sub000/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "scanner")
	observability.Serve()

	log.Info().
		Str("base", cfg.ProviderBase).
		Int("keys", len(cfg.ProviderKeys)).
		Msg("scanner starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	gateway, err := provider.New(cfg.ProviderBase, cfg.ProviderKeys, cfg.ProviderRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider gateway")
	}

	var aliasSrc roomtype.Source
	if cfg.AliasCfgURL != "" {
		aliasSrc = aliascfg.NewHTTPSource(cfg.AliasCfgURL)
	}
	aliases := roomtype.NewProvider(aliasSrc, cfg.AliasTTL)

	pulse := app.NewPulseCache(repo, aliases)
	scan := app.NewScanService(repo, gateway, pulse, aliases)
	engine := app.NewContinuityEngine(repo)
	analysis := app.NewAnalysisService(repo, engine,
		embed.New(cfg.EmbedBase, cfg.EmbedKey), notify.NewWebhook(), aliases, app.NewConverter(nil))

	tenants, err := repo.ListActiveTenants(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list tenants failed")
	}

	for _, tenantID := range tenants {
		runTenant(ctx, tenantID, repo, scan, analysis)
	}
	log.Info().Int("tenants", len(tenants)).Msg("scan sweep completed")
}

// runTenant drives one tenant's full pipeline. A failure before the scan
// starts marks the session failed; per-hotel failures inside the scan only
// degrade it to partial.
func runTenant(ctx context.Context, tenantID int64, repo domain.Storage, scan *app.ScanService, analysis *app.AnalysisService) {
	hotels, err := repo.ListHotels(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Int64("tenant", tenantID).Msg("list hotels failed")
		return
	}
	if len(hotels) == 0 {
		return
	}

	session := &domain.ScanSession{TenantID: tenantID, Status: domain.SessionPending, HotelsCount: len(hotels)}
	if err := repo.CreateSession(ctx, session); err != nil {
		log.Error().Err(err).Int64("tenant", tenantID).Msg("create session failed")
		return
	}

	results := scan.RunScan(ctx, tenantID, hotels, app.ScanOptions{}, &session.ID)

	outcome, err := analysis.AnalyzeResults(ctx, tenantID, results, 0, &session.ID)
	if err != nil {
		log.Error().Err(err).Int64("tenant", tenantID).Msg("analysis failed")
		if uerr := repo.UpdateSessionStatus(ctx, session.ID, domain.SessionFailed, nil); uerr != nil {
			log.Error().Err(uerr).Int64("session", session.ID).Msg("session fail-mark failed")
		}
		return
	}
	log.Info().
		Int64("tenant", tenantID).
		Int("prices_updated", outcome.PricesUpdated).
		Int("alerts", len(outcome.Alerts)).
		Int("partial_failures", len(outcome.PartialFailures)).
		Msg("tenant scan done")
}
