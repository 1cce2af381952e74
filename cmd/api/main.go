package main

import (
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/aliascfg"
	"github.com/tripzydevops/hotel-sub000/internal/adapters/embed"
	server "github.com/tripzydevops/hotel-sub000/internal/adapters/http_server"
	"github.com/tripzydevops/hotel-sub000/internal/adapters/notify"
	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	redisad "github.com/tripzydevops/hotel-sub000/internal/adapters/redis"
	"github.com/tripzydevops/hotel-sub000/internal/app"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
	"github.com/tripzydevops/hotel-sub000/internal/shared"
	mysqlrepo "github.com/tripzydevops/hotel-sub000/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var aliasSrc roomtype.Source
	if cfg.AliasCfgURL != "" {
		aliasSrc = aliascfg.NewHTTPSource(cfg.AliasCfgURL)
	}
	aliases := roomtype.NewProvider(aliasSrc, cfg.AliasTTL)

	engine := app.NewContinuityEngine(repo)
	analysis := app.NewAnalysisService(repo, engine, embed.New(cfg.EmbedBase, cfg.EmbedKey), notify.NewWebhook(), aliases, app.NewConverter(nil))
	q := app.NewQueryService(analysis, repo, cache, cfg.QueryCacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
