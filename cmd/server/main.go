package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"parareg/internal/accesscontrol"
	"parareg/internal/audit"
	"parareg/internal/geostats"
	instmetrics "parareg/internal/institution/metrics"
	instservice "parareg/internal/institution/service"
	inststore "parareg/internal/institution/store"
	"parareg/internal/jwtauth"
	"parareg/internal/platform/config"
	"parareg/internal/platform/httpserver"
	"parareg/internal/platform/logger"
	platformmetrics "parareg/internal/platform/metrics"
	platformpg "parareg/internal/platform/postgres"
	platformredis "parareg/internal/platform/redis"
	recmetrics "parareg/internal/record/metrics"
	recordservice "parareg/internal/record/service"
	recordstore "parareg/internal/record/store"
	"parareg/internal/researcher"
	httptransport "parareg/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	owner, err := cfg.Owner()
	if err != nil {
		log.Error("invalid PARAREG_OWNER_IDENTITY", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := platformpg.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := platformpg.EnsureSchema(ctx, db); err != nil {
			log.Error("schema installation failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores fall back to the in-memory implementations when their backing
	// service is not configured.
	var (
		records      recordstore.Store = recordstore.NewInMemory()
		institutions inststore.Store   = inststore.NewInMemory()
		memberships  researcher.Store  = researcher.NewInMemoryStore()
		geoStore     geostats.Store    = geostats.NewInMemoryStore()
	)
	geoInLedgerTx := false
	if db != nil {
		pgRecords := recordstore.NewPostgres(db)
		institutions = inststore.NewPostgres(db)
		memberships = researcher.NewPostgresStore(db)
		if redisClient == nil {
			// Aggregates share the database, so the regional increment
			// commits inside the record transaction.
			geoPg := geostats.NewPostgresStore(db)
			geoStore = geoPg
			pgRecords = pgRecords.WithAggregator(geoPg)
			geoInLedgerTx = true
		}
		records = pgRecords
	}
	if redisClient != nil {
		geoStore = geostats.NewRedisStore(redisClient)
	}

	auditPub := audit.NewPublisher(0, log)
	var auditSink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		auditSink, err = audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer auditSink.Close()
	}
	auditWorker := audit.NewWorker(audit.NewInMemoryStore(), auditSink, auditPub.Events(), log)

	checker := accesscontrol.NewChecker(owner, institutions, memberships)
	geoService := geostats.NewService(geoStore)
	var recordAgg recordservice.GeoAggregator = geoService
	if geoInLedgerTx {
		recordAgg = nil
	}
	im := instmetrics.New()
	recordSvc := recordservice.New(records, checker, recordAgg,
		auditPub, recmetrics.New(), log)
	instSvc := instservice.New(institutions, checker, auditPub, im)
	researcherSvc := researcher.NewService(memberships, checker, auditPub, im)

	tokens := jwtauth.NewService(cfg.JWTSigningKey, "parareg")
	handler := httptransport.NewHandler(recordSvc, instSvc, researcherSvc, geoService, log)
	router := httptransport.NewRouter(handler, tokens, platformmetrics.NewHTTP(), log)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting parareg", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
