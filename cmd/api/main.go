package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-realtime-reservations/internal/config"
	"github.com/ariefcatur/go-realtime-reservations/internal/email"
	"github.com/ariefcatur/go-realtime-reservations/internal/httpx"
	kafkax "github.com/ariefcatur/go-realtime-reservations/internal/kafka"
	"github.com/ariefcatur/go-realtime-reservations/internal/lifecycle"
	"github.com/ariefcatur/go-realtime-reservations/internal/notify"
	"github.com/ariefcatur/go-realtime-reservations/internal/postgres"
	"github.com/ariefcatur/go-realtime-reservations/internal/realtime"
	"github.com/ariefcatur/go-realtime-reservations/internal/redisx"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/ariefcatur/go-realtime-reservations/internal/slots"
	"github.com/ariefcatur/go-realtime-reservations/internal/venues"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis (optional)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			logger.Warn("redis unreachable, venue lookups fall through to the store", zap.Error(err))
		}
	}

	// Store + venue directory
	var (
		store reservations.Store
		dir   venues.Directory
		cache *venues.Cache
	)
	withCache := func(next venues.Directory) venues.Directory {
		if rdb == nil {
			return next
		}
		cache = venues.NewCache(next, rdb, logger)
		return cache
	}
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		vrepo := &venues.Repo{DB: db}
		store = &reservations.Repo{DB: db}
		dir = withCache(vrepo)
		seedVenues(ctx, cfg.VenuesFile, vrepo, cache, logger)
	} else {
		f, err := venues.LoadFile(cfg.VenuesFile, logger)
		if err != nil {
			logger.Fatal("load venues", zap.String("path", cfg.VenuesFile), zap.Error(err))
		}
		logger.Info("using in-memory store", zap.Int("venues", f.Len()))
		store = reservations.NewMemStore(f.Has)
		dir = withCache(f)
		f.OnReload(func(vs []reservations.Venue) { evict(ctx, cache, vs, logger) })
		if err := f.Watch(ctx); err != nil {
			logger.Warn("venue hot reload disabled", zap.Error(err))
		}
	}

	// Realtime
	hub := realtime.NewHub(16)
	fan := realtime.NewFanout(hub, cfg.FlushInterval, logger)
	fan.Start(ctx)

	// Email
	var transport email.Transport = email.NewLogTransport(logger)
	smtpCfg := email.SMTPConfig(cfg.SMTP)
	if smtpCfg.Enabled() {
		transport = email.NewSMTPTransport(smtpCfg)
	}
	opts := email.Options{
		Workers:   cfg.EmailWorkers,
		QueueSize: cfg.EmailQueue,
		From:      cfg.SMTP.From,
	}
	if rdb != nil {
		opts.Dedup = email.RedisDeduper{RDB: rdb}
	}
	mailer := email.NewDispatcher(email.NewRenderer(cfg.EmailTemplatesDir), transport, opts, logger)
	mailer.Start(ctx)

	// Kafka producer (optional)
	var prod *kafkax.Producer
	deps := lifecycle.Deps{
		Store:       store,
		Venues:      dir,
		Calculator:  slots.New(cfg.SlotGranularity, cfg.ReservationDuration),
		Router:      notify.Router{Links: notify.Links{Base: cfg.SiteURL}},
		Fanout:      fan,
		Mailer:      mailer,
		ServiceName: cfg.ServiceName,
		Logger:      logger,
	}
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, reservations.TopicReservationEvents, 1024, logger)
		prod.Start(ctx)
		deps.Events = prod
	}
	ctrl := lifecycle.New(deps)

	// HTTP
	mux, api := httpx.NewRouter()
	(&httpx.ReservationsHandler{Lifecycle: ctrl, Log: logger}).Register(api)
	httpx.NewSocketHandler(hub, dir, logger).Register(mux)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	fan.Stop()     // last flush to dashboards still connected
	hub.Close()    // closes subscriber channels
	mailer.Close() // drains queued mail
	if prod != nil {
		prod.Close()
		cancel()
		prod.WaitClosed()
	}
}

func newLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = lvl
	}
	l, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// seedVenues upserts the YAML catalog into postgres when the file exists.
func seedVenues(ctx context.Context, path string, repo *venues.Repo, cache *venues.Cache, log *zap.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	f, err := venues.LoadFile(path, log)
	if err != nil {
		log.Warn("venue seed skipped", zap.String("path", path), zap.Error(err))
		return
	}
	all := f.All()
	for _, v := range all {
		if err := repo.Upsert(ctx, v); err != nil {
			log.Warn("venue seed failed", zap.String("venue_id", v.ID), zap.Error(err))
		}
	}
	evict(ctx, cache, all, log)
}

// evict drops cached copies of venues whose definition just changed.
func evict(ctx context.Context, cache *venues.Cache, vs []reservations.Venue, log *zap.Logger) {
	if cache == nil {
		return
	}
	for _, v := range vs {
		if err := cache.Invalidate(ctx, v.ID); err != nil {
			log.Warn("venue cache invalidate failed", zap.String("venue_id", v.ID), zap.Error(err))
		}
	}
}
