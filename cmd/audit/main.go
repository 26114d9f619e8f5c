package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-realtime-reservations/internal/audit"
	"github.com/ariefcatur/go-realtime-reservations/internal/config"
	kafkax "github.com/ariefcatur/go-realtime-reservations/internal/kafka"
	"github.com/ariefcatur/go-realtime-reservations/internal/redisx"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &audit.Service{ServiceName: "audit", Log: logger}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		svc.Redis = rdb
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AuditGroup, reservations.TopicReservationEvents, cfg.AuditWorkers, logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cons.Start(ctx, svc.HandleReservationEvent); err != nil {
			logger.Error("consumer stopped", zap.Error(err))
		}
	}()
	logger.Info("audit consumer running",
		zap.String("topic", reservations.TopicReservationEvents),
		zap.String("group", cfg.AuditGroup),
		zap.Int("workers", cfg.AuditWorkers))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
	}
	logger.Info("shutting down...")
	cancel()
	<-done
}
