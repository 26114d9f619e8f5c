// Package audit consumes the reservation event stream and writes one
// structured log line per change.
package audit

import (
	"context"
	"fmt"
	"sync"

	kafkax "github.com/ariefcatur/go-realtime-reservations/internal/kafka"
	"github.com/ariefcatur/go-realtime-reservations/internal/redisx"
	"github.com/ariefcatur/go-realtime-reservations/internal/reservations"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Service struct {
	Redis       redis.UniversalClient // optional; de-duplicates redelivered events
	ServiceName string
	Log         *zap.Logger

	mu     sync.Mutex
	counts map[string]int
}

// HandleReservationEvent is installed as the consumer handler. Malformed
// messages are logged and committed so they do not block the partition.
func (s *Service) HandleReservationEvent(ctx context.Context, m kafkago.Message) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	var env reservations.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		log.Warn("audit: bad envelope", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if !knownEvent(env.EventType) {
		return nil
	}

	if s.Redis != nil && env.EventID != "" {
		ok, err := redisx.Claim(ctx, s.Redis, redisx.DedupKey(s.service(), env.EventID), redisx.TTLDedup)
		if err != nil {
			return fmt.Errorf("dedup %s: %w", env.EventID, err)
		}
		if !ok {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[reservations.ChangedPayload](env.Payload)
	if err != nil {
		log.Warn("audit: bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	fields := []zap.Field{
		zap.String("event_id", env.EventID),
		zap.String("event_type", env.EventType),
		zap.String("producer", env.Producer),
		zap.Time("occurred_at", env.OccurredAt),
		zap.String("reservation_id", p.ReservationID),
		zap.String("venue_id", p.VenueID),
		zap.String("actor", p.Actor),
		zap.String("status", string(p.Status)),
		zap.String("arrival_status", string(p.ArrivalStatus)),
		zap.String("date", p.Date),
		zap.String("time", p.Time),
		zap.Int("guests", p.Guests),
	}
	for _, c := range p.Changes {
		fields = append(fields, zap.String("changed."+c.Field, c.Old+" -> "+c.New))
	}
	log.Info("reservation event", fields...)

	s.mu.Lock()
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[env.EventType]++
	s.mu.Unlock()
	return nil
}

// Count reports how many events of the given type were recorded.
func (s *Service) Count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[eventType]
}

func (s *Service) service() string {
	if s.ServiceName == "" {
		return "audit"
	}
	return s.ServiceName
}

func knownEvent(t string) bool {
	switch t {
	case reservations.EventReservationCreated,
		reservations.EventReservationUpdated,
		reservations.EventReservationEdited,
		reservations.EventReservationCancelled:
		return true
	}
	return false
}
