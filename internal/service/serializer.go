package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "github.com/crickarena/auction-api/pkg/errors"
	"github.com/crickarena/auction-api/pkg/logger"
	"github.com/crickarena/auction-api/pkg/redis"
)

// Serializer admits one mutation at a time per league. An in-process slot
// bounds the wait, and a redis lease extends the exclusion to other
// instances. Both are advisory fast paths: the store-level version check
// and conditional updates remain the final guard.
type Serializer struct {
	name   string
	wait   time.Duration
	clock  clockwork.Clock
	cache  *redis.Client
	keys   *redis.KeyBuilder
	logger *logger.Logger

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewSerializer creates a serializer for one mutation domain. A nil cache
// disables the cross-instance lease.
func NewSerializer(name string, wait time.Duration, clock clockwork.Clock, cache *redis.Client, keys *redis.KeyBuilder, logger *logger.Logger) *Serializer {
	return &Serializer{
		name:   name,
		wait:   wait,
		clock:  clock,
		cache:  cache,
		keys:   keys,
		logger: logger,
		slots:  make(map[string]chan struct{}),
	}
}

func (s *Serializer) slot(leagueID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.slots[leagueID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.slots[leagueID] = ch
	}
	return ch
}

// Acquire takes the league's slot, waiting at most the configured bound.
// Callers that cannot get in receive a busy error and should retry. The
// returned release function must be called exactly once.
func (s *Serializer) Acquire(ctx context.Context, leagueID string) (func(), error) {
	slot := s.slot(leagueID)

	select {
	case slot <- struct{}{}:
	case <-s.clock.After(s.wait):
		return nil, apperrors.NewBusyError("auction is busy, retry shortly")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if s.cache == nil {
		return func() { <-slot }, nil
	}

	leaseKey := s.keys.SerializerLeaseKey(s.name, leagueID)
	token := uuid.NewString()

	acquired, err := s.cache.AcquireLock(ctx, leaseKey, token, redis.TTLSerializerLease)
	if err != nil {
		// Redis being down degrades to in-process exclusion only.
		s.logger.WithError(err).WithField("league_id", leagueID).Warn("serializer lease unavailable")
		return func() { <-slot }, nil
	}
	if !acquired {
		<-slot
		return nil, apperrors.NewBusyError("auction is busy on another instance, retry shortly")
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.ReleaseLock(releaseCtx, leaseKey, token); err != nil {
			s.logger.WithError(err).WithField("league_id", leagueID).Warn("failed to release serializer lease")
		}
		<-slot
	}, nil
}

// Run executes fn while holding the league's slot
func (s *Serializer) Run(ctx context.Context, leagueID string, fn func() error) error {
	release, err := s.Acquire(ctx, leagueID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
