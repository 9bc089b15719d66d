package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/logger"
	"papertrade/internal/models"
)

// observeBuffer is the per-subscriber channel capacity. When a subscriber
// falls this far behind, its oldest pending value is dropped so publishing
// never blocks on a slow reader.
const observeBuffer = 16

// ProfileStore is the single source of truth for the user profile. It holds
// the current in-memory value, fans it out to observers, and serializes all
// mutation through Update so concurrent callers never act on a stale balance.
type ProfileStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger

	// updateMu serializes the transform-publish-persist sequence. Waiting
	// callers are applied one at a time, each against the value the
	// previous caller published.
	updateMu sync.Mutex

	mu      sync.RWMutex
	current models.Profile
	subs    map[int]chan models.Profile
	nextSub int
}

// NewProfileStore creates a ProfileStore. Call Load before first use.
func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{
		db:   db,
		log:  logger.Named("profile-store"),
		subs: make(map[int]chan models.Profile),
	}
}

// Load reads the durable profile row, creating the given initial profile on
// first run.
func (s *ProfileStore) Load(ctx context.Context, initial models.Profile) error {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = initial
		if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, err)
		}
		s.log.Infow("created initial profile", "fiat_balance", profile.FiatBalance)
	} else if err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	s.mu.Lock()
	s.current = profile
	s.mu.Unlock()
	return nil
}

// Current returns the latest published profile synchronously.
func (s *ProfileStore) Current() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Observe returns a channel that receives the current profile immediately
// and every published value thereafter, in order. The subscription ends when
// ctx is cancelled; the channel is closed on unsubscribe.
func (s *ProfileStore) Observe(ctx context.Context) <-chan models.Profile {
	ch := make(chan models.Profile, observeBuffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.current
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Update applies transform to the most recently published profile, publishes
// the result to all observers, then persists it. Calls are serialized: each
// waiting caller sees the value its predecessor published, which is what
// prevents two concurrent mutations from both reading a stale balance.
//
// If transform returns an error, nothing is published or persisted. If the
// durable write fails, the in-memory publish is NOT rolled back; the error is
// surfaced as PERSISTENCE and the caller decides whether to retry.
func (s *ProfileStore) Update(ctx context.Context, transform func(models.Profile) (models.Profile, error)) (models.Profile, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	next, err := transform(s.Current())
	if err != nil {
		return models.Profile{}, err
	}

	s.publish(next)

	if err := s.db.WithContext(ctx).Save(&next).Error; err != nil {
		s.log.Warnw("profile persistence failed, in-memory state is ahead of durable state", "error", err)
		return next, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return next, nil
}

// Reload folds the durable profile row into published state. It takes the
// update lock, so it never clobbers an in-flight local mutation; intended for
// picking up out-of-process changes to the backing database.
func (s *ProfileStore) Reload(ctx context.Context) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	s.publish(profile)
	return nil
}

// publish replaces the current value and fans it out to subscribers.
func (s *ProfileStore) publish(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = p
	for _, ch := range s.subs {
		select {
		case ch <- p:
		default:
			// Subscriber is full: drop its oldest pending value and
			// retry so the newest state always gets through.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p:
			default:
			}
		}
	}
}
