package repo

import (
	"context"
	"strings"
	"time"

	"pkt.systems/pslog"

	"github.com/sosedi-hub/sosedi/internal/clock"
	"github.com/sosedi-hub/sosedi/internal/docstore"
	"github.com/sosedi-hub/sosedi/internal/loggingutil"
	"github.com/sosedi-hub/sosedi/internal/notify"
)

// Expiry timestamps arrive from datetime-local form inputs; a seconds-bearing
// variant shows up in hand-edited files.
var untilLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// ParkingStateRepo stores parking occupancy. Every load doubles as a
// garbage-collection pass: reservations whose expiry has passed are evicted,
// their occupants and subscribers notified, and the cleaned state persisted —
// no background scheduler needed.
type ParkingStateRepo struct {
	col      *Collection[ParkingState]
	config   *Collection[ParkingConfig]
	notifier notify.Notifier
	clock    clock.Clock
	logger   pslog.Logger
}

// NewParkingState builds the occupancy repository. A nil notifier disables
// notifications; a nil clock means the server's local wall clock.
func NewParkingState(store *docstore.Store, config *Collection[ParkingConfig], notifier notify.Notifier, clk clock.Clock, logger pslog.Logger) *ParkingStateRepo {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &ParkingStateRepo{
		col:      newCollection(store, "parking_state", defaultParkingState, normalizeParkingState),
		config:   config,
		notifier: notifier,
		clock:    clk,
		logger:   loggingutil.EnsureLogger(logger),
	}
}

// Load returns the occupancy state after sweeping expired reservations. The
// sweep runs with the document lock held, so two overlapping loads cannot
// expire the same spot twice or notify anyone more than once.
func (r *ParkingStateRepo) Load(ctx context.Context) (ParkingState, error) {
	// The config document has its own lock; read it before taking the state
	// lock so no operation ever holds two document locks at once.
	labels := map[string]string{}
	if r.config != nil {
		cfg, err := r.config.Load(ctx)
		if err != nil {
			return defaultParkingState(), err
		}
		labels = cfg.Labels()
	}
	return r.col.Update(ctx, func(state *ParkingState) (bool, error) {
		return r.sweep(ctx, state, labels), nil
	})
}

// Save persists the occupancy state without sweeping.
func (r *ParkingStateRepo) Save(ctx context.Context, state ParkingState) error {
	return r.col.Save(ctx, state)
}

// sweep evicts past-due reservations in place and reports whether anything
// changed. Notification failures never stop the eviction.
func (r *ParkingStateRepo) sweep(ctx context.Context, state *ParkingState, labels map[string]string) bool {
	now := r.clock.Now()
	changed := false
	for sid, info := range state.Spots {
		until, ok := parseUntil(info.Until)
		if !ok || !until.Before(now) {
			continue
		}
		label := labels[sid]
		if label == "" {
			label = SpotLabel(sid)
		}
		r.logger.Info("repo.parking.sweep.expired", "spot", sid, "until", info.Until, "apartment", info.Apartment)

		if chatID := strings.TrimSpace(info.TelegramChatID); chatID != "" {
			notify.BestEffort(ctx, r.logger, "parking_expired", func() error {
				return r.notifier.NotifySingle(ctx, chatID, notify.ExpiredText(label))
			})
		}
		if subscribers := state.Subscriptions[sid]; len(subscribers) > 0 {
			notify.BestEffort(ctx, r.logger, "parking_freed", func() error {
				r.notifier.NotifyMany(ctx, subscribers, notify.FreedText(label))
				return nil
			})
			delete(state.Subscriptions, sid)
		}
		delete(state.Spots, sid)
		changed = true
	}
	return changed
}

// parseUntil interprets an expiry timestamp in the server's local zone. An
// empty or unparseable value never expires the spot.
func parseUntil(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range untilLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Occupy records who is on the spot, replacing any previous occupant entry.
func (r *ParkingStateRepo) Occupy(ctx context.Context, spotID string, occupant SpotState) error {
	_, err := r.col.Update(ctx, func(state *ParkingState) (bool, error) {
		state.Spots[spotID] = occupant
		return true, nil
	})
	return err
}

// Free releases the spot, notifying subscribers that it opened up. Freeing an
// already-free spot only clears any leftover subscriptions.
func (r *ParkingStateRepo) Free(ctx context.Context, spotID string) error {
	labels := map[string]string{}
	if r.config != nil {
		if cfg, err := r.config.Load(ctx); err == nil {
			labels = cfg.Labels()
		}
	}
	_, err := r.col.Update(ctx, func(state *ParkingState) (bool, error) {
		_, occupied := state.Spots[spotID]
		_, subscribed := state.Subscriptions[spotID]
		if !occupied {
			if !subscribed {
				return false, nil
			}
			delete(state.Subscriptions, spotID)
			return true, nil
		}
		label := labels[spotID]
		if label == "" {
			label = SpotLabel(spotID)
		}
		if subscribers := state.Subscriptions[spotID]; len(subscribers) > 0 {
			notify.BestEffort(ctx, r.logger, "parking_freed", func() error {
				r.notifier.NotifyMany(ctx, subscribers, notify.FreedText(label))
				return nil
			})
			delete(state.Subscriptions, spotID)
		}
		delete(state.Spots, spotID)
		return true, nil
	})
	return err
}

// Subscribe adds chatID to the spot's waiters. Reports whether it was newly
// added.
func (r *ParkingStateRepo) Subscribe(ctx context.Context, spotID, chatID string) (bool, error) {
	added := false
	_, err := r.col.Update(ctx, func(state *ParkingState) (bool, error) {
		for _, existing := range state.Subscriptions[spotID] {
			if existing == chatID {
				return false, nil
			}
		}
		state.Subscriptions[spotID] = append(state.Subscriptions[spotID], chatID)
		added = true
		return true, nil
	})
	return added, err
}

// Unsubscribe removes chatID from the spot's waiters, dropping the entry when
// it empties.
func (r *ParkingStateRepo) Unsubscribe(ctx context.Context, spotID, chatID string) error {
	_, err := r.col.Update(ctx, func(state *ParkingState) (bool, error) {
		subscribers := state.Subscriptions[spotID]
		kept := subscribers[:0]
		for _, existing := range subscribers {
			if existing != chatID {
				kept = append(kept, existing)
			}
		}
		if len(kept) == len(subscribers) {
			return false, nil
		}
		if len(kept) == 0 {
			delete(state.Subscriptions, spotID)
		} else {
			state.Subscriptions[spotID] = kept
		}
		return true, nil
	})
	return err
}
