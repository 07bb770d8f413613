// Package notify delivers resident-facing messages. The store treats every
// delivery as fire-and-forget: a failed send is logged and counted but never
// aborts the persistence operation that triggered it.
package notify

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"pkt.systems/pslog"

	"github.com/sosedi-hub/sosedi/internal/loggingutil"
)

// Notifier is the outbound-message collaborator consumed by the storage
// layer. Target identifiers are Telegram chat ids in production.
type Notifier interface {
	// NotifySingle sends text to one target.
	NotifySingle(ctx context.Context, target, text string) error
	// NotifyMany sends text to every target, skipping failures, and
	// returns how many sends succeeded.
	NotifyMany(ctx context.Context, targets []string, text string) int
}

var bestEffortFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sosedi",
	Subsystem: "notify",
	Name:      "best_effort_failures_total",
	Help:      "Notification attempts that failed and were swallowed.",
}, []string{"op"})

// BestEffort runs fn and absorbs its failure, keeping it visible through the
// log and the failure counter instead of discarding it outright.
func BestEffort(ctx context.Context, logger pslog.Logger, op string, fn func() error) {
	logger = loggingutil.EnsureLogger(logger)
	if err := fn(); err != nil {
		bestEffortFailuresTotal.WithLabelValues(op).Inc()
		logger.Warn("notify.best_effort_failed", "op", op, "error", err)
	}
}

// Noop discards every message. Used when no transport is configured.
type Noop struct{}

func (Noop) NotifySingle(ctx context.Context, target, text string) error { return nil }

func (Noop) NotifyMany(ctx context.Context, targets []string, text string) int { return 0 }

var _ Notifier = Noop{}

// Message templates for parking events, matching the portal's resident-facing
// wording.

// ExpiredText tells a spot's occupant their reservation ran out.
func ExpiredText(spotLabel string) string {
	return fmt.Sprintf("Ваша бронь парковочного места %s завершилась. Вы уже уехали?", spotLabel)
}

// FreedText tells subscribers a spot became available.
func FreedText(spotLabel string) string {
	return fmt.Sprintf("Парковочное место %s освобождено.", spotLabel)
}

// BlockedText tells an occupant their car is blocked in.
func BlockedText(spotLabel, byApartment string) string {
	if byApartment != "" {
		return fmt.Sprintf("Ваше парковочное место %s перекрыто машиной от квартиры %s.", spotLabel, byApartment)
	}
	return fmt.Sprintf("Ваше парковочное место %s сейчас перекрыто другой машиной.", spotLabel)
}

// CallOwnerText asks an occupant to move their car.
func CallOwnerText(spotLabel string) string {
	return fmt.Sprintf("По вашему парковочному месту %s поступил запрос «подвинуть машину».", spotLabel)
}
