package sosedi

import (
	"github.com/sosedi-hub/sosedi/internal/clock"
	"github.com/sosedi-hub/sosedi/internal/docstore"
	"github.com/sosedi-hub/sosedi/internal/loggingutil"
	"github.com/sosedi-hub/sosedi/internal/notify"
	"github.com/sosedi-hub/sosedi/internal/repo"
)

// Portal wires the document store, the notification transport and every
// collection repository together. All state lives in cfg.DataDir; the Portal
// itself holds no caches, so any number of handlers may share one instance.
type Portal struct {
	cfg      Config
	store    *docstore.Store
	notifier notify.Notifier

	users         *repo.Collection[repo.Users]
	posts         *repo.PostsRepo
	subscriptions *repo.Collection[repo.Subscriptions]
	reactions     *repo.ReactionsRepo
	invites       *repo.InvitesRepo
	parkingConfig *repo.Collection[repo.ParkingConfig]
	parkingState  *repo.ParkingStateRepo
	guests        *repo.GuestsRepo
}

// New validates cfg and opens the portal core over its data directory.
func New(cfg Config) (*Portal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := loggingutil.EnsureLogger(cfg.Logger)

	store, err := docstore.New(docstore.Config{
		Dir:    cfg.DataDir,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier
	if cfg.TelegramBotToken != "" {
		notifier = notify.NewTelegram(notify.TelegramConfig{
			Token:  cfg.TelegramBotToken,
			Logger: logger,
		})
	} else {
		notifier = notify.Noop{}
	}

	clk := clock.Real{}
	parkingConfig := repo.NewParkingConfig(store)
	p := &Portal{
		cfg:           cfg,
		store:         store,
		notifier:      notifier,
		users:         repo.NewUsers(store),
		posts:         repo.NewPosts(store),
		subscriptions: repo.NewSubscriptions(store),
		reactions:     repo.NewReactions(store),
		invites:       repo.NewInvites(store, clk),
		parkingConfig: parkingConfig,
		parkingState:  repo.NewParkingState(store, parkingConfig, notifier, clk, logger),
		guests:        repo.NewGuests(store),
	}
	return p, nil
}

// Config returns the validated configuration the portal runs with.
func (p *Portal) Config() Config { return p.cfg }

// Store exposes the underlying document store, mainly for diagnostics.
func (p *Portal) Store() *docstore.Store { return p.store }

// Notifier exposes the configured notification transport.
func (p *Portal) Notifier() notify.Notifier { return p.notifier }

// Users is the resident directory, keyed by apartment id.
func (p *Portal) Users() *repo.Collection[repo.Users] { return p.users }

// Posts is the news feed.
func (p *Portal) Posts() *repo.PostsRepo { return p.posts }

// Subscriptions holds per-apartment news-feed preferences.
func (p *Portal) Subscriptions() *repo.Collection[repo.Subscriptions] { return p.subscriptions }

// Reactions holds per-post emoji reactions.
func (p *Portal) Reactions() *repo.ReactionsRepo { return p.reactions }

// Invites holds registration invite tokens.
func (p *Portal) Invites() *repo.InvitesRepo { return p.invites }

// ParkingConfig lists the configured parking spots.
func (p *Portal) ParkingConfig() *repo.Collection[repo.ParkingConfig] { return p.parkingConfig }

// ParkingState is the occupancy document; loading it sweeps expired
// reservations.
func (p *Portal) ParkingState() *repo.ParkingStateRepo { return p.parkingState }

// Guests holds guest-parking applications.
func (p *Portal) Guests() *repo.GuestsRepo { return p.guests }
