package repo

import "github.com/sosedi-hub/sosedi/internal/docstore"

// NewsSubscription holds one apartment's feed preferences.
type NewsSubscription struct {
	House    bool `json:"house"`
	District bool `json:"district"`
}

// Subscriptions maps apartment id to feed preferences. Apartments without an
// entry default to both feeds enabled at the portal layer.
type Subscriptions map[string]NewsSubscription

// NewSubscriptions builds the feed-preferences repository.
func NewSubscriptions(store *docstore.Store) *Collection[Subscriptions] {
	return newCollection(store, "subscriptions", func() Subscriptions { return Subscriptions{} }, nil)
}
