package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/sosedi-hub/sosedi/internal/clock"
	"github.com/sosedi-hub/sosedi/internal/docstore"
)

// Invite is one registration link issued by an administrator for an
// apartment. Tokens are single-use.
type Invite struct {
	Apartment string `json:"apartment"`
	CreatedAt string `json:"created_at"`
	Used      bool   `json:"used"`
}

// Invites maps token to invite.
type Invites map[string]Invite

// InvitesRepo stores registration invites.
type InvitesRepo struct {
	*Collection[Invites]
	clock clock.Clock
}

// NewInvites builds the invites repository.
func NewInvites(store *docstore.Store, clk clock.Clock) *InvitesRepo {
	if clk == nil {
		clk = clock.Real{}
	}
	return &InvitesRepo{
		Collection: newCollection(store, "invites", func() Invites { return Invites{} }, nil),
		clock:      clk,
	}
}

// Mint issues a fresh invite token for the apartment.
func (r *InvitesRepo) Mint(ctx context.Context, apartment string) (string, error) {
	token := uuid.NewString()
	_, err := r.Update(ctx, func(invites *Invites) (bool, error) {
		(*invites)[token] = Invite{
			Apartment: apartment,
			CreatedAt: r.clock.Now().UTC().Format("2006-01-02T15:04:05"),
			Used:      false,
		}
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Consume marks the token used. It reports the invite and whether the token
// existed and was still fresh.
func (r *InvitesRepo) Consume(ctx context.Context, token string) (Invite, bool, error) {
	var invite Invite
	ok := false
	_, err := r.Update(ctx, func(invites *Invites) (bool, error) {
		existing, found := (*invites)[token]
		if !found || existing.Used {
			return false, nil
		}
		existing.Used = true
		(*invites)[token] = existing
		invite = existing
		ok = true
		return true, nil
	})
	if err != nil {
		return Invite{}, false, err
	}
	return invite, ok, nil
}

// Revoke deletes the token outright and reports whether it existed.
func (r *InvitesRepo) Revoke(ctx context.Context, token string) (bool, error) {
	existed := false
	_, err := r.Update(ctx, func(invites *Invites) (bool, error) {
		if _, found := (*invites)[token]; !found {
			return false, nil
		}
		delete(*invites, token)
		existed = true
		return true, nil
	})
	return existed, err
}
