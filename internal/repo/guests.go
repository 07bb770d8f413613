package repo

import (
	"context"
	"fmt"

	"github.com/sosedi-hub/sosedi/internal/docstore"
)

// Guest application statuses.
const (
	GuestPending  = "pending"
	GuestApproved = "approved"
	GuestRejected = "rejected"
)

// Guest is one guest-parking application. Entries are only ever removed by an
// explicit administrative delete.
type Guest struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CarNumber string `json:"car_number,omitempty"`
	SpotID    string `json:"spot_id,omitempty"`
	Until     string `json:"until,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Status    string `json:"status"`
	Photo     string `json:"photo,omitempty"`
	PinHash   string `json:"pin_hash,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Source    string `json:"source,omitempty"`
}

// ApartmentKey is the synthetic occupant id an approved guest appears under
// in the parking state.
func (g Guest) ApartmentKey() string {
	return fmt.Sprintf("g%d", g.ID)
}

// GuestBook is the guest-applications document.
type GuestBook struct {
	Guests []Guest `json:"guests"`
}

// GuestsRepo stores guest-parking applications.
type GuestsRepo struct {
	*Collection[GuestBook]
}

// NewGuests builds the guest-applications repository.
func NewGuests(store *docstore.Store) *GuestsRepo {
	return &GuestsRepo{
		Collection: newCollection(store, "guests",
			func() GuestBook { return GuestBook{Guests: []Guest{}} },
			func(book *GuestBook) {
				if book.Guests == nil {
					book.Guests = []Guest{}
				}
			}),
	}
}

// Append assigns the next free id, defaults the status to pending, and
// persists the application. The id is returned.
func (r *GuestsRepo) Append(ctx context.Context, guest Guest) (int, error) {
	id := 0
	_, err := r.Update(ctx, func(book *GuestBook) (bool, error) {
		for _, g := range book.Guests {
			if g.ID > id {
				id = g.ID
			}
		}
		id++
		guest.ID = id
		if guest.Status == "" {
			guest.Status = GuestPending
		}
		book.Guests = append(book.Guests, guest)
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetStatus moves the application to the given status. It returns the
// updated record and whether the id existed.
func (r *GuestsRepo) SetStatus(ctx context.Context, id int, status string) (Guest, bool, error) {
	var updated Guest
	found := false
	_, err := r.Update(ctx, func(book *GuestBook) (bool, error) {
		for i := range book.Guests {
			if book.Guests[i].ID != id {
				continue
			}
			book.Guests[i].Status = status
			updated = book.Guests[i]
			found = true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return Guest{}, false, err
	}
	return updated, found, nil
}

// Delete removes the application outright and reports whether it existed.
func (r *GuestsRepo) Delete(ctx context.Context, id int) (bool, error) {
	deleted := false
	_, err := r.Update(ctx, func(book *GuestBook) (bool, error) {
		kept := book.Guests[:0]
		for _, g := range book.Guests {
			if g.ID == id {
				deleted = true
				continue
			}
			kept = append(kept, g)
		}
		book.Guests = kept
		return deleted, nil
	})
	return deleted, err
}
