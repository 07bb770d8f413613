package repo

import "github.com/sosedi-hub/sosedi/internal/docstore"

// Resident is one named person within an apartment, with an individual PIN.
type Resident struct {
	Name    string `json:"name,omitempty"`
	PinHash string `json:"pin_hash,omitempty"`
}

// User is one apartment's record. Older records carry a single apartment-wide
// pin_hash; newer ones keep per-person PINs in Residents.
type User struct {
	Name           string     `json:"name,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Phones         []string   `json:"phones,omitempty"`
	PinHash        string     `json:"pin_hash,omitempty"`
	Residents      []Resident `json:"residents,omitempty"`
	TelegramChatID string     `json:"telegram_chat_id,omitempty"`
}

// Users maps apartment id to record.
type Users map[string]User

// NewUsers builds the resident-directory repository.
func NewUsers(store *docstore.Store) *Collection[Users] {
	return newCollection(store, "users", func() Users { return Users{} }, nil)
}

// HasAnyPin reports whether the apartment has a usable PIN, either the
// legacy apartment-wide one or any resident's own.
func (u User) HasAnyPin() bool {
	if u.PinHash != "" {
		return true
	}
	for _, r := range u.Residents {
		if r.PinHash != "" {
			return true
		}
	}
	return false
}
