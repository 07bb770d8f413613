package repo

import (
	"encoding/json"
	"fmt"

	"github.com/sosedi-hub/sosedi/internal/docstore"
)

// SpotID tolerates both numeric and string spot ids in the config file;
// hand-edited configs historically used numbers. It always re-marshals as a
// string.
type SpotID string

func (id *SpotID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = SpotID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = SpotID(n.String())
		return nil
	}
	return fmt.Errorf("spot id must be a string or number, got %s", data)
}

// ParkingSpot is one configured spot with its display label.
type ParkingSpot struct {
	ID    SpotID `json:"id"`
	Label string `json:"label,omitempty"`
}

// ParkingConfig lists the community's parking spots.
type ParkingConfig struct {
	Spots []ParkingSpot `json:"spots"`
}

// Labels maps spot id to display label, with the generic fallback applied for
// spots configured without one.
func (c ParkingConfig) Labels() map[string]string {
	labels := make(map[string]string, len(c.Spots))
	for _, spot := range c.Spots {
		labels[string(spot.ID)] = spot.DisplayLabel()
	}
	return labels
}

// DisplayLabel returns the configured label or the generic fallback.
func (s ParkingSpot) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return SpotLabel(string(s.ID))
}

// SpotLabel is the generic human-readable name for an unlabelled spot.
func SpotLabel(id string) string {
	return "место " + id
}

// NewParkingConfig builds the parking-configuration repository.
func NewParkingConfig(store *docstore.Store) *Collection[ParkingConfig] {
	return newCollection(store, "parking",
		func() ParkingConfig { return ParkingConfig{Spots: []ParkingSpot{}} },
		func(cfg *ParkingConfig) {
			if cfg.Spots == nil {
				cfg.Spots = []ParkingSpot{}
			}
		})
}

// SpotState describes the current occupant of one spot.
type SpotState struct {
	Apartment string `json:"apartment,omitempty"`
	Name      string `json:"name,omitempty"`
	CarCode   string `json:"car_code,omitempty"`
	Phone     string `json:"phone,omitempty"`
	ShowPhone bool   `json:"show_phone,omitempty"`
	// Until is the reservation expiry in the server's local zone, formatted
	// as datetime-local input produces it ("2006-01-02T15:04"). Empty means
	// no expiry.
	Until          string `json:"until,omitempty"`
	LongTerm       bool   `json:"long_term,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
	TelegramChatID string `json:"telegram_chat_id,omitempty"`

	// Guest occupation fields; Apartment carries the synthetic "g<id>" key.
	Occupied   bool   `json:"occupied,omitempty"`
	IsGuest    bool   `json:"is_guest,omitempty"`
	GuestID    int    `json:"guest_id,omitempty"`
	GuestPhoto string `json:"guest_photo,omitempty"`
}

// ParkingState is the occupancy document: spot id to occupant, and spot id to
// the chat ids waiting for that spot to free up.
type ParkingState struct {
	Spots         map[string]SpotState `json:"spots"`
	Subscriptions map[string][]string  `json:"subscriptions"`
}

func defaultParkingState() ParkingState {
	return ParkingState{
		Spots:         map[string]SpotState{},
		Subscriptions: map[string][]string{},
	}
}

func normalizeParkingState(state *ParkingState) {
	if state.Spots == nil {
		state.Spots = map[string]SpotState{}
	}
	if state.Subscriptions == nil {
		state.Subscriptions = map[string][]string{}
	}
}
