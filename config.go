package sosedi

import (
	"fmt"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// DefaultDataDir is where documents live when no directory is configured.
const DefaultDataDir = "data"

// Config carries the process-wide settings. It is constructed once at start
// and passed down; no component reads ambient globals.
type Config struct {
	// DataDir holds every document file.
	DataDir string
	// AdminApartments lists apartment ids with administrative rights.
	AdminApartments []string
	// TelegramBotToken enables the Telegram notification transport when
	// non-empty.
	TelegramBotToken string
	// AllowPhoneFallback permits logging in with a phone number even when a
	// PIN is set. Emergency recovery switch only.
	AllowPhoneFallback bool
	// Logger is the base logger; nil disables logging.
	Logger pslog.Logger
}

// Validate normalises the configuration and applies defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	c.DataDir = filepath.Clean(c.DataDir)
	admins := make([]string, 0, len(c.AdminApartments))
	for _, a := range c.AdminApartments {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		admins = append(admins, a)
	}
	c.AdminApartments = admins
	c.TelegramBotToken = strings.TrimSpace(c.TelegramBotToken)
	return nil
}

// IsAdmin reports whether the apartment id carries admin rights.
func (c Config) IsAdmin(apartment string) bool {
	apartment = strings.TrimSpace(apartment)
	for _, a := range c.AdminApartments {
		if a == apartment {
			return true
		}
	}
	return false
}

// ParseAdminApartments splits a comma-separated apartment list, the format
// the ADMIN_APARTMENTS setting uses.
func ParseAdminApartments(raw string) []string {
	parts := strings.Split(raw, ",")
	admins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		admins = append(admins, p)
	}
	return admins
}

func (c Config) String() string {
	return fmt.Sprintf("data_dir=%s admins=%d telegram=%t", c.DataDir, len(c.AdminApartments), c.TelegramBotToken != "")
}
