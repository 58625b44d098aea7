package cpd

import (
	"time"

	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
)

// Config is the configuration of the connectivity probe.
type Config struct {
	URL         string
	HTTPTimeout time.Duration
}

// Valid returns whether the connectivity probe configuration is valid.
func (c *Config) Valid() bool {
	if c == nil ||
		c.URL == "" ||
		c.HTTPTimeout <= 0 {

		return false
	}
	return true
}

// NewConfig returns a new configuration for the connectivity probe from the
// daemon settings.
func NewConfig(settings *daemoncfg.Settings) *Config {
	return &Config{
		URL:         settings.ConnectivityCheckURL,
		HTTPTimeout: settings.ConnectivityTimeout,
	}
}
