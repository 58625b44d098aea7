package portal

import (
	"time"

	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
)

// UserAgent is the default User-Agent of login requests.
var UserAgent = "portal-autologin"

// Config is the configuration of the portal probe and authenticator.
type Config struct {
	URL      string
	Username string
	Password string

	ProbeTimeout time.Duration
	LoginTimeout time.Duration

	UserAgent string

	// ResponseBody is the logging mode of the response body after a failed
	// login, ResponseBodyLimit limits its length in redact mode.
	ResponseBody      string
	ResponseBodyLimit int
}

// Valid returns whether the portal configuration is valid.
func (c *Config) Valid() bool {
	if c == nil ||
		c.URL == "" ||
		c.Username == "" ||
		c.ProbeTimeout <= 0 ||
		c.LoginTimeout <= 0 ||
		c.ResponseBodyLimit < 0 {

		return false
	}
	return true
}

// NewConfig returns a new portal configuration from the daemon configuration.
func NewConfig(config *daemoncfg.Config) *Config {
	userAgent := config.Settings.UserAgent
	if userAgent == "" {
		userAgent = UserAgent
	}
	return &Config{
		URL:      config.Settings.PortalURL,
		Username: config.Credentials.Username,
		Password: config.Credentials.Password,

		ProbeTimeout: config.Settings.PortalTimeout,
		LoginTimeout: config.Settings.LoginTimeout,

		UserAgent: userAgent,

		ResponseBody:      config.Logging.ResponseBody,
		ResponseBodyLimit: config.Logging.ResponseBodyLimit,
	}
}
