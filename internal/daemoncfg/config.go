// Package daemoncfg contains the daemon configuration.
package daemoncfg

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPlaceholderCredentials is returned when the credentials still
	// contain the placeholder values of the sample configuration.
	ErrPlaceholderCredentials = errors.New("credentials contain placeholder values")

	// ErrMissingKey is returned when a required key is missing in the
	// configuration file.
	ErrMissingKey = errors.New("missing required key")

	// ErrInvalid is returned when a configuration value is invalid.
	ErrInvalid = errors.New("invalid configuration value")
)

// Credentials default values.
var (
	// PlaceholderUsername is the username placeholder of the sample config.
	PlaceholderUsername = "YOUR_USERNAME_HERE"

	// PlaceholderPassword is the password placeholder of the sample config.
	PlaceholderPassword = "YOUR_PASSWORD_HERE"
)

// Credentials are the credentials used for the portal login.
type Credentials struct {
	Username string
	Password string
}

// Copy returns a copy of the credentials.
func (c *Credentials) Copy() *Credentials {
	n := *c
	return &n
}

// Placeholder returns whether the credentials contain placeholder values.
func (c *Credentials) Placeholder() bool {
	return strings.Contains(c.Username, PlaceholderUsername) ||
		strings.Contains(c.Password, PlaceholderPassword)
}

// Valid returns whether the credentials are valid.
func (c *Credentials) Valid() bool {
	if c == nil ||
		c.Username == "" ||
		c.Password == "" ||
		c.Placeholder() {

		return false
	}
	return true
}

// NewCredentials returns new placeholder credentials.
func NewCredentials() *Credentials {
	return &Credentials{
		Username: PlaceholderUsername,
		Password: PlaceholderPassword,
	}
}

// Settings default values.
var (
	// SettingsPortalURL is the landing page of the captive portal.
	SettingsPortalURL = "https://172.16.16.16:8090/httpclient.html"

	// SettingsConnectivityCheckURL returns an empty 204 response when the
	// internet is reachable.
	SettingsConnectivityCheckURL = "http://clients3.google.com/generate_204"

	// SettingsCheckInterval is the time between checks while online.
	SettingsCheckInterval = 60 * time.Second

	// SettingsRetryDelay is the time between checks and login attempts
	// while offline.
	SettingsRetryDelay = 30 * time.Second

	// SettingsStabilizationDelay is the time to wait after a successful
	// login.
	SettingsStabilizationDelay = 10 * time.Second

	// SettingsConnectivityTimeout is the timeout of the connectivity check.
	SettingsConnectivityTimeout = 10 * time.Second

	// SettingsPortalTimeout is the timeout of the portal check.
	SettingsPortalTimeout = 10 * time.Second

	// SettingsLoginTimeout is the timeout of the login request.
	SettingsLoginTimeout = 15 * time.Second

	// SettingsUserAgent is the User-Agent of login requests, empty means
	// the program name and version.
	SettingsUserAgent = ""

	// SettingsWakeOnResume specifies whether a resume from suspend
	// triggers an immediate check.
	SettingsWakeOnResume = true

	// SettingsWakeOnLinkChange specifies whether a network link coming up
	// triggers an immediate check.
	SettingsWakeOnLinkChange = true

	// SettingsWatchConfig specifies whether changes of the config file are
	// reported.
	SettingsWatchConfig = true
)

// Settings are the portal and timing settings.
type Settings struct {
	PortalURL            string
	ConnectivityCheckURL string

	CheckInterval      time.Duration
	RetryDelay         time.Duration
	StabilizationDelay time.Duration

	ConnectivityTimeout time.Duration
	PortalTimeout       time.Duration
	LoginTimeout        time.Duration

	UserAgent string

	WakeOnResume     bool
	WakeOnLinkChange bool
	WatchConfig      bool
}

// Copy returns a copy of the settings.
func (s *Settings) Copy() *Settings {
	n := *s
	return &n
}

// validURL returns whether u is an absolute http or https URL.
func validURL(u string) bool {
	p, err := url.Parse(u)
	if err != nil {
		return false
	}
	if p.Scheme != "http" && p.Scheme != "https" {
		return false
	}
	return p.Host != ""
}

// Valid returns whether the settings are valid.
func (s *Settings) Valid() bool {
	if s == nil ||
		!validURL(s.PortalURL) ||
		!validURL(s.ConnectivityCheckURL) ||
		s.CheckInterval <= 0 ||
		s.RetryDelay <= 0 ||
		s.StabilizationDelay <= 0 ||
		s.ConnectivityTimeout <= 0 ||
		s.PortalTimeout <= 0 ||
		s.LoginTimeout <= 0 {

		return false
	}
	return true
}

// NewSettings returns new default settings.
func NewSettings() *Settings {
	return &Settings{
		PortalURL:            SettingsPortalURL,
		ConnectivityCheckURL: SettingsConnectivityCheckURL,

		CheckInterval:      SettingsCheckInterval,
		RetryDelay:         SettingsRetryDelay,
		StabilizationDelay: SettingsStabilizationDelay,

		ConnectivityTimeout: SettingsConnectivityTimeout,
		PortalTimeout:       SettingsPortalTimeout,
		LoginTimeout:        SettingsLoginTimeout,

		UserAgent: SettingsUserAgent,

		WakeOnResume:     SettingsWakeOnResume,
		WakeOnLinkChange: SettingsWakeOnLinkChange,
		WatchConfig:      SettingsWatchConfig,
	}
}

// Response body logging modes.
const (
	ResponseBodyFull   = "full"
	ResponseBodyRedact = "redact"
	ResponseBodyNone   = "none"
)

// Logging default values.
var (
	// LoggingFile is the log file, empty disables file logging.
	LoggingFile = "autologin.log"

	// LoggingLevel is the log level.
	LoggingLevel = "info"

	// LoggingFormat is the log format, "text" or "json".
	LoggingFormat = "text"

	// LoggingResponseBody is the logging mode of portal responses after a
	// failed login.
	LoggingResponseBody = ResponseBodyRedact

	// LoggingResponseBodyLimit is the maximum number of logged response
	// body bytes in redact mode.
	LoggingResponseBodyLimit = 1024
)

// Logging is the logging configuration.
type Logging struct {
	File              string
	Level             string
	Format            string
	ResponseBody      string
	ResponseBodyLimit int
}

// Copy returns a copy of the logging configuration.
func (l *Logging) Copy() *Logging {
	n := *l
	return &n
}

// Valid returns whether the logging configuration is valid.
func (l *Logging) Valid() bool {
	if l == nil ||
		l.ResponseBodyLimit < 0 {

		return false
	}
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return false
	}
	switch l.Format {
	case "text", "json":
	default:
		return false
	}
	switch l.ResponseBody {
	case ResponseBodyFull, ResponseBodyRedact, ResponseBodyNone:
	default:
		return false
	}
	return true
}

// NewLogging returns a new default logging configuration.
func NewLogging() *Logging {
	return &Logging{
		File:              LoggingFile,
		Level:             LoggingLevel,
		Format:            LoggingFormat,
		ResponseBody:      LoggingResponseBody,
		ResponseBodyLimit: LoggingResponseBodyLimit,
	}
}

// Config default values.
var (
	// ConfigFile is the default config file.
	ConfigFile = "config.ini"
)

// Config is a portal-autologin configuration.
type Config struct {
	Config  string
	Verbose bool

	Credentials *Credentials
	Settings    *Settings
	Logging     *Logging
}

// Copy returns a copy of the configuration.
func (c *Config) Copy() *Config {
	return &Config{
		Config:  c.Config,
		Verbose: c.Verbose,

		Credentials: c.Credentials.Copy(),
		Settings:    c.Settings.Copy(),
		Logging:     c.Logging.Copy(),
	}
}

// String returns the configuration as string with the password masked.
func (c *Config) String() string {
	f := c.file()
	if f.Credentials.Password != nil && *f.Credentials.Password != "" {
		masked := "********"
		f.Credentials.Password = &masked
	}
	b, _ := marshalJSON(f)
	return string(b)
}

// Check returns an error that describes why the configuration is invalid.
func (c *Config) Check() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: no configuration", ErrInvalid)
	case !c.Credentials.Valid():
		if c.Credentials != nil && c.Credentials.Placeholder() {
			return ErrPlaceholderCredentials
		}
		return fmt.Errorf("%w: empty username or password", ErrInvalid)
	case c.Settings == nil:
		return fmt.Errorf("%w: no settings", ErrInvalid)
	case !validURL(c.Settings.PortalURL):
		return fmt.Errorf("%w: portal_url %q", ErrInvalid, c.Settings.PortalURL)
	case !validURL(c.Settings.ConnectivityCheckURL):
		return fmt.Errorf("%w: connectivity_check_url %q", ErrInvalid,
			c.Settings.ConnectivityCheckURL)
	case !c.Settings.Valid():
		return fmt.Errorf("%w: intervals, delays and timeouts must be "+
			"greater than 0", ErrInvalid)
	case !c.Logging.Valid():
		return fmt.Errorf("%w: logging", ErrInvalid)
	}
	return nil
}

// Valid returns whether config is valid.
func (c *Config) Valid() bool {
	return c.Check() == nil
}

// Load loads the configuration from the config file and checks it.
func (c *Config) Load() error {
	// read file contents
	b, err := os.ReadFile(c.Config)
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", c.Config, err)
	}

	// parse config
	f, err := parse(formatOf(c.Config), b)
	if err != nil {
		return fmt.Errorf("could not parse config file %s: %w", c.Config, err)
	}
	if err := c.apply(f); err != nil {
		return err
	}

	return c.Check()
}

// NewConfig returns a new Config.
func NewConfig() *Config {
	return &Config{
		Config:  ConfigFile,
		Verbose: false,

		Credentials: NewCredentials(),
		Settings:    NewSettings(),
		Logging:     NewLogging(),
	}
}
