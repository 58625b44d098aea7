package daemoncfg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config file formats.
const (
	FormatINI  = "ini"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// fileCredentials is the credentials section of the config file.
type fileCredentials struct {
	Username *string `json:"username,omitempty" yaml:"username,omitempty"`
	Password *string `json:"password,omitempty" yaml:"password,omitempty"`
}

// fileSettings is the settings section of the config file, all intervals,
// delays and timeouts are in seconds.
type fileSettings struct {
	PortalURL            *string `json:"portal_url,omitempty" yaml:"portal_url,omitempty"`
	ConnectivityCheckURL *string `json:"connectivity_check_url,omitempty" yaml:"connectivity_check_url,omitempty"`
	CheckInterval        *int    `json:"check_interval,omitempty" yaml:"check_interval,omitempty"`
	RetryDelay           *int    `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`
	StabilizationDelay   *int    `json:"stabilization_delay,omitempty" yaml:"stabilization_delay,omitempty"`
	ConnectivityTimeout  *int    `json:"connectivity_timeout,omitempty" yaml:"connectivity_timeout,omitempty"`
	PortalTimeout        *int    `json:"portal_timeout,omitempty" yaml:"portal_timeout,omitempty"`
	LoginTimeout         *int    `json:"login_timeout,omitempty" yaml:"login_timeout,omitempty"`
	UserAgent            *string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	WakeOnResume         *bool   `json:"wake_on_resume,omitempty" yaml:"wake_on_resume,omitempty"`
	WakeOnLinkChange     *bool   `json:"wake_on_link_change,omitempty" yaml:"wake_on_link_change,omitempty"`
	WatchConfig          *bool   `json:"watch_config,omitempty" yaml:"watch_config,omitempty"`
}

// fileLogging is the logging section of the config file.
type fileLogging struct {
	Verbose           *bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	File              *string `json:"file,omitempty" yaml:"file,omitempty"`
	Level             *string `json:"level,omitempty" yaml:"level,omitempty"`
	Format            *string `json:"format,omitempty" yaml:"format,omitempty"`
	ResponseBody      *string `json:"response_body,omitempty" yaml:"response_body,omitempty"`
	ResponseBodyLimit *int    `json:"response_body_limit,omitempty" yaml:"response_body_limit,omitempty"`
}

// fileConfig is the content of a config file. It is the same for all
// formats, the INI sections are the top level keys.
type fileConfig struct {
	Credentials fileCredentials `json:"credentials" yaml:"credentials"`
	Settings    fileSettings    `json:"settings" yaml:"settings"`
	Logging     fileLogging     `json:"logging" yaml:"logging"`
}

// sections returns the sections of f by name.
func (f *fileConfig) sections() []struct {
	name string
	ptr  any
} {
	return []struct {
		name string
		ptr  any
	}{
		{"credentials", &f.Credentials},
		{"settings", &f.Settings},
		{"logging", &f.Logging},
	}
}

// keyName returns the config file key name of field.
func keyName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
	return name
}

// formatOf returns the config file format of file based on its extension.
func formatOf(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return FormatINI
}

// parseINISection sets the fields of the section struct in ptr from the
// keys in sec.
func parseINISection(sec *ini.Section, ptr any) error {
	v := reflect.ValueOf(ptr).Elem()
	for i := 0; i < v.NumField(); i++ {
		name := keyName(v.Type().Field(i))
		if !sec.HasKey(name) {
			continue
		}
		key := sec.Key(name)
		field := v.Field(i)
		switch field.Type().Elem().Kind() {
		case reflect.String:
			s := key.String()
			field.Set(reflect.ValueOf(&s))
		case reflect.Int:
			n, err := key.Int()
			if err != nil {
				return fmt.Errorf("%w: %s.%s is not an integer",
					ErrInvalid, sec.Name(), name)
			}
			field.Set(reflect.ValueOf(&n))
		case reflect.Bool:
			b, err := key.Bool()
			if err != nil {
				return fmt.Errorf("%w: %s.%s is not a boolean",
					ErrInvalid, sec.Name(), name)
			}
			field.Set(reflect.ValueOf(&b))
		}
	}
	return nil
}

// parseINI parses the INI config file content in b.
func parseINI(b []byte) (*fileConfig, error) {
	// no inline comments, passwords may contain "#" or ";"
	i, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		InsensitiveKeys:     true,
	}, b)
	if err != nil {
		return nil, err
	}
	f := &fileConfig{}
	for _, s := range f.sections() {
		if !i.HasSection(s.name) {
			continue
		}
		if err := parseINISection(i.Section(s.name), s.ptr); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// parse parses the config file content in b in format.
func parse(format string, b []byte) (*fileConfig, error) {
	switch format {
	case FormatYAML:
		f := &fileConfig{}
		if err := yaml.Unmarshal(b, f); err != nil {
			return nil, err
		}
		return f, nil
	case FormatJSON:
		f := &fileConfig{}
		if err := json.Unmarshal(b, f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return parseINI(b)
}

// maxSeconds is the largest number of seconds a duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// seconds converts s seconds to a duration.
func seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// apply sets the values in f in the configuration, required keys must be
// present in f.
func (c *Config) apply(f *fileConfig) error {
	for key, missing := range map[string]bool{
		"credentials.username":            f.Credentials.Username == nil,
		"credentials.password":            f.Credentials.Password == nil,
		"settings.portal_url":             f.Settings.PortalURL == nil,
		"settings.connectivity_check_url": f.Settings.ConnectivityCheckURL == nil,
		"settings.check_interval":         f.Settings.CheckInterval == nil,
		"settings.retry_delay":            f.Settings.RetryDelay == nil,
	} {
		if missing {
			return fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}
	for key, value := range map[string]*int{
		"settings.check_interval":       f.Settings.CheckInterval,
		"settings.retry_delay":          f.Settings.RetryDelay,
		"settings.stabilization_delay":  f.Settings.StabilizationDelay,
		"settings.connectivity_timeout": f.Settings.ConnectivityTimeout,
		"settings.portal_timeout":       f.Settings.PortalTimeout,
		"settings.login_timeout":        f.Settings.LoginTimeout,
	} {
		if value != nil && (int64(*value) > maxSeconds || int64(*value) < -maxSeconds) {
			return fmt.Errorf("%w: %s is out of range", ErrInvalid, key)
		}
	}

	// credentials
	c.Credentials.Username = *f.Credentials.Username
	c.Credentials.Password = *f.Credentials.Password

	// settings
	s := c.Settings
	s.PortalURL = *f.Settings.PortalURL
	s.ConnectivityCheckURL = *f.Settings.ConnectivityCheckURL
	s.CheckInterval = seconds(*f.Settings.CheckInterval)
	s.RetryDelay = seconds(*f.Settings.RetryDelay)
	if f.Settings.StabilizationDelay != nil {
		s.StabilizationDelay = seconds(*f.Settings.StabilizationDelay)
	}
	if f.Settings.ConnectivityTimeout != nil {
		s.ConnectivityTimeout = seconds(*f.Settings.ConnectivityTimeout)
	}
	if f.Settings.PortalTimeout != nil {
		s.PortalTimeout = seconds(*f.Settings.PortalTimeout)
	}
	if f.Settings.LoginTimeout != nil {
		s.LoginTimeout = seconds(*f.Settings.LoginTimeout)
	}
	if f.Settings.UserAgent != nil {
		s.UserAgent = *f.Settings.UserAgent
	}
	if f.Settings.WakeOnResume != nil {
		s.WakeOnResume = *f.Settings.WakeOnResume
	}
	if f.Settings.WakeOnLinkChange != nil {
		s.WakeOnLinkChange = *f.Settings.WakeOnLinkChange
	}
	if f.Settings.WatchConfig != nil {
		s.WatchConfig = *f.Settings.WatchConfig
	}

	// logging
	l := c.Logging
	if f.Logging.Verbose != nil {
		c.Verbose = *f.Logging.Verbose
	}
	if f.Logging.File != nil {
		l.File = *f.Logging.File
	}
	if f.Logging.Level != nil {
		l.Level = *f.Logging.Level
	}
	if f.Logging.Format != nil {
		l.Format = *f.Logging.Format
	}
	if f.Logging.ResponseBody != nil {
		l.ResponseBody = *f.Logging.ResponseBody
	}
	if f.Logging.ResponseBodyLimit != nil {
		l.ResponseBodyLimit = *f.Logging.ResponseBodyLimit
	}

	return nil
}

// file returns the configuration as config file content.
func (c *Config) file() *fileConfig {
	str := func(s string) *string { return &s }
	sec := func(d time.Duration) *int { n := int(d / time.Second); return &n }
	num := func(n int) *int { return &n }
	flag := func(b bool) *bool { return &b }

	s := c.Settings
	l := c.Logging
	return &fileConfig{
		Credentials: fileCredentials{
			Username: str(c.Credentials.Username),
			Password: str(c.Credentials.Password),
		},
		Settings: fileSettings{
			PortalURL:            str(s.PortalURL),
			ConnectivityCheckURL: str(s.ConnectivityCheckURL),
			CheckInterval:        sec(s.CheckInterval),
			RetryDelay:           sec(s.RetryDelay),
			StabilizationDelay:   sec(s.StabilizationDelay),
			ConnectivityTimeout:  sec(s.ConnectivityTimeout),
			PortalTimeout:        sec(s.PortalTimeout),
			LoginTimeout:         sec(s.LoginTimeout),
			UserAgent:            str(s.UserAgent),
			WakeOnResume:         flag(s.WakeOnResume),
			WakeOnLinkChange:     flag(s.WakeOnLinkChange),
			WatchConfig:          flag(s.WatchConfig),
		},
		Logging: fileLogging{
			Verbose:           flag(c.Verbose),
			File:              str(l.File),
			Level:             str(l.Level),
			Format:            str(l.Format),
			ResponseBody:      str(l.ResponseBody),
			ResponseBodyLimit: num(l.ResponseBodyLimit),
		},
	}
}

// marshalJSON is json.MarshalIndent for config files.
func marshalJSON(f *fileConfig) ([]byte, error) {
	return json.MarshalIndent(f, "", "    ")
}

// marshalINI returns f as INI file content.
func marshalINI(f *fileConfig) ([]byte, error) {
	i := ini.Empty()
	for _, s := range f.sections() {
		sec, err := i.NewSection(s.name)
		if err != nil {
			return nil, err
		}
		v := reflect.ValueOf(s.ptr).Elem()
		for j := 0; j < v.NumField(); j++ {
			field := v.Field(j)
			if field.IsNil() {
				continue
			}
			value := ""
			switch e := field.Elem(); e.Kind() {
			case reflect.String:
				value = e.String()
			case reflect.Int:
				value = strconv.FormatInt(e.Int(), 10)
			case reflect.Bool:
				value = strconv.FormatBool(e.Bool())
			}
			name := keyName(v.Type().Field(j))
			if _, err := sec.NewKey(name, value); err != nil {
				return nil, err
			}
		}
	}

	var b bytes.Buffer
	if _, err := i.WriteTo(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Marshal returns the configuration as config file content in format.
func (c *Config) Marshal(format string) ([]byte, error) {
	f := c.file()
	switch format {
	case FormatINI:
		return marshalINI(f)
	case FormatYAML:
		return yaml.Marshal(f)
	case FormatJSON:
		return marshalJSON(f)
	}
	return nil, fmt.Errorf("unknown config format %q", format)
}
