package daemoncfg

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// testINI is a valid INI config file.
const testINI = `
[credentials]
username = alice
password = s3cret

[settings]
portal_url = https://10.0.0.1:8090/httpclient.html
connectivity_check_url = http://connectivity.example.com/generate_204
check_interval = 45
retry_delay = 7
`

// writeTestConfig writes content to a config file with name in a temporary
// directory and returns the file path.
func writeTestConfig(t *testing.T, name, content string) string {
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return file
}

// TestCredentialsValid tests Valid of Credentials.
func TestCredentialsValid(t *testing.T) {
	// test invalid
	for _, invalid := range []*Credentials{
		nil,
		{},
		{Username: "alice"},
		{Password: "s3cret"},
		NewCredentials(),
		{Username: "YOUR_USERNAME_HERE", Password: "s3cret"},
		{Username: "alice", Password: "YOUR_PASSWORD_HERE"},
	} {
		if invalid.Valid() {
			t.Errorf("credentials should be invalid: %v", invalid)
		}
	}

	// test valid
	valid := &Credentials{Username: "alice", Password: "s3cret"}
	if !valid.Valid() {
		t.Errorf("credentials should be valid: %v", valid)
	}
}

// TestSettingsValid tests Valid of Settings.
func TestSettingsValid(t *testing.T) {
	// test invalid
	noScheme := NewSettings()
	noScheme.PortalURL = "10.0.0.1/httpclient.html"
	badScheme := NewSettings()
	badScheme.ConnectivityCheckURL = "ftp://example.com/"
	zeroInterval := NewSettings()
	zeroInterval.CheckInterval = 0
	negativeDelay := NewSettings()
	negativeDelay.RetryDelay = -time.Second
	zeroTimeout := NewSettings()
	zeroTimeout.LoginTimeout = 0

	for _, invalid := range []*Settings{
		nil,
		{},
		noScheme,
		badScheme,
		zeroInterval,
		negativeDelay,
		zeroTimeout,
	} {
		if invalid.Valid() {
			t.Errorf("settings should be invalid: %v", invalid)
		}
	}

	// test valid
	if !NewSettings().Valid() {
		t.Error("new settings should be valid")
	}
}

// TestLoggingValid tests Valid of Logging.
func TestLoggingValid(t *testing.T) {
	badLevel := NewLogging()
	badLevel.Level = "loud"
	badFormat := NewLogging()
	badFormat.Format = "xml"
	badBody := NewLogging()
	badBody.ResponseBody = "some"
	badLimit := NewLogging()
	badLimit.ResponseBodyLimit = -1

	for _, invalid := range []*Logging{
		nil,
		{},
		badLevel,
		badFormat,
		badBody,
		badLimit,
	} {
		if invalid.Valid() {
			t.Errorf("logging should be invalid: %v", invalid)
		}
	}

	if !NewLogging().Valid() {
		t.Error("new logging should be valid")
	}
}

// TestConfigCheck tests Check of Config.
func TestConfigCheck(t *testing.T) {
	// new config has placeholder credentials
	c := NewConfig()
	if err := c.Check(); !errors.Is(err, ErrPlaceholderCredentials) {
		t.Errorf("got %v, want %v", err, ErrPlaceholderCredentials)
	}
	if c.Valid() {
		t.Error("new config should not be valid")
	}

	// set credentials
	c.Credentials.Username = "alice"
	c.Credentials.Password = "s3cret"
	if err := c.Check(); err != nil {
		t.Errorf("got %v, want nil", err)
	}

	// invalid settings
	c.Settings.RetryDelay = 0
	if err := c.Check(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want %v", err, ErrInvalid)
	}

	// empty credentials
	c.Settings.RetryDelay = SettingsRetryDelay
	c.Credentials.Password = ""
	if err := c.Check(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want %v", err, ErrInvalid)
	}
	c.Credentials = nil
	if err := c.Check(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want %v", err, ErrInvalid)
	}

	// nil config
	var n *Config
	if err := n.Check(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want %v", err, ErrInvalid)
	}
}

// TestConfigCopy tests Copy of Config.
func TestConfigCopy(t *testing.T) {
	want := NewConfig()
	got := want.Copy()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got.Credentials.Username = "bob"
	if want.Credentials.Username == "bob" {
		t.Error("copy should not share credentials")
	}
}

// TestConfigString tests String of Config.
func TestConfigString(t *testing.T) {
	c := NewConfig()
	c.Credentials.Password = "s3cret"
	s := c.String()
	if strings.Contains(s, "s3cret") {
		t.Errorf("password should be masked: %s", s)
	}
	if !strings.Contains(s, c.Settings.PortalURL) {
		t.Errorf("portal url missing: %s", s)
	}
}

// TestConfigLoad tests Load of Config.
func TestConfigLoad(t *testing.T) {
	c := NewConfig()
	c.Config = writeTestConfig(t, "config.ini", testINI)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}

	want := NewConfig()
	want.Config = c.Config
	want.Credentials = &Credentials{Username: "alice", Password: "s3cret"}
	want.Settings.PortalURL = "https://10.0.0.1:8090/httpclient.html"
	want.Settings.ConnectivityCheckURL = "http://connectivity.example.com/generate_204"
	want.Settings.CheckInterval = 45 * time.Second
	want.Settings.RetryDelay = 7 * time.Second
	if !reflect.DeepEqual(c, want) {
		t.Errorf("got %v, want %v", c, want)
	}

	// defaults of optional settings
	if c.Settings.StabilizationDelay != 10*time.Second ||
		c.Settings.ConnectivityTimeout != 10*time.Second ||
		c.Settings.PortalTimeout != 10*time.Second ||
		c.Settings.LoginTimeout != 15*time.Second {

		t.Errorf("unexpected default timings: %v", c.Settings)
	}
}

// TestConfigLoadOptional tests Load of Config with optional keys.
func TestConfigLoadOptional(t *testing.T) {
	c := NewConfig()
	c.Config = writeTestConfig(t, "config.ini", testINI+`
stabilization_delay = 3
login_timeout = 20
user_agent = test-agent
wake_on_resume = false

[logging]
verbose = true
file =
response_body = none
`)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	if c.Settings.StabilizationDelay != 3*time.Second ||
		c.Settings.LoginTimeout != 20*time.Second ||
		c.Settings.UserAgent != "test-agent" ||
		c.Settings.WakeOnResume ||
		!c.Settings.WakeOnLinkChange ||
		!c.Verbose ||
		c.Logging.File != "" ||
		c.Logging.ResponseBody != ResponseBodyNone {

		t.Errorf("unexpected config: %v", c)
	}
}

// TestConfigLoadErrors tests Load of Config, errors.
func TestConfigLoadErrors(t *testing.T) {
	// missing file
	c := NewConfig()
	c.Config = filepath.Join(t.TempDir(), "does-not-exist.ini")
	if err := c.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want %v", err, os.ErrNotExist)
	}

	// missing key
	c = NewConfig()
	c.Config = writeTestConfig(t, "config.ini",
		strings.Replace(testINI, "retry_delay = 7", "", 1))
	err := c.Load()
	if !errors.Is(err, ErrMissingKey) ||
		!strings.Contains(err.Error(), "settings.retry_delay") {

		t.Errorf("got %v, want %v", err, ErrMissingKey)
	}

	// malformed integer
	c = NewConfig()
	c.Config = writeTestConfig(t, "config.ini",
		strings.Replace(testINI, "check_interval = 45", "check_interval = soon", 1))
	if err := c.Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want %v", err, ErrInvalid)
	}

	// zero delay
	c = NewConfig()
	c.Config = writeTestConfig(t, "config.ini",
		strings.Replace(testINI, "retry_delay = 7", "retry_delay = 0", 1))
	if err := c.Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want %v", err, ErrInvalid)
	}

	// seconds that do not fit into a duration
	for _, r := range []*strings.Replacer{
		strings.NewReplacer("check_interval = 45", "check_interval = 18446744074"),
		strings.NewReplacer("retry_delay = 7", "retry_delay = 9223372037"),
		strings.NewReplacer("retry_delay = 7", "retry_delay = 7\nlogin_timeout = 9223372037"),
	} {
		c = NewConfig()
		c.Config = writeTestConfig(t, "config.ini", r.Replace(testINI))
		err := c.Load()
		if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "out of range") {
			t.Errorf("got %v, want %v", err, ErrInvalid)
		}
	}

	// same in yaml
	c = NewConfig()
	c.Config = writeTestConfig(t, "config.yaml", `
credentials: {username: alice, password: s3cret}
settings:
  portal_url: https://10.0.0.1:8090/httpclient.html
  connectivity_check_url: http://connectivity.example.com/generate_204
  check_interval: 18446744074
  retry_delay: 7
`)
	if err := c.Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want %v", err, ErrInvalid)
	}

	// placeholder credentials
	for _, r := range []*strings.Replacer{
		strings.NewReplacer("username = alice", "username = YOUR_USERNAME_HERE"),
		strings.NewReplacer("password = s3cret", "password = YOUR_PASSWORD_HERE"),
	} {
		c = NewConfig()
		c.Config = writeTestConfig(t, "config.ini", r.Replace(testINI))
		if err := c.Load(); !errors.Is(err, ErrPlaceholderCredentials) {
			t.Errorf("got %v, want %v", err, ErrPlaceholderCredentials)
		}
	}

	// broken yaml and json
	for name, content := range map[string]string{
		"config.yaml": "credentials: [",
		"config.json": "{",
	} {
		c = NewConfig()
		c.Config = writeTestConfig(t, name, content)
		if err := c.Load(); err == nil {
			t.Errorf("%s: load should fail", name)
		}
	}
}

// TestConfigLoadFormats tests Load of Config with all file formats.
func TestConfigLoadFormats(t *testing.T) {
	want := NewConfig()
	want.Credentials = &Credentials{Username: "alice", Password: "s3cret"}
	want.Settings.RetryDelay = 5 * time.Second
	want.Logging.ResponseBodyLimit = 64

	for _, format := range []string{FormatINI, FormatYAML, FormatJSON} {
		b, err := want.Marshal(format)
		if err != nil {
			t.Fatal(err)
		}
		file := writeTestConfig(t, "config."+format, string(b))

		got := NewConfig()
		got.Config = file
		if err := got.Load(); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		want.Config = file
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: got %v, want %v", format, got, want)
		}
	}

	// unknown format
	if _, err := want.Marshal("toml"); err == nil {
		t.Error("marshal should fail for unknown format")
	}
}

// TestFormatOf tests formatOf.
func TestFormatOf(t *testing.T) {
	for file, want := range map[string]string{
		"config.ini":          FormatINI,
		"/etc/autologin.conf": FormatINI,
		"config.yaml":         FormatYAML,
		"config.YML":          FormatYAML,
		"config.json":         FormatJSON,
	} {
		got := formatOf(file)
		if got != want {
			t.Errorf("%s: got %s, want %s", file, got, want)
		}
	}
}

// TestNewConfig tests NewConfig.
func TestNewConfig(t *testing.T) {
	c := NewConfig()
	if c.Config != ConfigFile ||
		c.Credentials == nil ||
		c.Settings == nil ||
		c.Logging == nil {

		t.Errorf("unexpected new config: %v", c)
	}
	if !c.Settings.Valid() || !c.Logging.Valid() {
		t.Error("new settings and logging should be valid")
	}
}
