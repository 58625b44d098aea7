package portal

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
	"github.com/telekom-mms/portal-autologin/internal/outcome"
)

const (
	// loginPage is the login page of the portal, it replaces the landing
	// page httpclient.html in the portal url.
	loginPage = "login.xml"

	// loginMode is the portal's authentication mode for user login.
	loginMode = "191"

	// loginSuccess is the text in the portal's response to a successful
	// login. The response is not parsed as XML, the format differs between
	// firmware versions.
	loginSuccess = "Login Successful"

	// maxBody is the maximum number of body bytes read from a portal
	// response.
	maxBody = 64 * 1024

	// redacted replaces the password in logged responses.
	redacted = "[REDACTED]"
)

// LoginURL returns the login url of the portal with the landing page url
// portalURL, e.g., "https://10.0.0.1:8090/httpclient.html" becomes
// "https://10.0.0.1:8090/login.xml".
func LoginURL(portalURL string) (string, error) {
	u, err := url.Parse(portalURL)
	if err != nil {
		return "", err
	}

	dir := path.Dir(u.Path)
	if !strings.HasPrefix(dir, "/") {
		dir = "/"
	}
	u.Path = path.Join(dir, loginPage)
	u.RawPath = ""

	return u.String(), nil
}

// LoginRequest is a login request for the portal.
type LoginRequest struct {
	Username string
	Password string
	Time     time.Time
}

// Form returns the login request as form values.
func (l *LoginRequest) Form() url.Values {
	return url.Values{
		"mode":     {loginMode},
		"username": {l.Username},
		"password": {l.Password},
		"a":        {strconv.FormatInt(l.Time.UnixMilli(), 10)},
	}
}

// NewLoginRequest returns a new login request with username and password at
// time now.
func NewLoginRequest(username, password string, now time.Time) *LoginRequest {
	return &LoginRequest{
		Username: username,
		Password: password,
		Time:     now,
	}
}

// Authenticator logs into the captive portal.
type Authenticator struct {
	config *Config
	client *http.Client
	log    logrus.FieldLogger

	// now returns the current time
	now func() time.Time
}

// post sends the login form to loginURL and returns the status code and the
// body of the response.
func (a *Authenticator) post(ctx context.Context, loginURL string, form url.Values) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.LoginTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", a.config.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, string(b), nil
}

// responseBody returns body prepared for logging and whether it should be
// logged at all.
func (a *Authenticator) responseBody(body string) (string, bool) {
	switch a.config.ResponseBody {
	case daemoncfg.ResponseBodyFull:
		return body, true
	case daemoncfg.ResponseBodyNone:
		return "", false
	}

	// redact the password and the forms a portal may echo it in
	if p := a.config.Password; p != "" {
		for _, s := range []string{
			p,
			url.QueryEscape(p),
			url.PathEscape(p),
			html.EscapeString(p),
		} {
			body = strings.ReplaceAll(body, s, redacted)
		}
	}
	limit := a.config.ResponseBodyLimit
	if limit > 0 && len(body) > limit {
		for limit > 0 && !utf8.RuneStart(body[limit]) {
			limit--
		}
		body = body[:limit] + "..."
	}
	return body, true
}

// Login submits the credentials to the portal. The result is success only
// if the portal responds with 200 and the success message.
func (a *Authenticator) Login(ctx context.Context) outcome.Auth {
	loginURL, err := LoginURL(a.config.URL)
	if err != nil {
		a.log.WithError(err).WithField("url", a.config.URL).
			Error("Portal could not get login url")
		return outcome.AuthFailure
	}

	a.log.WithField("username", a.config.Username).
		Info("Portal attempting login")
	req := NewLoginRequest(a.config.Username, a.config.Password, a.now())
	status, body, err := a.post(ctx, loginURL, req.Form())
	if err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"url":    loginURL,
			"reason": "transport",
		}).Error("Portal login request failed")
		return outcome.AuthFailure
	}

	if status == http.StatusOK && strings.Contains(body, loginSuccess) {
		a.log.Info("Portal login successful")
		return outcome.AuthSuccess
	}

	fields := logrus.Fields{
		"status": status,
		"reason": "rejected",
	}
	if b, ok := a.responseBody(body); ok {
		fields["response"] = b
	}
	a.log.WithFields(fields).Error("Portal login failed")
	return outcome.AuthFailure
}

// NewAuthenticator returns a new authenticator that sends requests with
// client.
func NewAuthenticator(config *Config, client *http.Client, logger logrus.FieldLogger) *Authenticator {
	return &Authenticator{
		config: config,
		client: client,
		log:    logger,
		now:    time.Now,
	}
}
