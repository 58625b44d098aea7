// Package cpd contains the connectivity probe that detects whether the path
// to the internet is blocked by a captive portal.
package cpd

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/outcome"
)

// maxBody is the maximum number of body bytes read from a probe response.
const maxBody = 64 * 1024

// CPD is a connectivity probe.
type CPD struct {
	config *Config
	client *http.Client
	log    logrus.FieldLogger
}

// check probes the http server and returns the status code and body length
// of the response.
func (c *CPD) check(ctx context.Context) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.HTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, len(b), err
	}
	return resp.StatusCode, len(b), nil
}

// Probe checks if the internet is reachable. The result is up only if the
// server responds with 204 and an empty body, a captive portal answers with
// a redirect, a login page or not at all.
func (c *CPD) Probe(ctx context.Context) outcome.Connectivity {
	status, length, err := c.check(ctx)
	if err != nil {
		c.log.WithError(err).WithField("url", c.config.URL).
			Warn("CPD connectivity check failed, internet is down")
		return outcome.ConnectivityDown
	}

	if status != http.StatusNoContent || length != 0 {
		c.log.WithFields(logrus.Fields{
			"status": status,
			"body":   length,
		}).Warn("CPD got unexpected response, internet is down")
		return outcome.ConnectivityDown
	}

	c.log.Info("CPD connectivity check succeeded, internet is up")
	return outcome.ConnectivityUp
}

// Host returns the host address used for the connectivity probe.
func (c *CPD) Host() string {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// NewCPD returns a new CPD.
func NewCPD(config *Config, logger logrus.FieldLogger) *CPD {
	return &CPD{
		config: config,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: logger,
	}
}
