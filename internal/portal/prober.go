package portal

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/outcome"
)

// Prober checks if the captive portal's landing page is reachable.
type Prober struct {
	config *Config
	client *http.Client
	log    logrus.FieldLogger
}

// get requests the landing page and returns the status code.
func (p *Prober) get(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	_ = resp.Body.Close()

	return resp.StatusCode, nil
}

// Probe returns whether the portal is available, i.e., the landing page
// responds with 200.
func (p *Prober) Probe(ctx context.Context) outcome.Portal {
	status, err := p.get(ctx)
	if err != nil {
		p.log.WithError(err).WithField("url", p.config.URL).
			Warn("Portal check failed, portal is not available")
		return outcome.PortalUnavailable
	}
	if status != http.StatusOK {
		p.log.WithField("status", status).
			Warn("Portal got unexpected response, portal is not available")
		return outcome.PortalUnavailable
	}

	p.log.Info("Portal is available")
	return outcome.PortalAvailable
}

// NewProber returns a new portal prober that sends requests with client.
func NewProber(config *Config, client *http.Client, logger logrus.FieldLogger) *Prober {
	return &Prober{
		config: config,
		client: client,
		log:    logger,
	}
}
