// Package daemon contains the captive portal auto-login daemon.
package daemon

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/configmon"
	"github.com/telekom-mms/portal-autologin/internal/cpd"
	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
	"github.com/telekom-mms/portal-autologin/internal/devmon"
	"github.com/telekom-mms/portal-autologin/internal/outcome"
	"github.com/telekom-mms/portal-autologin/internal/portal"
	"github.com/telekom-mms/portal-autologin/internal/sleepmon"
)

// ConnectivityProber checks if the internet is reachable.
type ConnectivityProber interface {
	Probe(ctx context.Context) outcome.Connectivity
}

// PortalProber checks if the captive portal is reachable.
type PortalProber interface {
	Probe(ctx context.Context) outcome.Portal
}

// Authenticator logs into the captive portal.
type Authenticator interface {
	Login(ctx context.Context) outcome.Auth
}

// Daemon is used to run the daemon.
type Daemon struct {
	config *daemoncfg.Config
	log    logrus.FieldLogger

	cpdConfig    *cpd.Config
	portalConfig *portal.Config
	checkHost    string

	cpd    ConnectivityProber
	portal PortalProber
	auth   Authenticator

	sleepmon  *sleepmon.SleepMon
	devmon    *devmon.DevMon
	configmon *configmon.ConfigMon

	// stops are the stop functions of the started monitors
	stops []func()

	// wake ends the current wait early
	wake chan struct{}

	// wait waits for a delay, it is replaced in tests
	wait func(ctx context.Context, delay time.Duration) error
}

// delay returns the duration of w.
func (d *Daemon) delay(w Wait) time.Duration {
	switch w {
	case WaitCheckInterval:
		return d.config.Settings.CheckInterval
	case WaitRetryDelay:
		return d.config.Settings.RetryDelay
	case WaitStabilize:
		return d.config.Settings.StabilizationDelay
	}
	return 0
}

// sleep waits for delay, until the daemon is woken up or ctx is done.
func (d *Daemon) sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-d.wake:
		d.log.Debug("Daemon woken up before end of delay")
		return nil
	}
}

// wakeUp ends the current wait with reason. Multiple wake ups before the
// next wait are merged.
func (d *Daemon) wakeUp(reason string) {
	select {
	case d.wake <- struct{}{}:
		d.log.WithField("reason", reason).Info("Daemon checking connectivity now")
	default:
	}
}

// logDecision logs the decision to wait for w after the probe results.
func (d *Daemon) logDecision(p outcome.Portal, w Wait) {
	l := d.log.WithField("delay", d.delay(w))
	switch w {
	case WaitCheckInterval:
		l.Debug("Daemon internet is up, waiting for next check")
	case WaitStabilize:
		l.Info("Daemon waiting for network to stabilize")
	case WaitRetryDelay:
		if !p.Available() {
			l.Warn("Daemon portal not found, retrying check")
			return
		}
		l.Warn("Daemon login failed, retrying")
	}
}

// iterate runs the probes of one loop iteration and returns the wait
// before the next iteration. Each iteration starts with fresh probes.
func (d *Daemon) iterate(ctx context.Context) (w Wait) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{
				"severity": "critical",
				"panic":    r,
				"stack":    string(debug.Stack()),
			}).Error("Daemon got unexpected error, retrying")
			w = WaitRetryDelay
		}
	}()

	c := d.cpd.Probe(ctx)
	p := outcome.PortalNotProbed
	a := outcome.AuthNotAttempted
	for {
		decision := Decide(c, p, a)
		switch decision.Action {
		case ActionProbePortal:
			if ctx.Err() != nil {
				return WaitNone
			}
			p = d.portal.Probe(ctx)
		case ActionLogin:
			if ctx.Err() != nil {
				return WaitNone
			}
			a = d.auth.Login(ctx)
		default:
			d.logDecision(p, decision.Wait)
			return decision.Wait
		}
	}
}

// startMonitors starts the configured monitors. Monitors that cannot be
// started are skipped.
func (d *Daemon) startMonitors() {
	if d.sleepmon != nil {
		if err := d.sleepmon.Start(); err != nil {
			d.log.WithError(err).Warn("Daemon could not start SleepMon")
		} else {
			d.stops = append(d.stops, d.sleepmon.Stop)
			go func(events chan bool) {
				for sleep := range events {
					if !sleep {
						d.wakeUp("resume")
					}
				}
			}(d.sleepmon.Events())
		}
	}

	if d.devmon != nil {
		if err := d.devmon.Start(); err != nil {
			d.log.WithError(err).Warn("Daemon could not start DevMon")
		} else {
			d.stops = append(d.stops, d.devmon.Stop)
			go func(updates chan *devmon.Update) {
				up := make(map[int]bool)
				for u := range updates {
					was := up[u.Index]
					up[u.Index] = u.Up
					if u.Up && !was && u.Type != "loopback" {
						d.wakeUp("link up: " + u.Device)
					}
				}
			}(d.devmon.Updates())
		}
	}

	if d.configmon != nil {
		if err := d.configmon.Start(); err != nil {
			d.log.WithError(err).Warn("Daemon could not start ConfigMon")
		} else {
			d.stops = append(d.stops, d.configmon.Stop)
			go func(updates chan struct{}) {
				for range updates {
					d.log.WithField("config", d.config.Config).
						Warn("Daemon config file changed, restart to apply changes")
				}
			}(d.configmon.Updates())
		}
	}
}

// stopMonitors stops the started monitors.
func (d *Daemon) stopMonitors() {
	for _, stop := range d.stops {
		stop()
	}
	d.stops = nil
}

// Run runs the reconnection loop until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.cpdConfig.Valid() {
		return fmt.Errorf("%w: connectivity check", daemoncfg.ErrInvalid)
	}
	if !d.portalConfig.Valid() {
		return fmt.Errorf("%w: portal", daemoncfg.ErrInvalid)
	}

	d.log.WithFields(logrus.Fields{
		"portal":   d.config.Settings.PortalURL,
		"check":    d.checkHost,
		"username": d.config.Credentials.Username,
	}).Info("Daemon starting captive portal auto-login")

	d.startMonitors()
	defer d.stopMonitors()

	for ctx.Err() == nil {
		w := d.iterate(ctx)
		if ctx.Err() != nil {
			break
		}
		if err := d.wait(ctx, d.delay(w)); err != nil {
			break
		}
	}

	d.log.Info("Daemon stopped")
	return nil
}

// NewDaemon returns a new Daemon.
func NewDaemon(config *daemoncfg.Config, logger logrus.FieldLogger) *Daemon {
	portalConfig := portal.NewConfig(config)
	if config.Settings.UserAgent == "" {
		portalConfig.UserAgent = portal.UserAgent + "/" + Version
	}
	client := portal.NewClient()
	cpdConfig := cpd.NewConfig(config.Settings)
	c := cpd.NewCPD(cpdConfig, logger)

	d := &Daemon{
		config: config,
		log:    logger,

		cpdConfig:    cpdConfig,
		portalConfig: portalConfig,
		checkHost:    c.Host(),

		cpd:    c,
		portal: portal.NewProber(portalConfig, client, logger),
		auth:   portal.NewAuthenticator(portalConfig, client, logger),

		wake: make(chan struct{}, 1),
	}
	d.wait = d.sleep

	if config.Settings.WakeOnResume {
		d.sleepmon = sleepmon.NewSleepMon(logger)
	}
	if config.Settings.WakeOnLinkChange {
		d.devmon = devmon.NewDevMon(logger)
	}
	if config.Settings.WatchConfig {
		d.configmon = configmon.NewConfigMon(config.Config, logger)
	}

	return d
}
