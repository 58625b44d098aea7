/*
Probe runs the connectivity and portal checks of the daemon once and
prints the results. With -login, it also logs into the portal if the
internet is not reachable.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/cpd"
	"github.com/telekom-mms/portal-autologin/internal/daemoncfg"
	"github.com/telekom-mms/portal-autologin/internal/portal"
)

func main() {
	cfgFile := flag.String("config", daemoncfg.ConfigFile, "set config `file`")
	login := flag.Bool("login", false, "log into the portal when offline")
	flag.Parse()

	log.SetLevel(log.DebugLevel)

	// load config
	config := daemoncfg.NewConfig()
	config.Config = *cfgFile
	if err := config.Load(); err != nil {
		log.WithError(err).Fatal("could not load config")
	}

	ctx := context.Background()
	logger := log.StandardLogger()

	// check connectivity
	c := cpd.NewCPD(cpd.NewConfig(config.Settings), logger).Probe(ctx)
	fmt.Fprintf(os.Stdout, "connectivity: %s\n", c)

	// check portal
	portalConfig := portal.NewConfig(config)
	client := portal.NewClient()
	p := portal.NewProber(portalConfig, client, logger).Probe(ctx)
	fmt.Fprintf(os.Stdout, "portal: %s\n", p)

	// login
	if !*login || c.Up() || !p.Available() {
		return
	}
	a := portal.NewAuthenticator(portalConfig, client, logger).Login(ctx)
	fmt.Fprintf(os.Stdout, "login: %s\n", a)
}
