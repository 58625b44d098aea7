/*
Devmon is a device monitor example. It prints the link updates the daemon
uses to trigger immediate connectivity checks.
*/
package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/telekom-mms/portal-autologin/internal/devmon"
)

func main() {
	log.SetLevel(log.DebugLevel)
	d := devmon.NewDevMon(log.StandardLogger())
	if err := d.Start(); err != nil {
		log.WithError(err).Fatal("could not start DevMon")
	}
	for u := range d.Updates() {
		log.WithFields(log.Fields{
			"device": u.Device,
			"type":   u.Type,
			"index":  u.Index,
			"add":    u.Add,
			"up":     u.Up,
		}).Info("DevMon update")
	}
}
