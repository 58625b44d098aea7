// Package configmon contains the config file monitor.
package configmon

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ConfigMon is a config file monitor. It sends an update when the content
// of the config file changed.
type ConfigMon struct {
	file    string
	watcher *fsnotify.Watcher
	updates chan struct{}
	done    chan struct{}
	closed  chan struct{}
	hash    [sha256.Size]byte
	log     logrus.FieldLogger
}

// sendUpdate sends an update over the updates channel.
func (c *ConfigMon) sendUpdate() {
	// send an update or abort if we are shutting down
	select {
	case c.updates <- struct{}{}:
	case <-c.done:
	}
}

// handleEvent compares file hashes to see if the file changed and sends an
// update notification.
func (c *ConfigMon) handleEvent() {
	b, err := os.ReadFile(c.file)
	if err != nil {
		c.log.WithError(err).Debug("ConfigMon could not read config file")
		return
	}

	hash := sha256.Sum256(b)
	if bytes.Equal(hash[:], c.hash[:]) {
		return
	}

	c.hash = hash
	c.sendUpdate()
}

// start starts the config monitor.
func (c *ConfigMon) start() {
	defer close(c.closed)
	defer close(c.updates)
	defer func() {
		if err := c.watcher.Close(); err != nil {
			c.log.WithError(err).Error("ConfigMon watcher close error")
		}
	}()

	// watch file
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				c.log.Error("ConfigMon got unexpected close of events channel")
				return
			}
			if filepath.Clean(event.Name) == c.file {
				c.log.WithFields(logrus.Fields{
					"name": event.Name,
					"op":   event.Op,
				}).Debug("ConfigMon handling file event")
				c.handleEvent()
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				c.log.Error("ConfigMon got unexpected close of errors channel")
				return
			}
			c.log.WithError(err).Error("ConfigMon watcher error event")

		case <-c.done:
			return
		}
	}
}

// Start starts the config monitor.
func (c *ConfigMon) Start() error {
	// hash of the current file content
	if b, err := os.ReadFile(c.file); err == nil {
		c.hash = sha256.Sum256(b)
	}

	// create watcher and add config folder, editors often replace the
	// file, so the folder is watched and not the file
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(c.file)); err != nil {
		_ = watcher.Close()
		return err
	}
	c.watcher = watcher

	go c.start()
	return nil
}

// Stop stops the config monitor.
func (c *ConfigMon) Stop() {
	close(c.done)
	<-c.closed
}

// Updates returns the channel for config updates.
func (c *ConfigMon) Updates() chan struct{} {
	return c.updates
}

// NewConfigMon returns a new config monitor for file.
func NewConfigMon(file string, logger logrus.FieldLogger) *ConfigMon {
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	return &ConfigMon{
		file:    filepath.Clean(file),
		updates: make(chan struct{}),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
		log:     logger,
	}
}
