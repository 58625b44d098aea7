// Package devmon contains the network device monitor.
package devmon

import (
	"net"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Update is a device update.
type Update struct {
	Add    bool
	Up     bool
	Device string
	Type   string
	Index  int
}

// DevMon is a device monitor.
type DevMon struct {
	events  chan netlink.LinkUpdate
	updates chan *Update
	upsDone chan struct{}
	done    chan struct{}
	closed  chan struct{}
	log     logrus.FieldLogger
}

// sendUpdate sends update over the update channel.
func (d *DevMon) sendUpdate(update *Update) {
	// send update or abort if we are shutting down
	select {
	case d.updates <- update:
	case <-d.done:
	}
}

// sysClassNet is the sysfs directory of network devices.
var sysClassNet = "/sys/class/net"

// handleLink handles a link update.
func (d *DevMon) handleLink(add bool, link netlink.Link) {
	d.log.WithFields(logrus.Fields{
		"add":  add,
		"link": link,
	}).Debug("DevMon handling link update")

	// get attributes and link type
	attrs := link.Attrs()
	typ := link.Type()

	// use special type for loop back device
	if attrs.Flags&net.FlagLoopback != 0 {
		typ = "loopback"
	}

	// use special type for device that is actually virtual, e.g., vboxnet
	if typ == "device" {
		sysfs := filepath.Join(sysClassNet, attrs.Name)
		path, err := filepath.EvalSymlinks(sysfs)
		if err != nil {
			d.log.WithError(err).Debug("DevMon could not eval device symlink")
		} else if path == filepath.Join("/sys/devices/virtual/net", attrs.Name) {
			typ = "virtual"
		}
	}

	// report device update, the device is up if it is administratively
	// up and not reported as operationally down
	update := &Update{
		Add: add,
		Up: add && attrs.Flags&net.FlagUp != 0 &&
			attrs.OperState != netlink.OperDown,
		Device: attrs.Name,
		Type:   typ,
		Index:  attrs.Index,
	}
	d.sendUpdate(update)
}

// netlinkLinkSubscribeWithOptions is netlink.LinkSubscribeWithOptions for
// testing.
var netlinkLinkSubscribeWithOptions = netlink.LinkSubscribeWithOptions

// RegisterLinkUpdates registers for link update events.
var RegisterLinkUpdates = func(d *DevMon) (chan netlink.LinkUpdate, error) {
	events := make(chan netlink.LinkUpdate)
	options := netlink.LinkSubscribeOptions{
		ListExisting: false,
	}
	if err := netlinkLinkSubscribeWithOptions(events, d.upsDone, options); err != nil {
		return nil, err
	}

	return events, nil
}

// start starts the device monitor.
func (d *DevMon) start() {
	defer close(d.closed)
	defer close(d.updates)
	defer close(d.upsDone)

	// handle link update events
	for {
		select {
		case e, ok := <-d.events:
			if !ok {
				// unexpected close of events, try to re-open
				d.log.Error("DevMon got unexpected close of link events")
				events, err := RegisterLinkUpdates(d)
				if err != nil {
					d.log.WithError(err).Error("DevMon link update subscribe error")
					return
				}
				d.events = events
				break
			}
			switch e.Header.Type {
			case unix.RTM_NEWLINK:
				d.handleLink(true, e)
			case unix.RTM_DELLINK:
				d.handleLink(false, e)
			default:
				d.log.WithField("event", e).Error("DevMon got unknown link event")
			}

		case <-d.done:
			// drain events and wait for channel shutdown; this
			// could take until the next link update
			go func(events chan netlink.LinkUpdate) {
				for range events {
					// wait for channel shutdown
				}
			}(d.events)
			return
		}
	}
}

// Start starts the device monitor.
func (d *DevMon) Start() error {
	events, err := RegisterLinkUpdates(d)
	if err != nil {
		return err
	}
	d.events = events

	go d.start()
	return nil
}

// Stop stops the device monitor.
func (d *DevMon) Stop() {
	close(d.done)
	<-d.closed
}

// Updates returns the Update channel for device updates.
func (d *DevMon) Updates() chan *Update {
	return d.updates
}

// NewDevMon returns a new device monitor.
func NewDevMon(logger logrus.FieldLogger) *DevMon {
	return &DevMon{
		updates: make(chan *Update),
		upsDone: make(chan struct{}),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
		log:     logger,
	}
}
