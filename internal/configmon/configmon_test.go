package configmon

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

// createConfigMonTestFile creates a temporary file for ConfigMon testing.
func createConfigMonTestFile(t *testing.T) string {
	f := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(f, []byte("[settings]\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return f
}

// newTestConfigMon returns a new ConfigMon for file with a test logger.
func newTestConfigMon(file string) *ConfigMon {
	logger, _ := test.NewNullLogger()
	return NewConfigMon(file, logger)
}

// TestConfigMonHandleEvent tests handleEvent of ConfigMon.
func TestConfigMonHandleEvent(t *testing.T) {
	f := createConfigMonTestFile(t)
	c := newTestConfigMon(f)

	// test with unitialized hash, should update hash and send update
	h := c.hash
	go c.handleEvent()
	<-c.updates
	if bytes.Equal(h[:], c.hash[:]) {
		t.Errorf("got %v, want other", h)
	}

	// test with same file content, hash should stay the same, no update
	h = c.hash
	c.handleEvent()
	if !bytes.Equal(h[:], c.hash[:]) {
		t.Errorf("got %v, want %v", c.hash, h)
	}

	// test with removed file, no update
	_ = os.Remove(f)
	c.handleEvent()
	if !bytes.Equal(h[:], c.hash[:]) {
		t.Errorf("got %v, want %v", c.hash, h)
	}
}

// TestConfigMonStartStop tests Start and Stop of ConfigMon.
func TestConfigMonStartStop(t *testing.T) {
	f := createConfigMonTestFile(t)
	c := newTestConfigMon(f)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	c.Stop()

	// missing directory
	c = newTestConfigMon(filepath.Join(t.TempDir(), "missing", "config.ini"))
	if err := c.Start(); err == nil {
		t.Error("Start should return error")
	}
}

// TestConfigMonUpdates tests Updates of ConfigMon with file changes.
func TestConfigMonUpdates(t *testing.T) {
	f := createConfigMonTestFile(t)
	c := newTestConfigMon(f)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	if err := os.WriteFile(f, []byte("[settings]\nretry_delay = 5\n"), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-c.Updates():
	case <-time.After(5 * time.Second):
		t.Error("got no update for changed config file")
	}
}

// TestNewConfigMon tests NewConfigMon.
func TestNewConfigMon(t *testing.T) {
	f := "/some/dir/../config.ini"
	c := newTestConfigMon(f)
	if c.file != "/some/config.ini" {
		t.Errorf("got %s, want /some/config.ini", c.file)
	}
	if c.updates == nil ||
		c.done == nil ||
		c.closed == nil ||
		c.log == nil {

		t.Errorf("got nil, want != nil")
	}
}
