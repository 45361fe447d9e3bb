package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetupMissingFileUsesDefaults(t *testing.T) {
	if err := Setup(filepath.Join(t.TempDir(), "does-not-exist.yml")); err != nil {
		t.Fatal(err)
	}
	s, err := Get()
	if err != nil {
		t.Fatal(err)
	}
	if s.Addr != ":8080" {
		t.Errorf("expected default Addr, got %q", s.Addr)
	}
	if s.Thermometer.Variant != "filesystem" {
		t.Errorf("expected default thermometer variant, got %q", s.Thermometer.Variant)
	}
}

func TestSetupOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermod.yml")
	body := "Addr: \":9090\"\nThermometer:\n  Variant: script\n  ScriptPath: /usr/local/bin/read-temp\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Setup(path); err != nil {
		t.Fatal(err)
	}
	s, err := Get()
	if err != nil {
		t.Fatal(err)
	}
	if s.Addr != ":9090" {
		t.Errorf("expected overlaid Addr, got %q", s.Addr)
	}
	if s.Thermometer.Variant != "script" || s.Thermometer.ScriptPath != "/usr/local/bin/read-temp" {
		t.Errorf("expected overlaid thermometer config, got %+v", s.Thermometer)
	}
	// Fields the file didn't mention keep their defaults.
	if s.SamplingInterval != 30 {
		t.Errorf("expected default SamplingInterval to survive overlay, got %v", s.SamplingInterval)
	}
}

func TestWatchTimetableFiresOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timetable.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	stop, err := WatchTimetable(path, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"mode":"on"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watch never fired after a write")
	}
}
