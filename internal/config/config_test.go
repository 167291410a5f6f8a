package config

import (
	"sync"
	"testing"
	"time"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	// Load caches on first call, so defaults and overrides are checked in
	// one pass: override some knobs, leave the rest at their defaults.
	t.Setenv("URBXTRACT_CHANNEL_CAPACITY", "4")
	t.Setenv("URBXTRACT_RENDER_INTERVAL_MS", "100")

	cfg := Load()

	if cfg.ChannelCapacity != 4 {
		t.Errorf("expected channel capacity override 4, got %d", cfg.ChannelCapacity)
	}
	if cfg.RenderInterval != 100*time.Millisecond {
		t.Errorf("expected render interval override 100ms, got %v", cfg.RenderInterval)
	}
	if cfg.USBPcapPath != defaultUSBPcapPath {
		t.Errorf("expected default USBPcap path, got %q", cfg.USBPcapPath)
	}

	if again := Load(); again != cfg {
		t.Error("Load should cache and return the same config")
	}
}

func TestLoadIgnoresInvalidOverrides(t *testing.T) {
	// Start from a cold cache so the invalid values below are actually read,
	// and leave a cold cache behind for any later Load.
	resetCache := func() { loaded, loadOnce = nil, sync.Once{} }
	resetCache()
	t.Cleanup(resetCache)

	t.Setenv("URBXTRACT_CHANNEL_CAPACITY", "-3")
	t.Setenv("URBXTRACT_RENDER_INTERVAL_MS", "soon")

	cfg := Load()
	if cfg.ChannelCapacity != defaultChannelCapacity {
		t.Errorf("invalid capacity must keep the default %d, got %d", defaultChannelCapacity, cfg.ChannelCapacity)
	}
	if cfg.RenderInterval != defaultRenderInterval {
		t.Errorf("invalid render interval must keep the default %v, got %v", defaultRenderInterval, cfg.RenderInterval)
	}
}
