// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config carries the few tunables the tool honors. Everything has a
// working default; an optional .env in the working directory and plain
// environment variables override it.
package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Wireshark's default extcap install location for USBPcapCMD.
	defaultUSBPcapPath = `C:\Program Files\Wireshark\extcap\USBPcapCMD.exe`

	defaultRenderInterval = 50 * time.Millisecond

	// Capacity of the inter-stage channels. Small so back-pressure reaches
	// the capture source immediately.
	defaultChannelCapacity = 2
)

type Config struct {
	// USBPcapPath locates the Windows capture helper binary.
	USBPcapPath string

	// RenderInterval is the TUI redraw cadence.
	RenderInterval time.Duration

	// ChannelCapacity bounds the sniffer→reconstructor and
	// reconstructor→UI queues.
	ChannelCapacity int
}

var (
	loaded   *Config
	loadOnce sync.Once
)

// Load reads the configuration once and caches it. Missing .env files and
// unset variables are fine; the core requires no environment.
func Load() *Config {
	loadOnce.Do(func() {
		godotenv.Load()

		cfg := &Config{
			USBPcapPath:     defaultUSBPcapPath,
			RenderInterval:  defaultRenderInterval,
			ChannelCapacity: defaultChannelCapacity,
		}

		if path := os.Getenv("URBXTRACT_USBPCAP_PATH"); path != "" {
			cfg.USBPcapPath = path
		}
		if ms := os.Getenv("URBXTRACT_RENDER_INTERVAL_MS"); ms != "" {
			if v, err := strconv.Atoi(ms); err == nil && v > 0 {
				cfg.RenderInterval = time.Duration(v) * time.Millisecond
			}
		}
		if size := os.Getenv("URBXTRACT_CHANNEL_CAPACITY"); size != "" {
			if v, err := strconv.Atoi(size); err == nil && v > 0 {
				cfg.ChannelCapacity = v
			}
		}

		loaded = cfg
	})
	return loaded
}

// USBPcapPath returns the capture helper path without forcing callers to
// hold a Config.
func USBPcapPath() string {
	return Load().USBPcapPath
}
