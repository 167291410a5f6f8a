// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package sniffer produces normalized URB packets from a platform capture
// source: usbmon through libpcap on Linux, the USBPcap extcap helper over a
// named pipe on Windows.
package sniffer

import (
	"context"
	"errors"
)

// UrbHeader is the platform-agnostic slice of a captured URB header. It
// carries only the fields the reconstructor keys on.
type UrbHeader struct {
	BusID        uint16
	DeviceID     uint16
	EndpointInfo byte
}

// DirectionIn reports whether the URB travelled device-to-host. Bit 7 of the
// endpoint address is the direction bit on both capture formats.
func (h UrbHeader) DirectionIn() bool {
	return h.EndpointInfo&0x80 != 0
}

// EndpointNumber returns the endpoint address without the direction bit.
func (h UrbHeader) EndpointNumber() byte {
	return h.EndpointInfo & 0x7f
}

// UrbPacket is one captured URB. Data is nil when the URB carried no payload
// (zero-length status stages and the like).
type UrbPacket struct {
	Header UrbHeader
	Data   []byte
}

var (
	// ErrDeviceNotFound: the named capture interface is not enumerable.
	ErrDeviceNotFound = errors.New("sniffer: capture device not found")

	// ErrCaptureInit: the OS rejected capture setup (pcap open, pipe
	// creation, helper spawn).
	ErrCaptureInit = errors.New("sniffer: capture setup failed")
)

// Source is a running capture attached to one interface.
//
// Run emits exactly one UrbPacket per captured URB, in capture order, on out
// until the underlying source ends or ctx is cancelled; it closes out before
// returning. Sends block, so a slow consumer back-pressures into the OS
// capture buffer. A clean EOF and cancellation both return nil; a malformed
// frame mid-stream is fatal and returns the decode error.
type Source interface {
	Run(ctx context.Context, out chan<- UrbPacket) error
}

// NewCapture validates deviceName against the platform's capture sources and
// prepares a Source for it. Returns ErrDeviceNotFound or ErrCaptureInit
// (wrapped) on failure, so setup problems surface before any goroutine runs.
func NewCapture(deviceName string) (Source, error) {
	return newCapture(deviceName)
}

// ListDevices enumerates candidate capture interfaces. It may block on
// kernel or subprocess calls; call it at startup only.
func ListDevices() ([]string, error) {
	return listDevices()
}
