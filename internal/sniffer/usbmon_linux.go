// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

//go:build linux

package sniffer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// usbmonCapture reads URB frames from a usbmon pcap interface.
type usbmonCapture struct {
	deviceName string
	handle     *pcap.Handle
}

func newCapture(deviceName string) (Source, error) {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating pcap devices: %v", ErrCaptureInit, err)
	}

	found := false
	for _, dev := range devices {
		if dev.Name == deviceName {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceName)
	}

	handle, err := pcap.OpenLive(deviceName, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrCaptureInit, deviceName, err)
	}

	if lt := int(handle.LinkType()); lt != dltUSBLinux && lt != dltUSBLinuxMmaped {
		handle.Close()
		return nil, fmt.Errorf("%w: %s is not a usbmon interface (link type %d)",
			ErrCaptureInit, deviceName, lt)
	}

	return &usbmonCapture{deviceName: deviceName, handle: handle}, nil
}

func (c *usbmonCapture) Run(ctx context.Context, out chan<- UrbPacket) error {
	defer close(out)
	defer c.handle.Close()

	// The pcap read loop blocks inside libpcap; PacketSource runs it on its
	// own goroutine and feeds a channel we can select against.
	source := gopacket.NewPacketSource(c.handle, c.handle.LinkType())
	source.NoCopy = true
	packets := source.Packets()

	for {
		select {
		case <-ctx.Done():
			return nil
		case pkt, ok := <-packets:
			if !ok {
				// Clean EOF from the capture source.
				return nil
			}
			urb, err := parseUsbmonFrame(pkt.Data())
			if err != nil {
				return err
			}
			select {
			case out <- urb:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// listDevices returns the usbmon interfaces libpcap can see. An empty list
// usually means the usbmon kernel module is not loaded.
func listDevices() ([]string, error) {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerating pcap devices: %v", ErrCaptureInit, err)
	}

	var names []string
	for _, dev := range devices {
		if strings.HasPrefix(dev.Name, "usbmon") {
			names = append(names, dev.Name)
		}
	}
	return names, nil
}
