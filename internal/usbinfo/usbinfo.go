// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package usbinfo lists the USB devices currently on the host so the user
// can tell which capture interface carries the traffic they care about.
package usbinfo

import (
	"fmt"

	"github.com/google/gousb"
	"github.com/google/gousb/usbid"
)

// ConnectedDevices enumerates connected USB devices as display strings
// ("Bus 001 Device 005  1d6b:0002  2.0 root hub (Linux Foundation)").
// Best-effort: any enumeration failure yields an empty list.
func ConnectedDevices() []string {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var list []string
	devices, _ := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		list = append(list, fmt.Sprintf("Bus %03d Device %03d  %s:%s  %s",
			desc.Bus, desc.Address, desc.Vendor, desc.Product, usbid.Describe(desc)))
		// Enumeration only; never open.
		return false
	})
	for _, dev := range devices {
		dev.Close()
	}
	return list
}
