// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"urbxtract/internal/config"
	"urbxtract/internal/licenses"
	"urbxtract/internal/reconstructor"
	"urbxtract/internal/sniffer"
	"urbxtract/internal/ui"
	"urbxtract/internal/usbinfo"
)

func main() {
	var iface string
	flag.StringVar(&iface, "iface", "", "Specify Capture Interface (Required)")
	flag.StringVar(&iface, "i", "", "Specify Capture Interface (shorthand)")
	licenseInfo := flag.Bool("license-info", false, "Show License Information")
	flag.Parse()

	if *licenseInfo {
		fmt.Printf("\n%s", licenses.Full())
		return
	}

	fmt.Printf("\n%s\n", licenses.Short())

	if iface == "" {
		printDeviceLists()
		flag.Usage()
		return
	}

	cfg := config.Load()

	// Setup problems (unknown device, missing helper, denied capture)
	// surface here, before the TUI takes over the terminal.
	capture, err := sniffer.NewCapture(iface)
	if err != nil {
		fmt.Fprintf(os.Stderr, "urbxtract: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	urbPackets := make(chan sniffer.UrbPacket, cfg.ChannelCapacity)
	transmissions := make(chan reconstructor.ReconstructedTransmission, cfg.ChannelCapacity)

	captureErr := make(chan error, 1)
	go func() {
		captureErr <- capture.Run(ctx, urbPackets)
	}()
	go reconstructor.NewDispatcher(transmissions).Run(ctx, urbPackets)

	program := tea.NewProgram(ui.New(transmissions, cfg.RenderInterval), tea.WithAltScreen())
	_, uiErr := program.Run()

	// Quitting the UI aborts the capture: stop reading, release the OS
	// handle, kill the helper process if any.
	cancel()

	if err := <-captureErr; err != nil {
		fmt.Fprintf(os.Stderr, "urbxtract: capture failed: %v\n", err)
		os.Exit(1)
	}
	if uiErr != nil {
		fmt.Fprintf(os.Stderr, "urbxtract: terminal interface failed: %v\n", uiErr)
		os.Exit(1)
	}
}

// printDeviceLists shows capture interfaces and, best-effort, the connected
// USB devices behind them.
func printDeviceLists() {
	devices, err := sniffer.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "urbxtract: %v\n", err)
	}

	fmt.Println("Available Capture Interfaces:")
	if len(devices) == 0 {
		fmt.Println("  (none found; is the capture driver available?)")
	}
	for _, dev := range devices {
		fmt.Printf("✲  %s\n", dev)
	}
	fmt.Println()

	if connected := usbinfo.ConnectedDevices(); len(connected) > 0 {
		fmt.Println("Connected USB Devices:")
		for _, dev := range connected {
			fmt.Printf("✲  %s\n", dev)
		}
		fmt.Println()
	}
}
