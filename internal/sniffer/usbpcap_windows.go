// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

//go:build windows

package sniffer

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/google/gopacket/pcapgo"
	"golang.org/x/sys/windows"

	"urbxtract/internal/config"
)

// usbpcapCapture reads URBs from the USBPcap extcap helper. Windows has no
// usbmon, so the helper is spawned in capture mode with its FIFO pointed at
// a named pipe we serve, and the pipe is read as a classic PCAP stream.
type usbpcapCapture struct {
	deviceName string
	pipeName   string
	pipe       windows.Handle
}

func newCapture(deviceName string) (Source, error) {
	helperPath := config.USBPcapPath()
	if _, err := os.Stat(helperPath); err != nil {
		return nil, fmt.Errorf("%w: USBPcapCMD helper not found at %s", ErrCaptureInit, helperPath)
	}

	devices, err := listDevices()
	if err != nil {
		return nil, err
	}
	found := false
	for _, dev := range devices {
		if dev == deviceName {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceName)
	}

	// Byte-mode blocking pipe, one instance, 64 KiB inbound buffer.
	pipeName := `\\.\pipe\urbxtract_` + deviceName
	pipePath, err := windows.UTF16PtrFromString(pipeName)
	if err != nil {
		return nil, fmt.Errorf("%w: pipe name %q: %v", ErrCaptureInit, pipeName, err)
	}
	pipe, err := windows.CreateNamedPipe(
		pipePath,
		windows.PIPE_ACCESS_INBOUND,
		windows.PIPE_TYPE_BYTE|windows.PIPE_READMODE_BYTE|windows.PIPE_WAIT,
		1,
		0,
		65536,
		0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating named pipe %s: %v", ErrCaptureInit, pipeName, err)
	}

	return &usbpcapCapture{
		deviceName: deviceName,
		pipeName:   pipeName,
		pipe:       pipe,
	}, nil
}

func (c *usbpcapCapture) Run(ctx context.Context, out chan<- UrbPacket) error {
	defer close(out)

	var pipeOnce sync.Once
	closePipe := func() {
		pipeOnce.Do(func() { windows.CloseHandle(c.pipe) })
	}
	defer closePipe()

	helper := exec.Command(config.USBPcapPath(),
		"--extcap-interface", `\\.\`+c.deviceName,
		"--capture", "-A",
		"--fifo", c.pipeName)
	if err := helper.Start(); err != nil {
		return fmt.Errorf("%w: starting USBPcapCMD: %v", ErrCaptureInit, err)
	}

	defer func() {
		helper.Process.Kill()
		helper.Wait()
	}()

	// ConnectNamedPipe and ReadFile block; cancellation kills the helper and
	// closes the pipe handle out from under them, which fails the blocked
	// call and unwinds the loop.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		helper.Process.Kill()
		closePipe()
	}()

	if err := windows.ConnectNamedPipe(c.pipe, nil); err != nil && err != windows.ERROR_PIPE_CONNECTED {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: awaiting USBPcapCMD pipe connect: %v", ErrCaptureInit, err)
	}

	stream, err := pcapgo.NewReader(&pipeReader{handle: c.pipe})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: reading pcap stream header: %v", ErrCaptureInit, err)
	}

	for {
		record, _, err := stream.ReadPacketData()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("usbpcap stream: %w", err)
		}

		urb, err := parseUSBPcapRecord(record)
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

// pipeReader adapts the blocking pipe handle to io.Reader for the pcap
// stream parser. A broken pipe means the helper exited: clean EOF.
type pipeReader struct {
	handle windows.Handle
}

func (r *pipeReader) Read(p []byte) (int, error) {
	var n uint32
	err := windows.ReadFile(r.handle, p, &n, nil)
	if err != nil {
		if err == windows.ERROR_BROKEN_PIPE || err == windows.ERROR_HANDLE_EOF {
			return int(n), io.EOF
		}
		return int(n), err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return int(n), nil
}

func listDevices() ([]string, error) {
	output, err := exec.Command(config.USBPcapPath(), "--extcap-interfaces").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: running USBPcapCMD --extcap-interfaces: %v", ErrCaptureInit, err)
	}
	return parseExtcapInterfaces(string(output)), nil
}
