// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package sniffer

import (
	"encoding/binary"
	"fmt"
)

// usbmon frames start with a 64-byte packed header in host byte order:
//
//	id[8] type transfer_type endpoint device bus_id[2] setup_flag data_flag
//	ts_sec[8] ts_usec[4] status[4] urb_length[4] data_length[4]
//	setup_iso[8] interval[4] start_frame[4] xfer_flags[4] ndesc[4]
//
// The URB payload, if any, follows immediately.
const usbmonHeaderLen = 64

const (
	usbmonOffEndpoint   = 10
	usbmonOffDevice     = 11
	usbmonOffBusID      = 12
	usbmonOffDataLength = 36
)

// DLT values this sniffer accepts; anything else is not a usbmon source.
const (
	dltUSBLinux       = 189 // DLT_USB_LINUX
	dltUSBLinuxMmaped = 220 // DLT_USB_LINUX_MMAPPED
)

// parseUsbmonFrame decodes one captured usbmon frame into a normalized
// packet. The header is treated as a byte template, never as a Go struct
// layout. A frame shorter than the header is a fatal decode error; a payload
// shorter than data_length is clamped to the captured bytes.
func parseUsbmonFrame(frame []byte) (UrbPacket, error) {
	if len(frame) < usbmonHeaderLen {
		return UrbPacket{}, fmt.Errorf("usbmon frame truncated: %d bytes", len(frame))
	}

	header := UrbHeader{
		BusID: binary.NativeEndian.Uint16(frame[usbmonOffBusID : usbmonOffBusID+2]),

		// usbmon device addresses are a single byte; widen to the
		// 16-bit normalized field.
		DeviceID: uint16(frame[usbmonOffDevice]),

		// The endpoint byte already carries the direction bit in
		// position 7, same as the normalized encoding.
		EndpointInfo: frame[usbmonOffEndpoint],
	}

	dataLen := int(binary.NativeEndian.Uint32(frame[usbmonOffDataLength : usbmonOffDataLength+4]))
	if avail := len(frame) - usbmonHeaderLen; dataLen > avail {
		dataLen = avail
	}

	var data []byte
	if dataLen > 0 {
		data = make([]byte, dataLen)
		copy(data, frame[usbmonHeaderLen:usbmonHeaderLen+dataLen])
	}

	return UrbPacket{Header: header, Data: data}, nil
}
