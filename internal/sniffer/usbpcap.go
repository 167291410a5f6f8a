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
	"regexp"
	"strings"
)

// USBPcap prefixes every PCAP record with a 27-byte packed little-endian
// header:
//
//	header_length[2] irp_id[8] status[4] urb_function[2] request_info[1]
//	bus_id[2] device_id[2] endpoint[1] xfer_type[1] data_length[4]
//
// Isochronous transfers extend it with a 48-byte iso block, control
// transfers with a 1-byte stage marker; the payload follows the extension.
const (
	usbpcapHeaderLen        = 27
	usbpcapIsoExtensionLen  = 48
	usbpcapCtrlExtensionLen = 1
)

const (
	usbpcapOffHeaderLength = 0
	usbpcapOffBusID        = 17
	usbpcapOffDeviceID     = 19
	usbpcapOffEndpoint     = 21
	usbpcapOffXferType     = 22
	usbpcapOffDataLength   = 23
)

// USBPcap xfer_type values.
const (
	usbpcapXferIsochronous = 0
	usbpcapXferInterrupt   = 1
	usbpcapXferControl     = 2
	usbpcapXferBulk        = 3
)

// parseUSBPcapRecord decodes one PCAP record produced by USBPcapCMD. Records
// too short for their declared layout are fatal decode errors.
func parseUSBPcapRecord(record []byte) (UrbPacket, error) {
	if len(record) < usbpcapHeaderLen {
		return UrbPacket{}, fmt.Errorf("usbpcap record truncated: %d bytes", len(record))
	}

	if hl := binary.LittleEndian.Uint16(record[usbpcapOffHeaderLength : usbpcapOffHeaderLength+2]); hl < usbpcapHeaderLen {
		return UrbPacket{}, fmt.Errorf("usbpcap header_length %d below minimum", hl)
	}

	header := UrbHeader{
		BusID:    binary.LittleEndian.Uint16(record[usbpcapOffBusID : usbpcapOffBusID+2]),
		DeviceID: binary.LittleEndian.Uint16(record[usbpcapOffDeviceID : usbpcapOffDeviceID+2]),

		// Direction bit 7 matches the normalized encoding.
		EndpointInfo: record[usbpcapOffEndpoint],
	}

	// The payload starts after the per-transfer-type header extension.
	payloadOff := usbpcapHeaderLen
	switch record[usbpcapOffXferType] {
	case usbpcapXferIsochronous:
		payloadOff += usbpcapIsoExtensionLen
	case usbpcapXferControl:
		payloadOff += usbpcapCtrlExtensionLen
	}

	dataLen := int(binary.LittleEndian.Uint32(record[usbpcapOffDataLength : usbpcapOffDataLength+4]))

	var data []byte
	if dataLen > 0 {
		if len(record) < payloadOff+dataLen {
			return UrbPacket{}, fmt.Errorf("usbpcap payload truncated: want %d bytes at offset %d, record is %d",
				dataLen, payloadOff, len(record))
		}
		data = make([]byte, dataLen)
		copy(data, record[payloadOff:payloadOff+dataLen])
	}

	return UrbPacket{Header: header, Data: data}, nil
}

var extcapValuePattern = regexp.MustCompile(`value=([^}]*)`)

// parseExtcapInterfaces extracts device names from USBPcapCMD
// --extcap-interfaces output. Lines carry {value=\\.\USBPcapN} tokens; the
// \\.\ prefix is stripped for display.
func parseExtcapInterfaces(output string) []string {
	var names []string
	for _, match := range extcapValuePattern.FindAllStringSubmatch(output, -1) {
		names = append(names, strings.TrimPrefix(match[1], `\\.\`))
	}
	return names
}
