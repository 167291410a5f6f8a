// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package reconstructor

import (
	"context"
	"encoding/binary"

	"urbxtract/internal/sniffer"
)

// CBWSignature is the little-endian "USBC" marker opening every Command
// Block Wrapper of USB Mass Storage Bulk-Only Transport.
//
// Structure references:
// https://wiki.osdev.org/USB_Mass_Storage_Class_Devices
// https://www.usb.org/sites/default/files/usbmassbulk_10.pdf
const CBWSignature = 0x43425355

const cbwLength = 31

// SCSIPlaceholder is emitted for recognized CBW traffic; command contents
// are not interpreted.
const SCSIPlaceholder = "(Identified SCSI Packet: Parsing Not Implemented)"

// IsCBW reports whether the payload opens with the CBW signature. The
// signature alone triggers classification, regardless of direction.
func IsCBW(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == CBWSignature
}

// CommandBlockWrapper is the 31-byte little-endian record bracketing the
// start of a mass-storage transaction.
type CommandBlockWrapper struct {
	Signature      uint32
	Tag            uint32
	TransferLength uint32
	Flags          byte
	LUN            byte
	CBLength       byte
	CommandBlock   [16]byte
}

// DirectionIn reports whether the transaction's data phase, if any, runs
// device-to-host.
func (w CommandBlockWrapper) DirectionIn() bool {
	return w.Flags&0x80 != 0
}

// ParseCBW decodes a full wrapper. A future CBW→DATA→CSW session table
// keyed on (bus, device, Tag) builds on this; today only the signature is
// acted upon.
func ParseCBW(data []byte) (CommandBlockWrapper, bool) {
	if len(data) < cbwLength || !IsCBW(data) {
		return CommandBlockWrapper{}, false
	}
	cbw := CommandBlockWrapper{
		Signature:      binary.LittleEndian.Uint32(data[0:4]),
		Tag:            binary.LittleEndian.Uint32(data[4:8]),
		TransferLength: binary.LittleEndian.Uint32(data[8:12]),
		Flags:          data[12],
		LUN:            data[13] & 0x0f,
		CBLength:       data[14] & 0x1f,
	}
	copy(cbw.CommandBlock[:], data[15:31])
	return cbw, true
}

// MassStorage recognizes CBW packets and signals them downstream. Full
// transaction pairing (CBW → DATA → CSW) is deliberately not tracked.
type MassStorage struct {
	out chan<- ReconstructedTransmission
}

func NewMassStorage(out chan<- ReconstructedTransmission) *MassStorage {
	return &MassStorage{out: out}
}

func (m *MassStorage) Consume(ctx context.Context, pkt sniffer.UrbPacket) error {
	transmission := ReconstructedTransmission{
		Header:          pkt.Header,
		CombinedPayload: SCSIPlaceholder,
	}

	select {
	case m.out <- transmission:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
