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
	"strings"
	"unicode/utf8"

	"urbxtract/internal/sniffer"
)

// BinaryPlaceholder stands in for a payload that did not decode as UTF-8.
const BinaryPlaceholder = "(Non-UTF8 Binary Data)"

// serialKey identifies one aggregation stream. Same bus, device and
// direction means same logical text stream; the two directions of a device
// never mix.
type serialKey struct {
	busID    uint16
	deviceID uint16
	toDevice bool
}

func keyOf(h sniffer.UrbHeader) serialKey {
	return serialKey{
		busID:    h.BusID,
		deviceID: h.DeviceID,
		toDevice: !h.DirectionIn(),
	}
}

// Serial reassembles line-oriented UTF-8 text streams from bulk URBs.
// At most one in-progress transmission exists per key, and it is either
// valid UTF-8 text or the binary placeholder, never a mix.
type Serial struct {
	out       chan<- ReconstructedTransmission
	datastore map[serialKey]*ReconstructedTransmission
}

func NewSerial(out chan<- ReconstructedTransmission) *Serial {
	return &Serial{
		out:       out,
		datastore: make(map[serialKey]*ReconstructedTransmission),
	}
}

func (s *Serial) Consume(ctx context.Context, pkt sniffer.UrbPacket) error {
	key := keyOf(pkt.Header)

	if !utf8.Valid(pkt.Data) {
		// A binary URB terminates any text in progress and then stands
		// alone as an opaque frame.
		if err := s.dispatch(ctx, key); err != nil {
			return err
		}
		s.datastore[key] = &ReconstructedTransmission{
			Header:          pkt.Header,
			CombinedPayload: BinaryPlaceholder,
			Sources:         []sniffer.UrbPacket{pkt},
		}
		return s.dispatch(ctx, key)
	}

	decoded := string(pkt.Data)
	if entry, ok := s.datastore[key]; ok {
		entry.CombinedPayload += decoded
		entry.Sources = append(entry.Sources, sniffer.UrbPacket{Header: pkt.Header})
	} else {
		s.datastore[key] = &ReconstructedTransmission{
			Header:          pkt.Header,
			CombinedPayload: decoded,
			Sources:         []sniffer.UrbPacket{{Header: pkt.Header}},
		}
	}

	// A trailing newline closes the logical line; \r\n ends in \n too.
	if strings.HasSuffix(decoded, "\n") {
		return s.dispatch(ctx, key)
	}
	return nil
}

// dispatch removes the in-progress entry for key and sends it downstream.
// No entry is a no-op. The send blocks when the channel is full, which is
// how back-pressure propagates to the sniffer.
func (s *Serial) dispatch(ctx context.Context, key serialKey) error {
	entry, ok := s.datastore[key]
	if !ok {
		return nil
	}
	delete(s.datastore, key)

	select {
	case s.out <- *entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FlushAll dispatches every in-progress entry. Called when the capture
// stream ends so trailing unterminated lines are not lost.
func (s *Serial) FlushAll(ctx context.Context) error {
	for key := range s.datastore {
		if err := s.dispatch(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
