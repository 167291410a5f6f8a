// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package reconstructor aggregates captured URB packets into
// application-level transmissions. A dispatcher classifies each packet by
// payload signature and routes it to a stateful protocol module.
package reconstructor

import (
	"context"
	"errors"
	"log"

	"urbxtract/internal/sniffer"
)

// ReconstructedTransmission is one reassembled application-level payload.
// Header is the header of the first URB that contributed. Sources lists the
// contributing URBs; their Data may be nil once aggregated.
type ReconstructedTransmission struct {
	Header          sniffer.UrbHeader
	CombinedPayload string
	Sources         []sniffer.UrbPacket
}

// Module is a stateful per-protocol reconstructor. Consume either absorbs
// the packet into in-progress state or emits one or more transmissions;
// it blocks while the outbound channel is full.
type Module interface {
	Consume(ctx context.Context, pkt sniffer.UrbPacket) error
}

// Flusher is implemented by modules holding partial state that should be
// emitted when the capture stream ends.
type Flusher interface {
	FlushAll(ctx context.Context) error
}

// Dispatcher owns the protocol modules and routes captured packets to them.
type Dispatcher struct {
	out     chan<- ReconstructedTransmission
	serial  *Serial
	storage *MassStorage
}

func NewDispatcher(out chan<- ReconstructedTransmission) *Dispatcher {
	return &Dispatcher{
		out:     out,
		serial:  NewSerial(out),
		storage: NewMassStorage(out),
	}
}

// Run consumes URB packets from in until the channel closes or ctx is
// cancelled, and closes the outbound channel in both cases. Partial state is
// flushed only when in closes; cancellation returns without flushing.
// One packet is fully consumed before the next receive, so a slow consumer
// back-pressures the capture source. Module errors are logged and skipped;
// the module clears its own bad state.
func (d *Dispatcher) Run(ctx context.Context, in <-chan sniffer.UrbPacket) {
	defer close(d.out)

	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				if err := d.serial.FlushAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("reconstructor: flush: %v", err)
				}
				return
			}

			// URBs without payload carry nothing to reconstruct.
			if len(pkt.Data) == 0 {
				continue
			}

			var err error
			if IsCBW(pkt.Data) {
				err = d.storage.Consume(ctx, pkt)
			} else {
				err = d.serial.Consume(ctx, pkt)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.Printf("reconstructor: %v", err)
			}
		}
	}
}
