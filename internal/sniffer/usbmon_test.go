package sniffer

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildUsbmonFrame(endpoint, device byte, busID uint16, declaredLen uint32, payload []byte) []byte {
	frame := make([]byte, usbmonHeaderLen+len(payload))
	frame[usbmonOffEndpoint] = endpoint
	frame[usbmonOffDevice] = device
	binary.NativeEndian.PutUint16(frame[usbmonOffBusID:usbmonOffBusID+2], busID)
	binary.NativeEndian.PutUint32(frame[usbmonOffDataLength:usbmonOffDataLength+4], declaredLen)
	copy(frame[usbmonHeaderLen:], payload)
	return frame
}

func TestParseUsbmonFrame(t *testing.T) {
	payload := []byte("hello\n")
	frame := buildUsbmonFrame(0x81, 5, 1, uint32(len(payload)), payload)

	pkt, err := parseUsbmonFrame(frame)
	if err != nil {
		t.Fatalf("parseUsbmonFrame failed: %v", err)
	}
	if pkt.Header.BusID != 1 {
		t.Errorf("expected bus 1, got %d", pkt.Header.BusID)
	}
	if pkt.Header.DeviceID != 5 {
		t.Errorf("expected device 5, got %d", pkt.Header.DeviceID)
	}
	if !pkt.Header.DirectionIn() {
		t.Error("endpoint 0x81 should decode as IN")
	}
	if pkt.Header.EndpointNumber() != 1 {
		t.Errorf("expected endpoint number 1, got %d", pkt.Header.EndpointNumber())
	}
	if !bytes.Equal(pkt.Data, payload) {
		t.Errorf("expected payload %q, got %q", payload, pkt.Data)
	}
}

func TestParseUsbmonFrameOutDirection(t *testing.T) {
	frame := buildUsbmonFrame(0x02, 3, 2, 0, nil)

	pkt, err := parseUsbmonFrame(frame)
	if err != nil {
		t.Fatalf("parseUsbmonFrame failed: %v", err)
	}
	if pkt.Header.DirectionIn() {
		t.Error("endpoint 0x02 should decode as OUT")
	}
}

func TestParseUsbmonFrameNoPayload(t *testing.T) {
	frame := buildUsbmonFrame(0x81, 5, 1, 0, nil)

	pkt, err := parseUsbmonFrame(frame)
	if err != nil {
		t.Fatalf("parseUsbmonFrame failed: %v", err)
	}
	if pkt.Data != nil {
		t.Errorf("zero-length URB should carry nil data, got %v", pkt.Data)
	}
}

func TestParseUsbmonFrameClampsDataLength(t *testing.T) {
	// data_length larger than the captured frame: clamp to what's there.
	payload := []byte("abc")
	frame := buildUsbmonFrame(0x81, 5, 1, 4096, payload)

	pkt, err := parseUsbmonFrame(frame)
	if err != nil {
		t.Fatalf("parseUsbmonFrame failed: %v", err)
	}
	if !bytes.Equal(pkt.Data, payload) {
		t.Errorf("expected clamped payload %q, got %q", payload, pkt.Data)
	}
}

func TestParseUsbmonFrameTruncatedHeader(t *testing.T) {
	if _, err := parseUsbmonFrame(make([]byte, usbmonHeaderLen-1)); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestParseUsbmonFrameDoesNotAliasFrame(t *testing.T) {
	payload := []byte("aaaa")
	frame := buildUsbmonFrame(0x81, 5, 1, uint32(len(payload)), payload)

	pkt, err := parseUsbmonFrame(frame)
	if err != nil {
		t.Fatalf("parseUsbmonFrame failed: %v", err)
	}

	// pcap reuses capture buffers; the packet must own its payload.
	copy(frame[usbmonHeaderLen:], []byte("bbbb"))
	if !bytes.Equal(pkt.Data, payload) {
		t.Errorf("payload aliases the capture buffer: %q", pkt.Data)
	}
}
