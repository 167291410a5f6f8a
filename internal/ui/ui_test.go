package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"urbxtract/internal/reconstructor"
	"urbxtract/internal/sniffer"
)

func TestSanitizePayload(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello\n", `hello\n`},
		{"a\r\nb", `a\r\nb`},
		{"tab\there", `tab\there`},
		{"\x1b[31mred", `\e[31mred`},
		{"nul\x00", `nul\x00`},
		{"plain text", "plain text"},
	}
	for _, c := range cases {
		if got := sanitizePayload(c.in); got != c.want {
			t.Errorf("sanitizePayload(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestModelAppendsTransmissions(t *testing.T) {
	ch := make(chan reconstructor.ReconstructedTransmission)
	m := New(ch, 50*time.Millisecond)

	msg := transmissionMsg(reconstructor.ReconstructedTransmission{
		Header:          sniffer.UrbHeader{BusID: 1, DeviceID: 5, EndpointInfo: 0x82},
		CombinedPayload: "resp\n",
	})
	updated, cmd := m.Update(msg)
	m = updated.(Model)

	if len(m.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(m.rows))
	}
	if !m.rows[0].toHost {
		t.Error("endpoint 0x82 should render To Host")
	}
	if m.rows[0].payload != `resp\n` {
		t.Errorf("payload not sanitized: %q", m.rows[0].payload)
	}
	if m.selected != 0 {
		t.Errorf("auto-scroll should pin selection to the last row, got %d", m.selected)
	}
	if cmd == nil {
		t.Error("the next channel receive must be re-armed")
	}
}

func TestModelViewShowsRows(t *testing.T) {
	ch := make(chan reconstructor.ReconstructedTransmission)
	m := New(ch, 50*time.Millisecond)

	resized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m = resized.(Model)
	appended, _ := m.Update(transmissionMsg(reconstructor.ReconstructedTransmission{
		Header:          sniffer.UrbHeader{BusID: 1, DeviceID: 5, EndpointInfo: 0x02},
		CombinedPayload: "hello world\n",
	}))
	m = appended.(Model)

	view := m.View()
	if !strings.Contains(view, "To Device") {
		t.Error("view missing direction column")
	}
	if !strings.Contains(view, `hello world\n`) {
		t.Error("view missing sanitized payload")
	}
	if !strings.Contains(view, "001") || !strings.Contains(view, "005") {
		t.Error("view missing zero-padded bus/device columns")
	}
}

func TestModelQuitKeys(t *testing.T) {
	ch := make(chan reconstructor.ReconstructedTransmission)
	m := New(ch, 50*time.Millisecond)

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c should quit")
	}
}

func TestModelCaptureClosed(t *testing.T) {
	ch := make(chan reconstructor.ReconstructedTransmission)
	m := New(ch, 50*time.Millisecond)

	resized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = resized.(Model)
	closed, _ := m.Update(captureClosedMsg{})
	m = closed.(Model)

	if !m.captureDone {
		t.Error("captureClosedMsg should mark the capture finished")
	}
	if !strings.Contains(m.View(), "capture ended") {
		t.Error("view should show the capture-ended marker")
	}
}
