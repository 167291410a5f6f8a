// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ui renders reconstructed transmissions in a live scrolling table.
// It is a pure consumer: rows arrive over a channel and each receive is
// re-armed only after the previous row is applied, so display speed
// back-pressures the pipeline instead of dropping data.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	psutil "github.com/shirou/gopsutil/v3/cpu"
	psmem "github.com/shirou/gopsutil/v3/mem"

	"urbxtract/internal/reconstructor"
)

const appTitle = "UrbXtract 0.1.0 > Packet Capture"

// Column widths; the payload column takes the rest of the terminal.
const (
	colIndexWidth     = 8
	colBusWidth       = 8
	colDevWidth       = 8
	colDirectionWidth = 11
)

const statsInterval = 2 * time.Second

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true)

	tableHeaderStyle = lipgloss.NewStyle().
				Reverse(true)

	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("14")).
				Foreground(lipgloss.Color("0"))

	footerStyle = lipgloss.NewStyle().
			Faint(true)
)

type tableRow struct {
	index    int
	busID    uint16
	deviceID uint16
	toHost   bool
	payload  string // sanitized, untruncated
}

type (
	transmissionMsg  reconstructor.ReconstructedTransmission
	captureClosedMsg struct{}
	tickMsg          time.Time
	resourceMsg      struct{ cpu, mem float64 }
)

// Model is the bubbletea model for the capture table view.
type Model struct {
	transmissions  <-chan reconstructor.ReconstructedTransmission
	renderInterval time.Duration

	rows       []tableRow
	selected   int
	offset     int
	autoScroll bool

	width, height int
	captureDone   bool
	lastStats     time.Time

	cpuPercent float64
	memPercent float64
}

func New(transmissions <-chan reconstructor.ReconstructedTransmission, renderInterval time.Duration) Model {
	return Model{
		transmissions:  transmissions,
		renderInterval: renderInterval,
		autoScroll:     true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForTransmission(m.transmissions),
		m.tick(),
		sampleResources,
	)
}

// waitForTransmission blocks on the pipeline until the next transmission
// or channel close. Re-issued once per applied row.
func waitForTransmission(ch <-chan reconstructor.ReconstructedTransmission) tea.Cmd {
	return func() tea.Msg {
		transmission, ok := <-ch
		if !ok {
			return captureClosedMsg{}
		}
		return transmissionMsg(transmission)
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.renderInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func sampleResources() tea.Msg {
	var usage resourceMsg
	if percents, err := psutil.Percent(0, false); err == nil && len(percents) > 0 {
		usage.cpu = percents[0]
	}
	if vm, err := psmem.VirtualMemory(); err == nil {
		usage.mem = vm.UsedPercent
	}
	return usage
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "shift+up":
			m.selected = 0
			m.autoScroll = false
		case "up":
			if m.selected > 0 {
				m.selected--
			}
			m.autoScroll = false
		case "shift+down":
			if len(m.rows) > 0 {
				m.selected = len(m.rows) - 1
			}
			m.autoScroll = true
		case "down":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
			m.autoScroll = false
		}
		m.clampScroll()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		return m, nil

	case transmissionMsg:
		m.rows = append(m.rows, tableRow{
			index:    len(m.rows) + 1,
			busID:    msg.Header.BusID,
			deviceID: msg.Header.DeviceID,
			toHost:   msg.Header.DirectionIn(),
			payload:  sanitizePayload(msg.CombinedPayload),
		})
		if m.autoScroll {
			m.selected = len(m.rows) - 1
		}
		m.clampScroll()
		return m, waitForTransmission(m.transmissions)

	case captureClosedMsg:
		// Keep the table on screen; the user quits explicitly.
		m.captureDone = true
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		cmds = append(cmds, m.tick())
		if time.Time(msg).Sub(m.lastStats) >= statsInterval {
			m.lastStats = time.Time(msg)
			cmds = append(cmds, sampleResources)
		}
		return m, tea.Batch(cmds...)

	case resourceMsg:
		m.cpuPercent = msg.cpu
		m.memPercent = msg.mem
		return m, nil
	}

	return m, nil
}

// clampScroll keeps the selection inside the row window.
func (m *Model) clampScroll() {
	visible := m.visibleRows()
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if visible > 0 && m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
}

// visibleRows is the table body height: total minus title, header and
// footer lines.
func (m Model) visibleRows() int {
	v := m.height - 3
	if v < 1 {
		v = 1
	}
	return v
}

func (m Model) View() string {
	if m.width == 0 {
		return "starting capture..."
	}

	var b strings.Builder

	title := appTitle
	if m.captureDone {
		title += "  [capture ended]"
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n")

	b.WriteString(tableHeaderStyle.Render(m.formatRow("#", "Bus ID", "Dev ID", "Direction", "Payload Preview")))
	b.WriteString("\n")

	visible := m.visibleRows()
	end := m.offset + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		direction := "To Device"
		if row.toHost {
			direction = "To Host"
		}
		line := m.formatRow(
			fmt.Sprintf("%d", row.index),
			fmt.Sprintf("%03d", row.busID),
			fmt.Sprintf("%03d", row.deviceID),
			direction,
			row.payload,
		)
		if i == m.selected {
			line = selectedRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := end - m.offset; i < visible; i++ {
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render(m.footer()))
	return b.String()
}

// formatRow lays out the fixed columns and truncates the payload cell to
// the remaining terminal width.
func (m Model) formatRow(index, bus, dev, direction, payload string) string {
	staticWidth := colIndexWidth + colBusWidth + colDevWidth + colDirectionWidth
	payloadWidth := m.width - staticWidth
	if payloadWidth < 8 {
		payloadWidth = 8
	}
	line := fmt.Sprintf("%-*s%-*s%-*s%-*s%s",
		colIndexWidth, index,
		colBusWidth, bus,
		colDevWidth, dev,
		colDirectionWidth, direction,
		ansi.Truncate(payload, payloadWidth, "..."),
	)
	return ansi.Truncate(line, m.width, "")
}

func (m Model) footer() string {
	stats := fmt.Sprintf("CPU %4.1f%%  MEM %4.1f%%", m.cpuPercent, m.memPercent)
	shortcuts := "| To Top (Shift + Up) | To Bottom (Shift + Down) | Quit (q) |"

	gap := m.width - lipgloss.Width(stats) - lipgloss.Width(shortcuts)
	if gap < 1 {
		gap = 1
	}
	return stats + strings.Repeat(" ", gap) + shortcuts
}

func centerText(text string, width int) string {
	pad := (width - lipgloss.Width(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

// sanitizePayload escapes control characters so raw device bytes cannot
// corrupt the terminal.
func sanitizePayload(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == 0x1b:
			b.WriteString(`\e`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
