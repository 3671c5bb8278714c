package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/ttylabs/serialpcap/capture"
	"github.com/ttylabs/serialpcap/internal/tui/colors"
)

// EventMsg delivers one captured frame to the TUI
type EventMsg struct {
	Event capture.Event
}

type ViewMode int

const (
	ViewModeFollow ViewMode = iota
	ViewModeScroll
)

const (
	columnKeyTime  = "time"
	columnKeyLines = "lines"
	columnKeyHex   = "hex"
	columnKeyASCII = "ascii"
	columnKeyBytes = "bytes"
)

// Keep enough history to scroll back through a burst without letting an
// unattended monitor grow without bound.
const maxBufferedEvents = 2000

// EventTable renders captured frames as a scrollable table. In follow mode
// the newest frames stay pinned to the bottom; scroll mode freezes the
// window and moves it with the arrow keys.
type EventTable struct {
	table     table.Model
	formatter *EventFormatter
	viewMode  ViewMode
	events    []capture.Event
	width     int
	height    int
	offset    int // rows between the window and the newest event
}

func NewEventTable(width, height int) *EventTable {
	if width < 80 {
		width = 80
	}
	if height < 5 {
		height = 5
	}

	et := &EventTable{
		formatter: NewEventFormatter(true, true),
		viewMode:  ViewModeFollow,
		events:    make([]capture.Event, 0),
		width:     width,
		height:    height,
	}
	et.rebuild()

	return et
}

func (et *EventTable) SetSize(width, height int) {
	if width < 80 {
		width = 80
	}
	if height < 5 {
		height = 5
	}
	et.width = width
	et.height = height
	et.rebuild()
}

// rebuild recreates the table model; needed when columns or target width
// change, not just rows.
func (et *EventTable) rebuild() {
	base := lipgloss.NewStyle().
		Foreground(colors.Text).
		BorderForeground(colors.Surface1).
		Align(lipgloss.Left)

	et.table = table.New(et.columns()).
		WithRows(et.visibleRows()).
		WithBaseStyle(base).
		WithTargetWidth(et.width)
}

func (et *EventTable) refresh() {
	et.table = et.table.WithRows(et.visibleRows())
}

func (et *EventTable) columns() []table.Column {
	displayMode := et.formatter.GetDisplayMode()

	cols := []table.Column{
		table.NewColumn(columnKeyTime, "Time", 13),
		table.NewColumn(columnKeyLines, "Lines", 24),
	}

	switch {
	case displayMode.ShowHex && displayMode.ShowASCII:
		cols = append(cols,
			table.NewFlexColumn(columnKeyHex, "Hex", 7),
			table.NewFlexColumn(columnKeyASCII, "ASCII", 3))
	case displayMode.ShowHex:
		cols = append(cols, table.NewFlexColumn(columnKeyHex, "Hex", 1))
	case displayMode.ShowASCII:
		cols = append(cols, table.NewFlexColumn(columnKeyASCII, "ASCII", 1))
	default:
		cols = append(cols, table.NewFlexColumn(columnKeyHex, "Data", 1))
	}

	return append(cols, table.NewColumn(columnKeyBytes, "Bytes", 7))
}

// pageSize is the number of event rows that fit under the header chrome
func (et *EventTable) pageSize() int {
	page := et.height - 4
	if page < 1 {
		page = 1
	}
	return page
}

func (et *EventTable) visibleRows() []table.Row {
	end := len(et.events) - et.offset
	if end > len(et.events) {
		end = len(et.events)
	}
	if end < 0 {
		end = 0
	}
	start := end - et.pageSize()
	if start < 0 {
		start = 0
	}

	rows := make([]table.Row, 0, end-start)
	for _, ev := range et.events[start:end] {
		rows = append(rows, et.eventRow(ev))
	}
	return rows
}

func (et *EventTable) eventRow(ev capture.Event) table.Row {
	displayMode := et.formatter.GetDisplayMode()

	data := table.RowData{
		columnKeyTime:  ev.Timestamp.Format("15:04:05.000"),
		columnKeyLines: FormatControlLines(ev.Lines),
		columnKeyBytes: fmt.Sprintf("%d", len(ev.Data)),
	}

	if displayMode.ShowHex {
		data[columnKeyHex] = hexString(ev.Data)
	}
	if displayMode.ShowASCII {
		data[columnKeyASCII] = asciiString(ev.Data)
	}
	if !displayMode.ShowHex && !displayMode.ShowASCII {
		data[columnKeyHex] = fmt.Sprintf("%d bytes", len(ev.Data))
	}

	return table.NewRow(data)
}

func (et *EventTable) AddEvent(ev capture.Event) {
	et.events = append(et.events, ev)

	if over := len(et.events) - maxBufferedEvents; over > 0 {
		et.events = et.events[over:]
		if et.offset > len(et.events) {
			et.offset = len(et.events)
		}
	}

	if et.viewMode == ViewModeFollow {
		et.offset = 0
	}
	et.refresh()
}

func (et *EventTable) Clear() {
	et.events = make([]capture.Event, 0)
	et.offset = 0
	et.refresh()
}

func (et *EventTable) ToggleHex() {
	et.formatter.ToggleHex()
	et.rebuild()
}

func (et *EventTable) ToggleASCII() {
	et.formatter.ToggleASCII()
	et.rebuild()
}

func (et *EventTable) ToggleFollow() {
	if et.viewMode == ViewModeFollow {
		et.viewMode = ViewModeScroll
	} else {
		et.viewMode = ViewModeFollow
		et.offset = 0
		et.refresh()
	}
}

func (et *EventTable) ScrollUp() {
	if et.viewMode != ViewModeScroll {
		return
	}
	limit := len(et.events) - et.pageSize()
	if limit < 0 {
		limit = 0
	}
	if et.offset < limit {
		et.offset++
		et.refresh()
	}
}

func (et *EventTable) ScrollDown() {
	if et.viewMode != ViewModeScroll {
		return
	}
	if et.offset > 0 {
		et.offset--
		et.refresh()
	}
}

func (et *EventTable) GetViewMode() ViewMode {
	return et.viewMode
}

func (et *EventTable) GetViewModeString() string {
	switch et.viewMode {
	case ViewModeScroll:
		return "SCROLL"
	default:
		return "FOLLOW"
	}
}

func (et *EventTable) GetDisplayMode() DisplayMode {
	return et.formatter.GetDisplayMode()
}

func (et *EventTable) Len() int {
	return len(et.events)
}

func (et *EventTable) View() string {
	return et.table.View()
}
