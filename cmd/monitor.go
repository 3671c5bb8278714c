/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/ttylabs/serialpcap/capture"
	"github.com/ttylabs/serialpcap/internal/tui/components"
	"github.com/ttylabs/serialpcap/internal/tui/keys"
	"github.com/ttylabs/serialpcap/internal/tui/models"
	"github.com/ttylabs/serialpcap/internal/tui/styles"
	"github.com/ttylabs/serialpcap/serial"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor <port>",
	Short: "Watch captured frames in a live TUI",
	Long: `Watch serial traffic in a live terminal UI without writing a file.

Frames are assembled exactly as the capture command would write them:
idle-gap detection groups bytes into frames, each stamped with the
control-line states. The table shows timestamps, asserted lines, hex and
ASCII payload views.

Keys:
  f      toggle follow/scroll mode
  j/k    scroll when not following
  h / a  toggle hex / ASCII columns
  c      clear the frame buffer
  q      quit

Example usage:
  serialpcap monitor /dev/ttyUSB0
  serialpcap monitor /dev/ttyUSB0 --baud 9600 --parity e
  serialpcap monitor /dev/ttyUSB0 --gap 50ms`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		baudRate, _ := cmd.Flags().GetInt("baud")
		dataBits, _ := cmd.Flags().GetInt("databits")
		parityArg, _ := cmd.Flags().GetString("parity")
		stopBits, _ := cmd.Flags().GetInt("stopbits")
		gap, _ := cmd.Flags().GetDuration("gap")

		parity, err := serial.ParseParity(parityArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		connInfo := &components.ConnectionInfo{
			BaudRate: baudRate,
			DataBits: dataBits,
			StopBits: stopBits,
			Parity:   parity,
			Gap:      gap,
		}

		portOpts := []serial.Option{
			serial.WithBaudRate(baudRate),
			serial.WithDataBits(dataBits),
			serial.WithStopBits(stopBits),
			serial.WithParity(parity),
			serial.WithReadTimeout(gap),
		}

		if err := runMonitorTUI(portPath, connInfo, portOpts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().IntP("baud", "b", 115200, "Baud rate")
	monitorCmd.Flags().Int("databits", 8, "Data bits: 5, 6, 7, 8")
	monitorCmd.Flags().StringP("parity", "y", "n", "Parity: n, o, e, m, s")
	monitorCmd.Flags().IntP("stopbits", "p", 1, "Stop bits: 1, 2")
	monitorCmd.Flags().DurationP("gap", "g", 10*time.Millisecond, "Idle gap that terminates a frame")
}

// monitorModel represents the Bubble Tea model for the monitor command
type monitorModel struct {
	*models.CaptureModel
	eventTable *components.EventTable
	statusBar  *components.StatusBar
	help       help.Model
	keys       keys.MonitorKeys
}

func runMonitorTUI(portPath string, connInfo *components.ConnectionInfo, portOpts ...serial.Option) error {
	m := monitorModel{
		CaptureModel: models.NewCaptureModel(portPath),
		eventTable:   components.NewEventTable(80, 20),
		statusBar:    components.NewStatusBar("Serial Monitor", portPath),
		help:         help.New(),
		keys:         keys.NewMonitorKeys(),
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetConnectionInfo(connInfo)

	p := tea.NewProgram(&m, tea.WithAltScreen())

	// Connect to serial port in background
	go func() {
		port, err := serial.Open(portPath, portOpts...)
		if err != nil {
			p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
			return
		}

		m.SetPort(port)
		p.Send(models.ConnectionStatusMsg{Connected: true, Error: nil})

		// Assemble frames until the model context is cancelled
		go func() {
			defer port.Close()

			if err := port.FlushInput(); err != nil {
				p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
				return
			}

			asm := capture.NewAssembler(port, capture.DefaultMaxFrameSize)
			var last serial.ControlLines

			for {
				select {
				case <-m.GetContext().Done():
					return
				default:
				}

				ev, err := asm.Next()
				if err != nil {
					if m.GetContext().Err() != nil {
						return
					}
					p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
					return
				}

				// Same significance rule as the capture sink: idle ticks
				// with unchanged lines stay out of the table
				if ev.Insignificant(last) {
					continue
				}
				last = ev.Lines

				p.Send(components.EventMsg{Event: ev})
			}
		}()
	}()

	_, err := p.Run()

	m.Cancel()
	return err
}

func (m *monitorModel) Init() tea.Cmd {
	return nil
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Status bar is a single line, content border adds another
		verticalMarginHeight := 2

		m.eventTable.SetSize(msg.Width, msg.Height-verticalMarginHeight)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.Connected)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetDisconnected(msg.Error)
		} else if msg.Connected {
			m.statusBar.SetConnected()
		} else {
			m.statusBar.SetDisconnected(nil)
		}

	case components.EventMsg:
		if !m.IsReady() {
			m.eventTable.SetSize(80, 20)
			m.SetReady(true)
		}

		m.RecordFrame(len(msg.Event.Data))
		m.eventTable.AddEvent(msg.Event)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cleanup()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Clear):
			m.eventTable.Clear()

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.ToggleHex):
			m.eventTable.ToggleHex()

		case key.Matches(msg, m.keys.ToggleASCII):
			m.eventTable.ToggleASCII()

		case key.Matches(msg, m.keys.ToggleFollow):
			m.eventTable.ToggleFollow()

		case key.Matches(msg, m.keys.Up):
			m.eventTable.ScrollUp()

		case key.Matches(msg, m.keys.Down):
			m.eventTable.ScrollDown()
		}
	}

	return m, nil
}

func (m *monitorModel) View() string {
	var content string
	switch {
	case m.GetError() != nil && m.Frames() == 0:
		// Nothing captured yet, so the table has nothing to show
		content = styles.ErrorStyle.Render(fmt.Sprintf("Connection failed: %v", m.GetError()))
	case m.IsReady():
		content = m.eventTable.View()
	default:
		content = styles.PlaceholderStyle.Render("Initializing...")
	}

	statusBar := m.statusBar.CaptureStatusBar(
		m.eventTable.GetViewModeString(),
		m.IsConnected(),
		time.Now().Format("15:04:05"),
		m.Frames(),
		m.Bytes(),
	)

	contentWithBorder := styles.ContentBorderStyle.Render(content)

	if m.help.ShowAll {
		helpView := styles.HelpPanelStyle.Render(m.help.View(m.keys))

		return lipgloss.JoinVertical(
			lipgloss.Left,
			contentWithBorder,
			helpView,
			statusBar,
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		contentWithBorder,
		statusBar,
	)
}
