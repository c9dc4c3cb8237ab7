// Command mudra-monitor is a terminal viewer for the live control packet
// stream of a running mudra daemon.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/control"
)

// packetMsg delivers one control packet from the websocket reader.
type packetMsg control.Packet

// disconnectMsg reports the websocket reader ending.
type disconnectMsg struct {
	err error
}

// model holds the latest packet and a running count.
type model struct {
	url     string
	packet  control.Packet
	packets uint64
	seen    bool
	err     error
}

func newModel(url string) model {
	return model{url: url}
}

// Init implements tea.Model interface.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model interface.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case packetMsg:
		m.packet = control.Packet(msg)
		m.packets++
		m.seen = true
	case disconnectMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model interface.
func (m model) View() string {
	var b strings.Builder

	b.WriteString("Mudra Control Monitor\n")
	b.WriteString("=====================\n\n")

	b.WriteString(fmt.Sprintf("Connected: %s\n", m.url))
	b.WriteString(fmt.Sprintf("Packets:   %d\n\n", m.packets))

	if !m.seen {
		b.WriteString("Waiting for packets...\n")
	} else {
		p := m.packet
		state := "inactive"
		if p.Active {
			state = "active"
		}
		b.WriteString(fmt.Sprintf("State:    %s\n", state))
		b.WriteString(fmt.Sprintf("Mode:     %s\n", p.Mode))
		b.WriteString(fmt.Sprintf("Gesture:  %s (%.4f)\n\n", p.Gesture, p.Confidence))
		b.WriteString(fmt.Sprintf("dPan:     %+.5f  %+.5f\n", p.DPanX, p.DPanY))
		b.WriteString(fmt.Sprintf("dTheta:   %+.4f\n", p.DTheta))
		b.WriteString(fmt.Sprintf("dPhi:     %+.4f\n", p.DPhi))
		b.WriteString(fmt.Sprintf("dRadius:  %+.4f\n", p.DRadius))
		if p.Reset {
			b.WriteString("\nRESET\n")
		}
	}

	b.WriteString("\n(Press q to quit)")

	return b.String()
}

func main() {
	addr := flag.String("addr", "localhost:8080", "mudra daemon address")
	flag.Parse()

	url := "ws://" + *addr + "/api/control"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", url, err)
	}
	defer conn.Close()

	program := tea.NewProgram(newModel(url), tea.WithAltScreen())

	// Feed packets to the UI until the connection drops
	go func() {
		for {
			var packet control.Packet
			if err := conn.ReadJSON(&packet); err != nil {
				program.Send(disconnectMsg{err: err})
				return
			}
			program.Send(packetMsg(packet))
		}
	}()

	final, err := program.Run()
	if err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	if m, ok := final.(model); ok && m.err != nil {
		fmt.Printf("Disconnected: %v\n", m.err)
	}
}
