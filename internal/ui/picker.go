package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/aircast/internal/discovery"
)

// Messages for async operations
type scanCompleteMsg struct {
	devices []discovery.DeviceDescriptor
	err     error
}

// pickerKeyMap defines key bindings for the picker screen
type pickerKeyMap struct {
	Enter  key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

// deviceItem wraps a DeviceDescriptor for use with bubbles/list
type deviceItem struct {
	device discovery.DeviceDescriptor
}

// Implement list.Item / DefaultItem interfaces
func (d deviceItem) FilterValue() string {
	return d.device.Name + " " + d.device.Address + " " + d.device.Hostname
}

func (d deviceItem) Title() string {
	return d.device.Name
}

func (d deviceItem) Description() string {
	codecs := strings.Join(d.device.Codecs, ",")
	if codecs == "" {
		codecs = "unknown"
	}
	return fmt.Sprintf("%s • %s • %dch", d.device.Addr(), codecs, d.device.Channels)
}

// PickerModel represents the receiver picker screen state
type PickerModel struct {
	scanning bool
	timeout  time.Duration

	spinner    spinner.Model
	deviceList list.Model
	keys       pickerKeyMap

	choice *discovery.DeviceDescriptor
	err    error
	width  int
}

// NewPicker creates a picker that scans for the given window before
// showing results.
func NewPicker(timeout time.Duration) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	deviceList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	deviceList.Title = "AirCast Receivers"
	deviceList.SetShowStatusBar(false)
	deviceList.SetFilteringEnabled(true)
	deviceList.Styles.Title = TitleStyle

	keys := pickerKeyMap{
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return PickerModel{
		scanning:   true,
		timeout:    timeout,
		spinner:    s,
		deviceList: deviceList,
		keys:       keys,
		width:      GetContentWidth(),
	}
}

// scanCmd runs one discovery cycle and reports the result.
func scanCmd(timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		browser := discovery.NewBrowser()
		if err := browser.Start(); err != nil {
			return scanCompleteMsg{err: err}
		}
		time.Sleep(timeout)
		devices := browser.Snapshot()
		browser.Stop()
		return scanCompleteMsg{devices: devices}
	}
}

// Init starts scanning immediately
func (m PickerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, scanCmd(m.timeout))
}

// Update handles messages
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.deviceList.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanCompleteMsg:
		m.scanning = false
		m.err = msg.err
		items := make([]list.Item, 0, len(msg.devices))
		for _, d := range msg.devices {
			items = append(items, deviceItem{device: d})
		}
		m.deviceList.SetItems(items)
		return m, nil

	case tea.KeyMsg:
		// Let the list's filter input consume keys while active.
		if m.deviceList.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Rescan):
			if m.scanning {
				return m, nil
			}
			m.scanning = true
			m.err = nil
			m.deviceList.SetItems(nil)
			return m, tea.Batch(m.spinner.Tick, scanCmd(m.timeout))

		case key.Matches(msg, m.keys.Enter):
			if item, ok := m.deviceList.SelectedItem().(deviceItem); ok {
				device := item.device
				m.choice = &device
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

// View renders the picker
func (m PickerModel) View() string {
	if m.scanning {
		return "\n" + m.spinner.View() +
			ScanningStyle.Render("Scanning for AirCast receivers...") + "\n\n" +
			HelpStyle.Render("q quit") + "\n"
	}

	if m.err != nil {
		return "\n" + ErrorStyle.Render(fmt.Sprintf("Scan failed: %v", m.err)) + "\n\n" +
			HelpStyle.Render("r rescan • q quit") + "\n"
	}

	if len(m.deviceList.Items()) == 0 {
		return "\n" + EmptyStyle.Render("No receivers found on the local network.") + "\n\n" +
			HelpStyle.Render("r rescan • q quit") + "\n"
	}

	return m.deviceList.View() + "\n" +
		HelpStyle.Render("enter select • r rescan • q quit") + "\n"
}

// PickDevice runs the interactive picker and returns the chosen
// receiver. Returns (nil, nil) when the user quits without selecting.
func PickDevice(timeout time.Duration) (*discovery.DeviceDescriptor, error) {
	program := tea.NewProgram(NewPicker(timeout))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("picker failed: %w", err)
	}

	m, ok := final.(PickerModel)
	if !ok {
		return nil, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.choice, nil
}
