package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
	"github.com/FrancoGavegno/agtasks-sub000/internal/wizard"
)

// protocolItem wraps a domain.Protocol for use in bubbles/list.
type protocolItem struct {
	protocol domain.Protocol
}

func (i protocolItem) FilterValue() string {
	return i.protocol.Name
}

// protocolDelegate is a custom item delegate for protocol items.
type protocolDelegate struct{}

func (d protocolDelegate) Height() int                             { return 1 }
func (d protocolDelegate) Spacing() int                            { return 0 }
func (d protocolDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d protocolDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(protocolItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i.protocol.Name)
	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
	}
}

// Focus targets within the protocol step.
type protocolFocus int

const (
	focusProtocolList protocolFocus = iota
	focusServiceName
)

// ProtocolStepModel is the first wizard step: pick a protocol and name the
// service. Picking a protocol triggers a template-task fetch; once the
// tasks arrive, focus moves to the name input.
type ProtocolStepModel struct {
	store *wizard.Store

	list  list.Model
	input textinput.Model
	focus protocolFocus
}

// NewProtocolStepModel creates the protocol step from the store's loaded
// protocol catalog.
func NewProtocolStepModel(store *wizard.Store) ProtocolStepModel {
	protocols, _ := store.Protocols()
	items := make([]list.Item, len(protocols))
	for i, p := range protocols {
		items[i] = protocolItem{protocol: p}
	}

	l := list.New(items, protocolDelegate{}, 80, 14)
	l.Title = "Select a Protocol"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	input := textinput.New()
	input.Placeholder = "Service name"
	input.CharLimit = 120
	input.Width = 48
	input.SetValue(store.ServiceName())

	return ProtocolStepModel{
		store: store,
		list:  l,
		input: input,
	}
}

func (m *ProtocolStepModel) asModel() tea.Model { return *m }

// Init initializes the model.
func (m ProtocolStepModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m ProtocolStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 2)
		m.list.SetHeight(msg.Height - 8)
		return m, nil

	case templatesLoadedMsg:
		// Tasks arrived for the picked protocol, move on to naming
		m.focus = focusServiceName
		return m, m.input.Focus()

	case tea.KeyMsg:
		if m.focus == focusServiceName {
			switch msg.String() {
			case "esc":
				m.focus = focusProtocolList
				m.input.Blur()
				return m, nil
			case "enter":
				return m, func() tea.Msg {
					return NextStepMsg{}
				}
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.store.SetServiceName(m.input.Value())
			return m, cmd
		}

		// Keep list filtering keys away from our shortcuts
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, func() tea.Msg {
				return QuitMsg{}
			}
		case "tab":
			if _, err := m.store.Protocol(); err == nil {
				m.focus = focusServiceName
				return m, m.input.Focus()
			}
			return m, nil
		case "enter":
			if item, ok := m.list.SelectedItem().(protocolItem); ok {
				return m, func() tea.Msg {
					return ProtocolSelectedMsg{Protocol: item.protocol}
				}
			}
		}
	}

	if m.focus == focusProtocolList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the model.
func (m ProtocolStepModel) View() string {
	view := StepBarStyle.Render("Step 1 of 4 · Protocol") + "\n"
	view += m.list.View() + "\n"

	if p, err := m.store.Protocol(); err == nil {
		view += DimStyle.Render(fmt.Sprintf("Protocol: %s", p.Name)) + "\n"
	}
	view += PromptStyle.Render("Service name:") + " " + m.input.View() + "\n"

	if m.focus == focusServiceName {
		view += HelpStyle.Render("enter continue · esc back to protocols")
	} else {
		view += HelpStyle.Render("enter select · tab name service · / filter · q quit")
	}
	return view
}
