package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FrancoGavegno/agtasks-sub000/internal/wizard"
)

// cascadeLevel is the picker the lots step currently shows.
type cascadeLevel int

const (
	levelWorkspace cascadeLevel = iota
	levelSeason
	levelFarm
	levelField
)

// LotsStepModel is the second wizard step: walk the workspace -> season ->
// farm cascade and check off the fields the service covers. Selections
// survive moving between levels; changing an upstream pick clears the
// levels below it.
type LotsStepModel struct {
	store *wizard.Store

	level  cascadeLevel
	cursor int
	keys   KeyMap
	help   help.Model
}

// NewLotsStepModel creates the lots step.
func NewLotsStepModel(store *wizard.Store) LotsStepModel {
	return LotsStepModel{
		store: store,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

func (m *LotsStepModel) asModel() tea.Model { return *m }

// Init initializes the model.
func (m LotsStepModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// rowCount returns the number of rows at the current level.
func (m LotsStepModel) rowCount() int {
	c := m.store.Cascade()
	switch m.level {
	case levelWorkspace:
		workspaces, _ := c.Workspaces()
		return len(workspaces)
	case levelSeason:
		return len(c.Seasons())
	case levelFarm:
		return len(c.Farms())
	default:
		return len(c.Fields())
	}
}

// Update handles messages and updates the model state.
func (m LotsStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case seasonsLoadedMsg:
		m.level = levelSeason
		m.cursor = 0
		return m, nil

	case farmsLoadedMsg:
		m.level = levelFarm
		m.cursor = 0
		return m, nil

	case lotsLoadedMsg:
		m.level = levelField
		m.cursor = 0
		return m, nil

	case tea.KeyMsg:
		c := m.store.Cascade()
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, func() tea.Msg { return QuitMsg{} }

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.cursor < m.rowCount()-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keys.LevelUp):
			if m.level > levelWorkspace {
				m.level--
				m.cursor = 0
			}
			return m, nil

		case key.Matches(msg, m.keys.Select):
			return m.selectRow()

		case key.Matches(msg, m.keys.Toggle):
			if m.level == levelField {
				fields := c.Fields()
				if m.cursor < len(fields) {
					if err := c.ToggleField(fields[m.cursor].FieldID); err != nil {
						return m, func() tea.Msg { return ErrorMsg{Err: err} }
					}
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.ToggleAll):
			if m.level == levelField {
				c.ToggleAll()
			}
			return m, nil

		case key.Matches(msg, m.keys.Next):
			return m, func() tea.Msg { return NextStepMsg{} }

		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return PrevStepMsg{} }
		}
	}

	return m, nil
}

// selectRow picks the row under the cursor at the workspace, season, or
// farm level. The app fetches the next level and a loaded message moves
// us down.
func (m LotsStepModel) selectRow() (tea.Model, tea.Cmd) {
	c := m.store.Cascade()
	switch m.level {
	case levelWorkspace:
		workspaces, _ := c.Workspaces()
		if m.cursor < len(workspaces) {
			ws := workspaces[m.cursor]
			return m, func() tea.Msg { return WorkspaceSelectedMsg{Workspace: ws} }
		}
	case levelSeason:
		seasons := c.Seasons()
		if m.cursor < len(seasons) {
			season := seasons[m.cursor]
			return m, func() tea.Msg { return SeasonSelectedMsg{Season: season} }
		}
	case levelFarm:
		farms := c.Farms()
		if m.cursor < len(farms) {
			farm := farms[m.cursor]
			return m, func() tea.Msg { return FarmSelectedMsg{Farm: farm} }
		}
	}
	return m, nil
}

// View renders the model.
func (m LotsStepModel) View() string {
	c := m.store.Cascade()
	var b strings.Builder

	b.WriteString(StepBarStyle.Render("Step 2 of 4 · Lots") + "\n")
	b.WriteString(TitleStyle.Render(m.levelTitle()) + "\n")
	b.WriteString(m.breadcrumb() + "\n\n")

	switch m.level {
	case levelWorkspace:
		workspaces, _ := c.Workspaces()
		for i, ws := range workspaces {
			b.WriteString(m.row(i, ws.Name) + "\n")
		}
	case levelSeason:
		for i, season := range c.Seasons() {
			b.WriteString(m.row(i, season.Name) + "\n")
		}
	case levelFarm:
		for i, farm := range c.Farms() {
			b.WriteString(m.row(i, farm.Name) + "\n")
		}
	case levelField:
		fields := c.Fields()
		for i, lot := range fields {
			check := "[ ]"
			if c.IsSelected(lot.FieldID) {
				check = "[x]"
			}
			label := fmt.Sprintf("%s %-24s", check, lot.FieldName)
			detail := DimStyle.Render(fmt.Sprintf("%-14s %-14s %8.1f ha", lot.Crop, lot.Hybrid, lot.Hectares))
			b.WriteString(m.row(i, label+" "+detail) + "\n")
		}

		selected := c.SelectedLots()
		var hectares float64
		for _, lot := range selected {
			hectares += lot.Hectares
		}
		b.WriteString("\n" + DimStyle.Render(fmt.Sprintf("%d of %d fields selected · %.1f ha", len(selected), len(fields), hectares)) + "\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m LotsStepModel) levelTitle() string {
	switch m.level {
	case levelWorkspace:
		return "Select a Workspace"
	case levelSeason:
		return "Select a Season"
	case levelFarm:
		return "Select a Farm"
	default:
		return "Select Fields"
	}
}

// breadcrumb shows the cascade picks made so far.
func (m LotsStepModel) breadcrumb() string {
	c := m.store.Cascade()
	parts := make([]string, 0, 3)
	if ws := c.Workspace(); ws != nil {
		parts = append(parts, ws.Name)
	}
	if season := c.Season(); season != nil {
		parts = append(parts, season.Name)
	}
	if farm := c.Farm(); farm != nil {
		parts = append(parts, farm.Name)
	}
	if len(parts) == 0 {
		return DimStyle.Render("No selection yet")
	}
	return DimStyle.Render(strings.Join(parts, " > "))
}

func (m LotsStepModel) row(index int, text string) string {
	if index == m.cursor {
		return SelectedItemStyle.Render("> " + text)
	}
	return NormalItemStyle.Render("  " + text)
}
