package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FrancoGavegno/agtasks-sub000/internal/schema"
	"github.com/FrancoGavegno/agtasks-sub000/internal/wizard"
)

// formDataDoneMsg closes the form-data screen.
type formDataDoneMsg struct{}

// formRow is one renderable line of the form: a scalar field, a subform
// header, or a subform cell with its path composed for the row index.
type formRow struct {
	field   schema.Field
	header  bool
	subform string // owning subform path, "" for top-level fields
	rowIdx  int
}

// FormDataModel renders a form schema over a nested values object. Every
// change is mirrored whole into the wizard store under the task-data key;
// no per-field validation happens here, that stays with the owning step.
// Fields of unknown kinds are skipped, not rendered.
type FormDataModel struct {
	store    *wizard.Store
	taskName string
	state    *schema.State

	rows    []formRow
	cursor  int
	editing bool
	input   textinput.Model
	note    string
}

// NewFormDataModel creates the screen for one task's data-collection form,
// seeded with whatever task data the store already holds.
func NewFormDataModel(store *wizard.Store, taskName string, form schema.Form) FormDataModel {
	m := FormDataModel{
		store:    store,
		taskName: taskName,
		state:    schema.NewState(form, store.TaskData()),
	}
	m.rebuild()
	return m
}

// rebuild flattens the form into renderable rows. Subforms contribute a
// header plus one cell row per template field per data row.
func (m *FormDataModel) rebuild() {
	m.rows = m.rows[:0]
	for _, f := range m.state.Form.Fields {
		switch f.Kind {
		case schema.KindSubform:
			m.rows = append(m.rows, formRow{field: f, header: true, subform: f.Path, rowIdx: -1})
			for i := 0; i < m.state.RowCount(f.Path); i++ {
				for _, t := range f.Fields {
					cell := t
					cell.Path = fmt.Sprintf("%s[%d].%s", f.Path, i, t.Path)
					m.rows = append(m.rows, formRow{field: cell, subform: f.Path, rowIdx: i})
				}
			}
		case schema.KindText, schema.KindEmail, schema.KindPassword, schema.KindNumber,
			schema.KindTextarea, schema.KindSelect, schema.KindDate, schema.KindCheckbox,
			schema.KindFile:
			m.rows = append(m.rows, formRow{field: f, rowIdx: -1})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// mirror pushes the whole values object into the store.
func (m *FormDataModel) mirror() {
	m.store.SetTaskData(m.state.Snapshot())
}

// Init initializes the model.
func (m FormDataModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m FormDataModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.editing {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.editing {
		return m.updateEdit(key)
	}

	switch key.String() {
	case "esc":
		return m, func() tea.Msg { return formDataDoneMsg{} }

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case "+":
		if row, ok := m.currentRow(); ok && row.subform != "" {
			if _, err := m.state.AddRow(row.subform); err != nil {
				m.note = err.Error()
				return m, nil
			}
			m.rebuild()
			m.mirror()
		}
		return m, nil

	case "-":
		if row, ok := m.currentRow(); ok && row.subform != "" && !row.header {
			if err := m.state.RemoveRow(row.subform, row.rowIdx); err != nil {
				m.note = err.Error()
				return m, nil
			}
			m.rebuild()
			m.mirror()
		}
		return m, nil

	case "enter":
		return m.activateRow()
	}

	return m, nil
}

// activateRow edits or toggles the row under the cursor.
func (m FormDataModel) activateRow() (tea.Model, tea.Cmd) {
	row, ok := m.currentRow()
	if !ok {
		return m, nil
	}
	m.note = ""

	if row.header {
		// Enter on a subform header appends a row
		if _, err := m.state.AddRow(row.subform); err != nil {
			m.note = err.Error()
			return m, nil
		}
		m.rebuild()
		m.mirror()
		return m, nil
	}

	switch row.field.Kind {
	case schema.KindCheckbox:
		cur, _ := m.state.Get(row.field.Path)
		b, _ := cur.(bool)
		if err := m.state.Set(row.field.Path, !b); err != nil {
			m.note = err.Error()
			return m, nil
		}
		m.mirror()
		return m, nil

	case schema.KindSelect:
		// Cycle through the options
		if len(row.field.Options) == 0 {
			m.note = fmt.Sprintf("field %q has no options", row.field.Label)
			return m, nil
		}
		cur, _ := m.state.Get(row.field.Path)
		next := 0
		for i, opt := range row.field.Options {
			if opt.Value == cur {
				next = (i + 1) % len(row.field.Options)
				break
			}
		}
		if err := m.state.Set(row.field.Path, row.field.Options[next].Value); err != nil {
			m.note = err.Error()
			return m, nil
		}
		m.mirror()
		return m, nil

	default:
		input := textinput.New()
		input.Placeholder = row.field.Placeholder
		input.CharLimit = 250
		input.Width = 40
		input.SetValue(m.valueString(row.field))
		m.input = input
		m.editing = true
		return m, m.input.Focus()
	}
}

// updateEdit handles keys while a text edit is open.
func (m FormDataModel) updateEdit(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.editing = false
		return m, nil

	case "enter":
		row, ok := m.currentRow()
		if !ok {
			m.editing = false
			return m, nil
		}
		if err := m.state.SetString(row.field, m.input.Value()); err != nil {
			m.note = err.Error()
			return m, nil
		}
		m.editing = false
		m.mirror()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m FormDataModel) currentRow() (formRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return formRow{}, false
	}
	return m.rows[m.cursor], true
}

// valueString formats the stored value of a field for display and editing.
func (m FormDataModel) valueString(field schema.Field) string {
	v, ok := m.state.Get(field.Path)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// View renders the model.
func (m FormDataModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s · %s", m.state.Form.Name, m.taskName)) + "\n\n")

	for i, row := range m.rows {
		var line string
		switch {
		case row.header:
			line = fmt.Sprintf("%s %s", row.field.Label, DimStyle.Render(fmt.Sprintf("(%d rows)", m.state.RowCount(row.subform))))
		case row.field.Kind == schema.KindCheckbox:
			check := "[ ]"
			if v, _ := m.state.Get(row.field.Path); v == true {
				check = "[x]"
			}
			line = fmt.Sprintf("%s %s", check, row.field.Label)
		default:
			label := row.field.Label
			if row.subform != "" {
				label = fmt.Sprintf("  %d. %s", row.rowIdx+1, row.field.Label)
			}
			value := m.valueString(row.field)
			if row.field.Kind == schema.KindSelect {
				for _, opt := range row.field.Options {
					if opt.Value == value {
						value = opt.Label
						break
					}
				}
			}
			if row.field.Kind == schema.KindPassword && value != "" {
				value = strings.Repeat("*", len(value))
			}
			if value == "" {
				value = DimStyle.Render("empty")
			}
			line = fmt.Sprintf("%-28s %s", label, value)
			if i == m.cursor && m.editing {
				line = fmt.Sprintf("%-28s %s", label, m.input.View())
			}
		}

		if i == m.cursor {
			b.WriteString(SelectedItemStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(NormalItemStyle.Render("  "+line) + "\n")
		}
	}

	if m.note != "" {
		b.WriteString("\n" + ToastStyle.Render(m.note) + "\n")
	}
	if m.editing {
		b.WriteString(HelpStyle.Render("enter save · esc cancel"))
	} else {
		b.WriteString(HelpStyle.Render("enter edit/toggle · + add row · - remove row · esc done"))
	}
	return b.String()
}
