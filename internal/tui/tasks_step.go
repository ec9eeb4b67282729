package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
	"github.com/FrancoGavegno/agtasks-sub000/internal/wizard"
)

// userItem wraps a domain.User for use in bubbles/list.
type userItem struct {
	user domain.User
}

func (i userItem) FilterValue() string {
	return i.user.FullName() + " " + i.user.Email
}

// formItem wraps a domain.Form for use in bubbles/list.
type formItem struct {
	form domain.Form
}

func (i formItem) FilterValue() string {
	return i.form.Name
}

// pickerDelegate renders user and form rows.
type pickerDelegate struct{}

func (d pickerDelegate) Height() int                             { return 1 }
func (d pickerDelegate) Spacing() int                            { return 0 }
func (d pickerDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d pickerDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	var str string
	switch i := item.(type) {
	case userItem:
		str = fmt.Sprintf("%s <%s>", i.user.FullName(), i.user.Email)
	case formItem:
		str = i.form.Name
	default:
		return
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
	}
}

// pickMode says which sub-picker is open over the task table.
type pickMode int

const (
	pickNone pickMode = iota
	pickUser
	pickForm
	pickData
)

// TasksStepModel is the third wizard step: enable or disable the
// protocol's tasks and assign each enabled one a user, plus a form for
// field visits. Assignments go through the store's edit buffer so
// cancelling a picker leaves the task untouched.
type TasksStepModel struct {
	store *wizard.Store

	cursor    int
	mode      pickMode
	picker    list.Model
	dataModel FormDataModel
	keys      KeyMap
	help      help.Model
}

// NewTasksStepModel creates the tasks step.
func NewTasksStepModel(store *wizard.Store) TasksStepModel {
	return TasksStepModel{
		store: store,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

func (m *TasksStepModel) asModel() tea.Model { return *m }

// Init initializes the model.
func (m TasksStepModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m TasksStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		if m.mode != pickNone {
			m.picker.SetWidth(msg.Width - 2)
		}
		return m, nil

	case formSchemaLoadedMsg:
		m.dataModel = NewFormDataModel(m.store, msg.taskName, msg.form)
		m.mode = pickData
		return m, nil

	case formDataDoneMsg:
		m.mode = pickNone
		return m, nil

	case tea.KeyMsg:
		if m.mode == pickData {
			updated, cmd := m.dataModel.Update(msg)
			m.dataModel = updated.(FormDataModel)
			return m, cmd
		}
		if m.mode != pickNone {
			return m.updatePicker(msg)
		}

		tasks := m.store.Tasks()
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
			if m.cursor < len(tasks)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keys.Toggle):
			if m.cursor < len(tasks) {
				if err := m.store.SetTaskEnabled(m.cursor, !tasks[m.cursor].Enabled); err != nil {
					return m, func() tea.Msg { return ErrorMsg{Err: err} }
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.AssignUser):
			return m.openPicker(pickUser)

		case key.Matches(msg, m.keys.AssignForm):
			return m.openPicker(pickForm)

		case key.Matches(msg, m.keys.FillForm):
			if m.cursor < len(tasks) {
				task := tasks[m.cursor]
				if task.TaskType == domain.TaskTypeFieldVisit && task.FormID != "" {
					return m, func() tea.Msg {
						return FormSchemaRequestedMsg{FormID: task.FormID, TaskName: task.TaskName}
					}
				}
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

// openPicker starts an edit on the task under the cursor and shows the
// user or form list.
func (m TasksStepModel) openPicker(mode pickMode) (tea.Model, tea.Cmd) {
	tasks := m.store.Tasks()
	if m.cursor >= len(tasks) {
		return m, nil
	}
	if mode == pickForm && tasks[m.cursor].TaskType != domain.TaskTypeFieldVisit {
		return m, nil
	}
	if err := m.store.BeginTaskEdit(m.cursor); err != nil {
		return m, func() tea.Msg { return ErrorMsg{Err: err} }
	}

	var items []list.Item
	var title string
	switch mode {
	case pickUser:
		users, _ := m.store.Users()
		items = make([]list.Item, len(users))
		for i, u := range users {
			items[i] = userItem{user: u}
		}
		title = fmt.Sprintf("Assign a user to %s", tasks[m.cursor].TaskName)
	case pickForm:
		forms, _ := m.store.Forms()
		items = make([]list.Item, len(forms))
		for i, f := range forms {
			items[i] = formItem{form: f}
		}
		title = fmt.Sprintf("Pick a form for %s", tasks[m.cursor].TaskName)
	}

	l := list.New(items, pickerDelegate{}, 80, 14)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	m.mode = mode
	m.picker = l
	return m, nil
}

// updatePicker handles keys while a user or form picker is open.
func (m TasksStepModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc":
			if err := m.store.DiscardTaskEdit(); err != nil {
				return m, func() tea.Msg { return ErrorMsg{Err: err} }
			}
			m.mode = pickNone
			return m, nil

		case "enter":
			task := m.store.TempTask()
			if task == nil {
				m.mode = pickNone
				return m, nil
			}
			switch item := m.picker.SelectedItem().(type) {
			case userItem:
				task.UserEmail = item.user.Email
			case formItem:
				task.FormID = item.form.ID
			}
			if err := m.store.CommitTaskEdit(); err != nil {
				return m, func() tea.Msg { return ErrorMsg{Err: err} }
			}
			m.mode = pickNone
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// View renders the model.
func (m TasksStepModel) View() string {
	if m.mode == pickData {
		return m.dataModel.View()
	}
	if m.mode != pickNone {
		return m.picker.View() + "\n" + HelpStyle.Render("enter select · esc cancel · / filter")
	}

	var b strings.Builder
	b.WriteString(StepBarStyle.Render("Step 3 of 4 · Tasks") + "\n")
	b.WriteString(TitleStyle.Render("Assign Tasks") + "\n\n")

	users, _ := m.store.Users()
	byEmail := make(map[string]domain.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}
	forms, _ := m.store.Forms()
	formNames := make(map[string]string, len(forms))
	for _, f := range forms {
		formNames[f.ID] = f.Name
	}

	for i, task := range m.store.Tasks() {
		check := "[ ]"
		if task.Enabled {
			check = "[x]"
		}

		assignee := "unassigned"
		if task.UserEmail != "" {
			if u, ok := byEmail[task.UserEmail]; ok {
				assignee = u.FullName()
			} else {
				assignee = task.UserEmail
			}
		}

		line := fmt.Sprintf("%s %-32s %-12s %s", check, task.TaskName, task.TaskType, assignee)
		if task.TaskType == domain.TaskTypeFieldVisit {
			formName := "no form"
			if task.FormID != "" {
				if name, ok := formNames[task.FormID]; ok {
					formName = name
				} else {
					formName = task.FormID
				}
			}
			line += DimStyle.Render(" · " + formName)
		}

		if i == m.cursor {
			b.WriteString(SelectedItemStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(NormalItemStyle.Render("  "+line) + "\n")
		}
	}

	enabled := m.store.EnabledTasks()
	b.WriteString("\n" + DimStyle.Render(fmt.Sprintf("%d tasks enabled", len(enabled))) + "\n")
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}
