package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"

	"github.com/FrancoGavegno/agtasks-sub000/internal/wizard"
)

// stageTickMsg drives the stage label refresh while the pipeline runs.
type stageTickMsg struct{}

func stageTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return stageTickMsg{}
	})
}

// ReviewStepModel is the last wizard step: a summary of everything the run
// will create, the submit action, and the result screen. While the
// pipeline runs it shows a spinner with the current stage, polled from the
// shared stage box.
type ReviewStepModel struct {
	store          *wizard.Store
	stages         *stageBox
	trackerBaseURL string

	spinner     spinner.Model
	submitting  bool
	result      *wizard.Result
	submitErr   error
	issueStatus string
	width       int
}

// NewReviewStepModel creates the review step.
func NewReviewStepModel(store *wizard.Store, stages *stageBox, trackerBaseURL string) ReviewStepModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SelectedItemStyle
	return ReviewStepModel{
		store:          store,
		stages:         stages,
		trackerBaseURL: trackerBaseURL,
		spinner:        sp,
		width:          80,
	}
}

func (m *ReviewStepModel) asModel() tea.Model { return *m }

// Init initializes the model.
func (m ReviewStepModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m ReviewStepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil

	case submitStartedMsg:
		m.submitting = true
		m.submitErr = nil
		return m, tea.Batch(m.spinner.Tick, stageTick())

	case stageTickMsg:
		if m.submitting {
			return m, stageTick()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.submitting = false
		m.result = msg.result
		m.submitErr = msg.err
		return m, nil

	case issueStatusLoadedMsg:
		m.issueStatus = msg.issue.Status
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, func() tea.Msg { return QuitMsg{} }
		case "s":
			if m.result == nil {
				return m, func() tea.Msg { return SubmitMsg{} }
			}
		case "b":
			if m.result == nil {
				return m, func() tea.Msg { return PrevStepMsg{} }
			}
		case "o":
			if m.result != nil {
				url := fmt.Sprintf("%s/browse/%s", strings.TrimRight(m.trackerBaseURL, "/"), m.result.IssueKey)
				return m, func() tea.Msg {
					if err := browser.OpenURL(url); err != nil {
						return ErrorMsg{Err: fmt.Errorf("failed to open %s: %w", url, err)}
					}
					return nil
				}
			}
		}
	}

	return m, nil
}

// View renders the model.
func (m ReviewStepModel) View() string {
	if m.submitting {
		return TitleStyle.Render("Creating service") + "\n\n" +
			fmt.Sprintf("%s %s...", m.spinner.View(), m.stages.get()) + "\n"
	}

	if m.result != nil {
		return m.resultView()
	}

	var b strings.Builder
	b.WriteString(StepBarStyle.Render("Step 4 of 4 · Review") + "\n")
	b.WriteString(TitleStyle.Render("Review and Submit") + "\n\n")

	protocol, _ := m.store.Protocol()
	b.WriteString(fmt.Sprintf("Service:   %s\n", m.store.ServiceName()))
	b.WriteString(fmt.Sprintf("Protocol:  %s\n", protocol.Name))

	c := m.store.Cascade()
	if ws := c.Workspace(); ws != nil {
		crumb := ws.Name
		if season := c.Season(); season != nil {
			crumb += " > " + season.Name
		}
		if farm := c.Farm(); farm != nil {
			crumb += " > " + farm.Name
		}
		b.WriteString(fmt.Sprintf("Scope:     %s\n", crumb))
	}

	lots := c.SelectedLots()
	var hectares float64
	for _, lot := range lots {
		hectares += lot.Hectares
	}
	b.WriteString(fmt.Sprintf("Fields:    %d (%.1f ha)\n\n", len(lots), hectares))

	tasks := m.store.EnabledTasks()
	b.WriteString(fmt.Sprintf("Tasks (%d):\n", len(tasks)))
	for _, task := range tasks {
		b.WriteString(NormalItemStyle.Render(fmt.Sprintf("  %-32s %-12s %s", task.TaskName, task.TaskType, task.UserEmail)) + "\n")
	}

	if m.submitErr != nil {
		b.WriteString("\n" + ErrorStyle.Render(wordwrap.String("Submission failed: "+m.submitErr.Error(), m.width)) + "\n")
		b.WriteString(DimStyle.Render(wordwrap.String("Already created rows are kept; submitting again retries safely.", m.width)) + "\n")
	}

	b.WriteString(HelpStyle.Render("s submit · b back · q quit"))
	return b.String()
}

// resultView is shown after a successful run.
func (m ReviewStepModel) resultView() string {
	var b strings.Builder
	b.WriteString(SuccessStyle.Render("Service created") + "\n\n")
	b.WriteString(fmt.Sprintf("Issue:    %s\n", m.result.IssueKey))
	if m.issueStatus != "" {
		b.WriteString(fmt.Sprintf("Status:   %s\n", m.issueStatus))
	}
	b.WriteString(fmt.Sprintf("Service:  %s\n", m.result.Service.Name))
	b.WriteString(fmt.Sprintf("Fields:   %d\n", len(m.result.FieldRowIDs)))
	b.WriteString(fmt.Sprintf("Tasks:    %d\n", len(m.result.Tasks)))
	for _, task := range m.result.Tasks {
		b.WriteString(NormalItemStyle.Render(fmt.Sprintf("  %-32s %s", task.TaskName, task.SubtaskID)) + "\n")
	}
	b.WriteString(HelpStyle.Render("o open issue in browser · q quit"))
	return b.String()
}
