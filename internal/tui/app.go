package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/FrancoGavegno/agtasks-sub000/internal/config"
	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
	"github.com/FrancoGavegno/agtasks-sub000/internal/farm360"
	"github.com/FrancoGavegno/agtasks-sub000/internal/persist"
	"github.com/FrancoGavegno/agtasks-sub000/internal/schema"
	"github.com/FrancoGavegno/agtasks-sub000/internal/tracker"
	"github.com/FrancoGavegno/agtasks-sub000/internal/wizard"
)

// AppScreen represents the different screens in the wizard flow.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenProtocol
	ScreenLots
	ScreenTasks
	ScreenReview
)

// stageBox carries the pipeline's current stage from the submission
// goroutine to the UI. A tick command polls it while submitting.
type stageBox struct {
	mu    sync.Mutex
	stage wizard.Stage
}

func (b *stageBox) set(s wizard.Stage) {
	b.mu.Lock()
	b.stage = s
	b.mu.Unlock()
}

func (b *stageBox) get() wizard.Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage
}

// AppModel is the root Bubble Tea model that manages screen transitions.
// It orchestrates the flow protocol -> lots -> tasks -> review/submit and
// owns all data fetching; step models only hold cursor state and read the
// shared wizard store.
type AppModel struct {
	// Dependencies
	ctx     context.Context
	log     *zap.Logger
	cfg     *config.Config
	tracker *tracker.Client
	farm    *farm360.Client
	persist *persist.Client

	// CLI flag (the project the wizard runs against)
	projectID string

	// Wizard state, created once the project is loaded
	store    *wizard.Store
	stepper  *wizard.Stepper
	pipeline *wizard.Pipeline
	stages   *stageBox

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	loadingMsg    string
	toast         string
	width         int

	// Cached models to preserve cursor state across screen transitions
	protocolModel *ProtocolStepModel
	lotsModel     *LotsStepModel
	tasksModel    *TasksStepModel
	reviewModel   *ReviewStepModel
}

// NewAppModel creates the root model. projectID selects the project the
// service is created under.
func NewAppModel(ctx context.Context, log *zap.Logger, cfg *config.Config, trackerClient *tracker.Client, farmClient *farm360.Client, persistClient *persist.Client, projectID string) AppModel {
	return AppModel{
		ctx:           ctx,
		log:           log,
		cfg:           cfg,
		tracker:       trackerClient,
		farm:          farmClient,
		persist:       persistClient,
		projectID:     projectID,
		stages:        &stageBox{},
		currentScreen: ScreenLoading,
		loadingMsg:    "Loading project...",
	}
}

// Init starts the flow by loading the project.
func (m AppModel) Init() tea.Cmd {
	return m.loadProject()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m.delegate(msg)

	case tea.KeyMsg:
		// Global quit handler while no screen is active
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case fetchFailedMsg:
		// Reference-data fetches fail inline: show the error on the status
		// line and stay interactive so the user can retry. When the failed
		// fetch was a step's entry load, fall back to the previous step.
		m.toast = msg.err.Error()
		if msg.revert {
			m.stepper.Prev()
			return m.showStep()
		}
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case projectLoadedMsg:
		m.store = wizard.New(msg.project)
		m.stepper = wizard.NewStepper(m.store, wizard.StepReview)
		m.pipeline = wizard.NewPipeline(m.tracker, m.persist, m.log, m.cfg.App.BaseURL, m.cfg.UserEmail)
		m.loadingMsg = fmt.Sprintf("Loading protocols for %s...", msg.project.Name)
		return m, m.loadProtocols()

	case protocolsLoadedMsg:
		m.store.SetProtocols(msg.protocols)
		m.currentScreen = ScreenProtocol
		model := NewProtocolStepModel(m.store)
		m.protocolModel = &model
		m.currentModel = m.protocolModel.asModel()
		return m, nil

	case ProtocolSelectedMsg:
		m.toast = fmt.Sprintf("Loading tasks for %s...", msg.Protocol.Name)
		return m.delegate(msg, m.loadTemplates(msg.Protocol))

	case templatesLoadedMsg:
		m.store.SelectProtocol(msg.protocol, msg.entries)
		m.toast = fmt.Sprintf("%d tasks from %s", len(m.store.Tasks()), msg.protocol.Name)
		return m.delegate(msg)

	case NextStepMsg:
		if err := m.stepper.Next(); err != nil {
			m.toast = err.Error()
			return m, nil
		}
		m.toast = ""
		return m.showStep()

	case PrevStepMsg:
		m.stepper.Prev()
		m.toast = ""
		return m.showStep()

	case workspacesLoadedMsg:
		m.store.Cascade().SetWorkspaces(msg.workspaces)
		m.currentScreen = ScreenLots
		if m.lotsModel == nil {
			model := NewLotsStepModel(m.store)
			m.lotsModel = &model
		}
		m.currentModel = m.lotsModel.asModel()
		return m.delegate(msg)

	case WorkspaceSelectedMsg:
		m.store.Cascade().SelectWorkspace(msg.Workspace)
		return m.delegate(msg, m.loadSeasons(msg.Workspace.ID))

	case seasonsLoadedMsg:
		if err := m.store.Cascade().SetSeasons(msg.seasons); err != nil {
			m.toast = err.Error()
			return m, nil
		}
		return m.delegate(msg)

	case SeasonSelectedMsg:
		if err := m.store.Cascade().SelectSeason(msg.Season); err != nil {
			m.toast = err.Error()
			return m, nil
		}
		ws := m.store.Cascade().Workspace()
		return m.delegate(msg, m.loadFarms(ws.ID, msg.Season.ID))

	case farmsLoadedMsg:
		if err := m.store.Cascade().SetFarms(msg.farms); err != nil {
			m.toast = err.Error()
			return m, nil
		}
		return m.delegate(msg)

	case FarmSelectedMsg:
		if err := m.store.Cascade().SelectFarm(msg.Farm); err != nil {
			m.toast = err.Error()
			return m, nil
		}
		ws := m.store.Cascade().Workspace()
		season := m.store.Cascade().Season()
		return m.delegate(msg, m.loadLots(ws.ID, season.ID, msg.Farm.ID))

	case lotsLoadedMsg:
		if err := m.store.Cascade().SetFields(msg.lots); err != nil {
			m.toast = err.Error()
			return m, nil
		}
		return m.delegate(msg)

	case referenceLoadedMsg:
		m.store.SetUsers(msg.users)
		m.store.SetForms(msg.forms)
		m.currentScreen = ScreenTasks
		if m.tasksModel == nil {
			model := NewTasksStepModel(m.store)
			m.tasksModel = &model
		}
		m.currentModel = m.tasksModel.asModel()
		return m.delegate(msg)

	case FormSchemaRequestedMsg:
		m.toast = "Loading form..."
		return m.delegate(msg, m.loadFormSchema(msg.FormID, msg.TaskName))

	case formSchemaLoadedMsg:
		m.toast = ""
		return m.delegate(msg)

	case SubmitMsg:
		if err := m.stepper.ValidateSubmit(); err != nil {
			m.toast = err.Error()
			return m, nil
		}
		m.toast = ""
		return m.delegate(submitStartedMsg{}, m.runPipeline())

	case submitDoneMsg:
		if msg.err != nil {
			m.log.Error("submission failed", zap.Error(msg.err))
			return m.delegate(msg)
		}
		m.log.Info("submission complete", zap.String("issue", msg.result.IssueKey))
		return m.delegate(msg, m.loadIssueStatus(msg.result.IssueKey))
	}

	return m.delegate(msg)
}

// delegate forwards msg to the current screen's model and keeps the cached
// step models in sync.
func (m AppModel) delegate(msg tea.Msg, extra ...tea.Cmd) (tea.Model, tea.Cmd) {
	if m.currentModel == nil {
		if len(extra) > 0 {
			return m, tea.Batch(extra...)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.currentModel, cmd = m.currentModel.Update(msg)
	switch m.currentScreen {
	case ScreenProtocol:
		if sm, ok := m.currentModel.(ProtocolStepModel); ok {
			m.protocolModel = &sm
		}
	case ScreenLots:
		if sm, ok := m.currentModel.(LotsStepModel); ok {
			m.lotsModel = &sm
		}
	case ScreenTasks:
		if sm, ok := m.currentModel.(TasksStepModel); ok {
			m.tasksModel = &sm
		}
	case ScreenReview:
		if sm, ok := m.currentModel.(ReviewStepModel); ok {
			m.reviewModel = &sm
		}
	}
	return m, tea.Batch(append(extra, cmd)...)
}

// showStep switches the visible screen to the stepper's current step,
// triggering the step's data load when its cache is still empty.
func (m AppModel) showStep() (tea.Model, tea.Cmd) {
	switch m.stepper.Current() {
	case wizard.StepProtocol:
		m.currentScreen = ScreenProtocol
		m.currentModel = m.protocolModel.asModel()
		return m, nil

	case wizard.StepLots:
		if _, ok := m.store.Cascade().Workspaces(); !ok {
			m.currentScreen = ScreenLoading
			m.currentModel = nil
			m.loadingMsg = "Loading workspaces..."
			return m, m.loadWorkspaces()
		}
		m.currentScreen = ScreenLots
		if m.lotsModel == nil {
			model := NewLotsStepModel(m.store)
			m.lotsModel = &model
		}
		m.currentModel = m.lotsModel.asModel()
		return m, nil

	case wizard.StepTasks:
		_, usersLoaded := m.store.Users()
		_, formsLoaded := m.store.Forms()
		if !usersLoaded || !formsLoaded {
			m.currentScreen = ScreenLoading
			m.currentModel = nil
			m.loadingMsg = "Loading users and forms..."
			return m, m.loadReference()
		}
		m.currentScreen = ScreenTasks
		if m.tasksModel == nil {
			model := NewTasksStepModel(m.store)
			m.tasksModel = &model
		}
		m.currentModel = m.tasksModel.asModel()
		return m, nil

	case wizard.StepReview:
		m.currentScreen = ScreenReview
		if m.reviewModel == nil {
			model := NewReviewStepModel(m.store, m.stages, m.cfg.Tracker.BaseURL)
			m.reviewModel = &model
		}
		m.currentModel = m.reviewModel.asModel()
		return m, nil
	}
	return m, nil
}

// View renders the current screen plus the transient status line.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	var body string
	if m.currentModel != nil {
		body = m.currentModel.View()
	} else {
		body = m.loadingMsg + "\n\nPress Ctrl+C to quit"
	}

	if m.toast != "" {
		width := m.width
		if width <= 0 {
			width = 80
		}
		body += "\n" + ToastStyle.Render(wordwrap.String(m.toast, width))
	}
	return body
}

// loadProject creates a command to fetch the project the wizard runs for.
func (m AppModel) loadProject() tea.Cmd {
	return func() tea.Msg {
		project, err := m.persist.GetProject(m.ctx, m.projectID)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to load project %s: %w", m.projectID, err)}
		}
		return projectLoadedMsg{project: project}
	}
}

// loadProtocols creates a command to list the domain's protocols.
func (m AppModel) loadProtocols() tea.Cmd {
	domainID := m.store.Project().DomainID
	return func() tea.Msg {
		protocols, err := m.persist.ListDomainProtocols(m.ctx, domainID)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to list protocols: %w", err)}
		}
		if len(protocols) == 0 {
			return ErrorMsg{Err: fmt.Errorf("no protocols configured for domain %s", domainID)}
		}
		return protocolsLoadedMsg{protocols: protocols}
	}
}

// loadTemplates creates a command to fetch a protocol's template tasks
// from the tracker.
func (m AppModel) loadTemplates(p domain.Protocol) tea.Cmd {
	project := m.store.Project()
	return func() tea.Msg {
		entries, err := m.tracker.ListTemplateTasks(m.ctx, project.DomainID, project.ID, p.TmProtocolID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to load tasks for protocol %s: %w", p.Name, err)}
		}
		return templatesLoadedMsg{protocol: p, entries: entries}
	}
}

// loadWorkspaces creates a command to list the user's workspaces.
func (m AppModel) loadWorkspaces() tea.Cmd {
	project := m.store.Project()
	email := m.cfg.UserEmail
	return func() tea.Msg {
		workspaces, err := m.farm.ListWorkspaces(m.ctx, email, project.DomainID, project.AreaID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to list workspaces: %w", err), revert: true}
		}
		return workspacesLoadedMsg{workspaces: workspaces}
	}
}

func (m AppModel) loadSeasons(workspaceID string) tea.Cmd {
	return func() tea.Msg {
		seasons, err := m.farm.ListSeasons(m.ctx, workspaceID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to list seasons: %w", err)}
		}
		return seasonsLoadedMsg{seasons: seasons}
	}
}

func (m AppModel) loadFarms(workspaceID, seasonID string) tea.Cmd {
	return func() tea.Msg {
		farms, err := m.farm.ListFarms(m.ctx, workspaceID, seasonID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to list farms: %w", err)}
		}
		return farmsLoadedMsg{farms: farms}
	}
}

func (m AppModel) loadLots(workspaceID, seasonID, farmID string) tea.Cmd {
	return func() tea.Msg {
		lots, err := m.farm.ListFields(m.ctx, workspaceID, seasonID, farmID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to list fields: %w", err)}
		}
		return lotsLoadedMsg{lots: lots}
	}
}

// loadReference creates a command to fetch the domain's users and forms
// for the task assignment step.
func (m AppModel) loadReference() tea.Cmd {
	domainID := m.store.Project().DomainID
	return func() tea.Msg {
		users, err := m.farm.ListUsersByDomain(m.ctx, domainID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to list users: %w", err), revert: true}
		}
		forms, err := m.persist.ListDomainForms(m.ctx, domainID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to list forms: %w", err), revert: true}
		}
		return referenceLoadedMsg{users: users, forms: forms}
	}
}

// loadFormSchema creates a command to fetch a data-collection form's
// field schema.
func (m AppModel) loadFormSchema(formID, taskName string) tea.Cmd {
	return func() tea.Msg {
		form, err := m.persist.GetFormSchema(m.ctx, formID)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to load form %s: %w", formID, err)}
		}
		return formSchemaLoadedMsg{taskName: taskName, form: form}
	}
}

// loadIssueStatus creates a command to fetch the created issue's tracker
// status for the result screen.
func (m AppModel) loadIssueStatus(key string) tea.Cmd {
	return func() tea.Msg {
		issue, err := m.tracker.GetIssue(m.ctx, key)
		if err != nil {
			return fetchFailedMsg{err: fmt.Errorf("failed to fetch issue %s: %w", key, err)}
		}
		return issueStatusLoadedMsg{issue: issue}
	}
}

// runPipeline creates a command that runs the submission pipeline. Stage
// progress flows through the shared stage box, polled by the review model.
func (m AppModel) runPipeline() tea.Cmd {
	pipeline := m.pipeline
	store := m.store
	box := m.stages
	ctx := m.ctx
	return func() tea.Msg {
		result, err := pipeline.Run(ctx, store, box.set)
		return submitDoneMsg{result: result, err: err}
	}
}

// Custom messages for app transitions.
type (
	projectLoadedMsg struct {
		project domain.Project
	}

	protocolsLoadedMsg struct {
		protocols []domain.Protocol
	}

	templatesLoadedMsg struct {
		protocol domain.Protocol
		entries  []domain.TaskTemplateEntry
	}

	workspacesLoadedMsg struct {
		workspaces []domain.Workspace
	}

	seasonsLoadedMsg struct {
		seasons []domain.Season
	}

	farmsLoadedMsg struct {
		farms []domain.Farm
	}

	lotsLoadedMsg struct {
		lots []domain.Lot
	}

	referenceLoadedMsg struct {
		users []domain.User
		forms []domain.Form
	}

	formSchemaLoadedMsg struct {
		taskName string
		form     schema.Form
	}

	// fetchFailedMsg carries a non-fatal reference-data fetch error to the
	// status line. revert steps back when the fetch was a step's entry load.
	fetchFailedMsg struct {
		err    error
		revert bool
	}

	submitStartedMsg struct{}

	submitDoneMsg struct {
		result *wizard.Result
		err    error
	}

	issueStatusLoadedMsg struct {
		issue tracker.Issue
	}
)
