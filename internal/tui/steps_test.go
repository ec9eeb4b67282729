package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
	"github.com/FrancoGavegno/agtasks-sub000/internal/schema"
	"github.com/FrancoGavegno/agtasks-sub000/internal/tracker"
	"github.com/FrancoGavegno/agtasks-sub000/internal/wizard"
)

// keyMsg builds a key message from its string form.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// runCmd executes a command and returns the message it produces.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

// createTestStore creates a store seeded through the full cascade with a
// protocol picked and reference data loaded.
func createTestStore() *wizard.Store {
	s := wizard.New(domain.Project{
		ID:       "proj-1",
		DomainID: "dom-1",
		Name:     "Test Project",
	})

	protocol := domain.Protocol{ID: "proto-1", TmProtocolID: "TMPL-1", Name: "Weed Control"}
	s.SetProtocols([]domain.Protocol{protocol})
	s.SelectProtocol(protocol, []domain.TaskTemplateEntry{
		{Key: "TMP-1", Summary: "Scout the lot", TaskType: domain.TaskTypeFieldVisit},
		{Key: "TMP-2", Summary: "Spray herbicide", TaskType: domain.TaskTypeTillage},
	})
	s.SetServiceName("Weed Control North")

	c := s.Cascade()
	c.SetWorkspaces([]domain.Workspace{{ID: "ws-1", Name: "North Workspace"}})
	c.SelectWorkspace(domain.Workspace{ID: "ws-1", Name: "North Workspace"})
	_ = c.SetSeasons([]domain.Season{{ID: "season-1", Name: "2026 Corn"}})
	_ = c.SelectSeason(domain.Season{ID: "season-1", Name: "2026 Corn"})
	_ = c.SetFarms([]domain.Farm{{ID: "farm-1", Name: "La Martina"}})
	_ = c.SelectFarm(domain.Farm{ID: "farm-1", Name: "La Martina"})
	_ = c.SetFields([]domain.Lot{
		{WorkspaceID: "ws-1", SeasonID: "season-1", FarmID: "farm-1", FieldID: "lot-1", FieldName: "Lot 1", Hectares: 50, Crop: "Corn"},
		{WorkspaceID: "ws-1", SeasonID: "season-1", FarmID: "farm-1", FieldID: "lot-2", FieldName: "Lot 2", Hectares: 30, Crop: "Corn"},
	})

	s.SetUsers([]domain.User{
		{Email: "ana@example.com", FirstName: "Ana", LastName: "Suarez"},
		{Email: "juan@example.com", FirstName: "Juan", LastName: "Perez"},
	})
	s.SetForms([]domain.Form{{ID: "form-1", Name: "Scouting Form"}})

	return s
}

func TestLotsStep_ToggleAndToggleAll(t *testing.T) {
	s := createTestStore()
	model := NewLotsStepModel(s)
	model.level = levelField

	// Toggle the field under the cursor
	updated, _ := model.Update(keyMsg(" "))
	model = updated.(LotsStepModel)
	assert.True(t, s.Cascade().IsSelected("lot-1"))
	assert.False(t, s.Cascade().IsSelected("lot-2"))

	// Toggle all selects the rest
	updated, _ = model.Update(keyMsg("a"))
	model = updated.(LotsStepModel)
	assert.Len(t, s.Cascade().SelectedLots(), 2)

	// Toggle all again clears everything
	_, _ = model.Update(keyMsg("a"))
	assert.Empty(t, s.Cascade().SelectedLots())
}

func TestLotsStep_SelectEmitsWorkspaceMsg(t *testing.T) {
	s := createTestStore()
	model := NewLotsStepModel(s)

	_, cmd := model.Update(keyMsg("enter"))
	msg := runCmd(t, cmd)

	selected, ok := msg.(WorkspaceSelectedMsg)
	require.True(t, ok, "enter at workspace level should emit WorkspaceSelectedMsg")
	assert.Equal(t, "ws-1", selected.Workspace.ID)
}

func TestLotsStep_EscGoesUpOneLevel(t *testing.T) {
	s := createTestStore()
	model := NewLotsStepModel(s)
	model.level = levelField

	updated, _ := model.Update(keyMsg("esc"))
	model = updated.(LotsStepModel)
	assert.Equal(t, levelFarm, model.level)

	// Cannot go above the workspace level
	model.level = levelWorkspace
	updated, _ = model.Update(keyMsg("esc"))
	model = updated.(LotsStepModel)
	assert.Equal(t, levelWorkspace, model.level)
}

func TestLotsStep_LoadedMsgsAdvanceLevel(t *testing.T) {
	s := createTestStore()
	model := NewLotsStepModel(s)

	updated, _ := model.Update(seasonsLoadedMsg{})
	model = updated.(LotsStepModel)
	assert.Equal(t, levelSeason, model.level)

	updated, _ = model.Update(farmsLoadedMsg{})
	model = updated.(LotsStepModel)
	assert.Equal(t, levelFarm, model.level)

	updated, _ = model.Update(lotsLoadedMsg{})
	model = updated.(LotsStepModel)
	assert.Equal(t, levelField, model.level)
}

func TestTasksStep_ToggleEnabled(t *testing.T) {
	s := createTestStore()
	model := NewTasksStepModel(s)

	updated, _ := model.Update(keyMsg(" "))
	model = updated.(TasksStepModel)
	assert.False(t, s.Tasks()[0].Enabled)

	_, _ = model.Update(keyMsg(" "))
	assert.True(t, s.Tasks()[0].Enabled)
}

func TestTasksStep_UserPickerCommits(t *testing.T) {
	s := createTestStore()
	model := NewTasksStepModel(s)

	updated, _ := model.Update(keyMsg("u"))
	model = updated.(TasksStepModel)
	require.Equal(t, pickUser, model.mode)

	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(TasksStepModel)
	assert.Equal(t, pickNone, model.mode)
	assert.Equal(t, "ana@example.com", s.Tasks()[0].UserEmail)
}

func TestTasksStep_PickerCancelLeavesTaskUntouched(t *testing.T) {
	s := createTestStore()
	model := NewTasksStepModel(s)

	updated, _ := model.Update(keyMsg("u"))
	model = updated.(TasksStepModel)
	require.Equal(t, pickUser, model.mode)

	updated, _ = model.Update(keyMsg("esc"))
	model = updated.(TasksStepModel)
	assert.Equal(t, pickNone, model.mode)
	assert.Empty(t, s.Tasks()[0].UserEmail)
}

func TestTasksStep_FormPickerOnlyForFieldVisits(t *testing.T) {
	s := createTestStore()
	model := NewTasksStepModel(s)

	// Second task is tillage, no form picker for it
	model.cursor = 1
	updated, _ := model.Update(keyMsg("f"))
	model = updated.(TasksStepModel)
	assert.Equal(t, pickNone, model.mode)

	// First task is a field visit
	model.cursor = 0
	updated, _ = model.Update(keyMsg("f"))
	model = updated.(TasksStepModel)
	require.Equal(t, pickForm, model.mode)

	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(TasksStepModel)
	assert.Equal(t, "form-1", s.Tasks()[0].FormID)
}

// createSamplingForm builds a schema with a scalar, a select, a checkbox,
// and a repeatable subform.
func createSamplingForm() schema.Form {
	return schema.Form{
		Name: "Scouting Form",
		Fields: []schema.Field{
			{Path: "observer", Label: "Observer", Kind: schema.KindText},
			{Path: "severity", Label: "Severity", Kind: schema.KindSelect, Options: []schema.Option{
				{Value: "low", Label: "Low"},
				{Value: "high", Label: "High"},
			}},
			{Path: "resample", Label: "Needs resample", Kind: schema.KindCheckbox},
			{Path: "samples", Label: "Samples", Kind: schema.KindSubform, Fields: []schema.Field{
				{Path: "weight", Label: "Weight", Kind: schema.KindNumber},
			}},
		},
	}
}

func TestFormData_SelectCyclesAndMirrors(t *testing.T) {
	s := createTestStore()
	model := NewFormDataModel(s, "Scout the lot", createSamplingForm())

	// Move to the select field and cycle it twice
	model.cursor = 1
	updated, _ := model.Update(keyMsg("enter"))
	model = updated.(FormDataModel)
	assert.Equal(t, "low", s.TaskData()["severity"])

	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(FormDataModel)
	assert.Equal(t, "high", s.TaskData()["severity"])
}

func TestFormData_CheckboxToggles(t *testing.T) {
	s := createTestStore()
	model := NewFormDataModel(s, "Scout the lot", createSamplingForm())

	model.cursor = 2
	updated, _ := model.Update(keyMsg("enter"))
	model = updated.(FormDataModel)
	assert.Equal(t, true, s.TaskData()["resample"])

	_, _ = model.Update(keyMsg("enter"))
	assert.Equal(t, false, s.TaskData()["resample"])
}

func TestFormData_TextEditCommitsWholeObject(t *testing.T) {
	s := createTestStore()
	model := NewFormDataModel(s, "Scout the lot", createSamplingForm())

	updated, _ := model.Update(keyMsg("enter"))
	model = updated.(FormDataModel)
	require.True(t, model.editing)

	updated, _ = model.Update(keyMsg("Ana"))
	model = updated.(FormDataModel)
	updated, _ = model.Update(keyMsg("enter"))
	model = updated.(FormDataModel)

	assert.False(t, model.editing)
	assert.Equal(t, "Ana", s.TaskData()["observer"])
}

func TestFormData_SubformRows(t *testing.T) {
	s := createTestStore()
	model := NewFormDataModel(s, "Scout the lot", createSamplingForm())

	// Enter on the subform header appends rows
	model.cursor = 3
	updated, _ := model.Update(keyMsg("enter"))
	model = updated.(FormDataModel)
	updated, _ = model.Update(keyMsg("+"))
	model = updated.(FormDataModel)
	require.Len(t, s.TaskData()["samples"], 2)

	// Removing the row under the cursor re-indexes the rest
	model.cursor = 4 // first sample cell
	updated, _ = model.Update(keyMsg("-"))
	model = updated.(FormDataModel)
	assert.Len(t, s.TaskData()["samples"], 1)
}

func TestFormData_EmptySelectIsInert(t *testing.T) {
	s := createTestStore()
	form := schema.Form{
		Name: "Broken Form",
		Fields: []schema.Field{
			{Path: "severity", Label: "Severity", Kind: schema.KindSelect},
		},
	}
	model := NewFormDataModel(s, "Scout the lot", form)

	var updated tea.Model
	require.NotPanics(t, func() {
		updated, _ = model.Update(keyMsg("enter"))
	})
	model = updated.(FormDataModel)

	_, set := s.TaskData()["severity"]
	assert.False(t, set, "an optionless select must not write a value")
	assert.Contains(t, model.note, "no options")
}

func TestFormData_EscEmitsDone(t *testing.T) {
	s := createTestStore()
	model := NewFormDataModel(s, "Scout the lot", createSamplingForm())

	_, cmd := model.Update(keyMsg("esc"))
	msg := runCmd(t, cmd)
	_, ok := msg.(formDataDoneMsg)
	assert.True(t, ok, "esc should close the form screen")
}

func TestTasksStep_FormDataFlowThroughPicker(t *testing.T) {
	s := createTestStore()
	require.NoError(t, s.AssignForm(0, "form-1"))
	model := NewTasksStepModel(s)

	// "d" on the field-visit task requests its schema
	_, cmd := model.Update(keyMsg("d"))
	msg := runCmd(t, cmd)
	requested, ok := msg.(FormSchemaRequestedMsg)
	require.True(t, ok)
	assert.Equal(t, "form-1", requested.FormID)

	// The loaded schema opens the form-data screen
	updated, _ := model.Update(formSchemaLoadedMsg{taskName: requested.TaskName, form: createSamplingForm()})
	model = updated.(TasksStepModel)
	require.Equal(t, pickData, model.mode)

	updated, _ = model.Update(formDataDoneMsg{})
	model = updated.(TasksStepModel)
	assert.Equal(t, pickNone, model.mode)
}

func TestReviewStep_SummaryView(t *testing.T) {
	s := createTestStore()
	s.Cascade().ToggleAll()
	require.NoError(t, s.AssignUser(0, "ana@example.com"))
	require.NoError(t, s.AssignUser(1, "juan@example.com"))
	require.NoError(t, s.AssignForm(0, "form-1"))

	model := NewReviewStepModel(s, &stageBox{}, "https://tracker.example.com")
	view := model.View()

	assert.True(t, strings.Contains(view, "Weed Control North"))
	assert.True(t, strings.Contains(view, "Weed Control"))
	assert.True(t, strings.Contains(view, "80.0 ha"))
	assert.True(t, strings.Contains(view, "Scout the lot"))
}

func TestReviewStep_SubmitEmitsMsg(t *testing.T) {
	s := createTestStore()
	model := NewReviewStepModel(s, &stageBox{}, "https://tracker.example.com")

	_, cmd := model.Update(keyMsg("s"))
	msg := runCmd(t, cmd)
	_, ok := msg.(SubmitMsg)
	assert.True(t, ok, "s should emit SubmitMsg")
}

func TestReviewStep_ResultView(t *testing.T) {
	s := createTestStore()
	model := NewReviewStepModel(s, &stageBox{}, "https://tracker.example.com")

	updated, _ := model.Update(submitDoneMsg{result: &wizard.Result{
		IssueKey:    "AGT-77",
		Service:     domain.Service{Name: "Weed Control North"},
		FieldRowIDs: []string{"row-1", "row-2"},
		Tasks:       []domain.Task{{TaskName: "Scout the lot", SubtaskID: "AGT-78"}},
	}})
	model = updated.(ReviewStepModel)

	view := model.View()
	assert.True(t, strings.Contains(view, "AGT-77"))
	assert.True(t, strings.Contains(view, "AGT-78"))
	assert.True(t, strings.Contains(view, "open issue in browser"))
}

func TestReviewStep_ResultShowsIssueStatus(t *testing.T) {
	s := createTestStore()
	model := NewReviewStepModel(s, &stageBox{}, "https://tracker.example.com")

	updated, _ := model.Update(submitDoneMsg{result: &wizard.Result{
		IssueKey: "AGT-77",
		Service:  domain.Service{Name: "Weed Control North"},
	}})
	model = updated.(ReviewStepModel)
	assert.False(t, strings.Contains(model.View(), "Status:"))

	updated, _ = model.Update(issueStatusLoadedMsg{issue: tracker.Issue{Key: "AGT-77", Status: "Open"}})
	model = updated.(ReviewStepModel)

	view := model.View()
	assert.True(t, strings.Contains(view, "Status:"))
	assert.True(t, strings.Contains(view, "Open"))
}

func TestApp_FetchFailureShowsToastAndStays(t *testing.T) {
	s := createTestStore()
	protocol := NewProtocolStepModel(s)
	lots := NewLotsStepModel(s)
	app := AppModel{
		store:         s,
		stepper:       wizard.NewStepper(s, wizard.StepReview),
		currentScreen: ScreenLots,
		protocolModel: &protocol,
		lotsModel:     &lots,
	}
	app.currentModel = app.lotsModel.asModel()
	require.NoError(t, app.stepper.Next())

	updated, _ := app.Update(fetchFailedMsg{err: errors.New("seasons: 502")})
	app = updated.(AppModel)

	assert.Equal(t, ScreenLots, app.currentScreen)
	assert.Equal(t, wizard.StepLots, app.stepper.Current())
	assert.Equal(t, "seasons: 502", app.toast)
}

func TestApp_EntryLoadFailureRevertsStep(t *testing.T) {
	s := createTestStore()
	protocol := NewProtocolStepModel(s)
	app := AppModel{
		store:         s,
		stepper:       wizard.NewStepper(s, wizard.StepReview),
		currentScreen: ScreenLoading,
		protocolModel: &protocol,
	}
	require.NoError(t, app.stepper.Next())

	updated, _ := app.Update(fetchFailedMsg{err: errors.New("workspaces: 502"), revert: true})
	app = updated.(AppModel)

	assert.Equal(t, wizard.StepProtocol, app.stepper.Current())
	assert.Equal(t, ScreenProtocol, app.currentScreen)
	assert.Equal(t, "workspaces: 502", app.toast)
}
