// Package tui provides Bubble Tea models for the interactive wizard.
package tui

import (
	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

// ProtocolSelectedMsg is emitted when the user picks a protocol. The app
// reacts by fetching the protocol's template tasks from the tracker.
type ProtocolSelectedMsg struct {
	Protocol domain.Protocol
}

// WorkspaceSelectedMsg is emitted when the user picks a workspace in the
// lot cascade.
type WorkspaceSelectedMsg struct {
	Workspace domain.Workspace
}

// SeasonSelectedMsg is emitted when the user picks a season.
type SeasonSelectedMsg struct {
	Season domain.Season
}

// FarmSelectedMsg is emitted when the user picks a farm.
type FarmSelectedMsg struct {
	Farm domain.Farm
}

// FormSchemaRequestedMsg is emitted when the user opens the data form of
// a field-visit task. The app reacts by fetching the form's schema.
type FormSchemaRequestedMsg struct {
	FormID   string
	TaskName string
}

// NextStepMsg asks the app to advance the wizard one step. The app runs
// step validation and stays put with a toast when it fails.
type NextStepMsg struct{}

// PrevStepMsg asks the app to go back one step. Going back never loses
// entered data.
type PrevStepMsg struct{}

// SubmitMsg asks the app to run the submission pipeline.
type SubmitMsg struct{}

// ErrorMsg is emitted when the wizard cannot continue: the bootstrap loads
// before the first screen, or a broken invariant inside a step. Recoverable
// reference-data fetch failures surface on the status line instead.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}
