// Package wizard implements the orchestration core of the service-creation
// wizard: the form-state container, the lot-cascade state machine, the step
// machine, and the submission pipeline. It is independent of the TUI layer,
// which renders it.
package wizard

import (
	"errors"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

var (
	// ErrNoProtocol indicates no protocol has been selected yet.
	ErrNoProtocol = errors.New("no protocol selected")
	// ErrTaskNotFound indicates the requested task index does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNoTempEdit indicates commit/discard was called without a pending edit.
	ErrNoTempEdit = errors.New("no temporary edit in progress")
)

// Store is the form-state container for one wizard run. It is created when
// the wizard starts and discarded when it ends; nothing in it is global or
// persisted. Reference lists are cached write-once per run (guarded by the
// loaded flags) so navigating backward does not refetch.
type Store struct {
	// Ambient scope
	project domain.Project

	// Protocol step
	protocols       []domain.Protocol
	protocol        *domain.Protocol
	serviceName     string
	templates       []domain.TaskTemplateEntry
	loadedProtocols bool

	// Lots step
	cascade *Cascade

	// Tasks step
	tasks       []domain.Task
	users       []domain.User
	forms       []domain.Form
	loadedUsers bool
	loadedForms bool

	// Dynamic form payload, mirrored whole from the renderer under one key.
	taskData map[string]any

	// Temporary edit buffer for the edit-task affordance: changes land here
	// and only reach the task on CommitTaskEdit.
	tempTask      *domain.Task
	tempTaskIndex int
}

// New creates an empty Store scoped to a project.
func New(project domain.Project) *Store {
	return &Store{
		project:       project,
		cascade:       NewCascade(),
		taskData:      make(map[string]any),
		tempTaskIndex: -1,
	}
}

// Project returns the ambient project scope.
func (s *Store) Project() domain.Project { return s.project }

// Cascade returns the lot-cascade state machine for the lots step.
func (s *Store) Cascade() *Cascade { return s.cascade }

// SetProtocols caches the domain's protocol list.
func (s *Store) SetProtocols(protocols []domain.Protocol) {
	s.protocols = protocols
	s.loadedProtocols = true
}

// Protocols returns the cached protocol list and whether it was loaded.
func (s *Store) Protocols() ([]domain.Protocol, bool) {
	return s.protocols, s.loadedProtocols
}

// SelectProtocol records the chosen protocol, seeds the task list from its
// deduplicated template entries, and resets any previous task assignments.
func (s *Store) SelectProtocol(p domain.Protocol, templates []domain.TaskTemplateEntry) {
	s.protocol = &p
	s.templates = domain.DedupeTemplates(templates)
	s.tasks = domain.TasksFromTemplates(templates)
	s.tempTask = nil
	s.tempTaskIndex = -1
}

// Protocol returns the selected protocol, or ErrNoProtocol.
func (s *Store) Protocol() (domain.Protocol, error) {
	if s.protocol == nil {
		return domain.Protocol{}, ErrNoProtocol
	}
	return *s.protocol, nil
}

// SetServiceName records the service name for this run.
func (s *Store) SetServiceName(name string) { s.serviceName = name }

// ServiceName returns the service name for this run.
func (s *Store) ServiceName() string { return s.serviceName }

// Templates returns the deduplicated template entries of the selected protocol.
func (s *Store) Templates() []domain.TaskTemplateEntry {
	out := make([]domain.TaskTemplateEntry, len(s.templates))
	copy(out, s.templates)
	return out
}

// Tasks returns a copy of the task assignments.
func (s *Store) Tasks() []domain.Task {
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// EnabledTasks returns only the tasks included in validation and submission.
func (s *Store) EnabledTasks() []domain.Task {
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// AssignUser sets the user of the task at index.
func (s *Store) AssignUser(index int, email string) error {
	if index < 0 || index >= len(s.tasks) {
		return ErrTaskNotFound
	}
	s.tasks[index].UserEmail = email
	return nil
}

// AssignForm sets the data-collection form of the task at index.
func (s *Store) AssignForm(index int, formID string) error {
	if index < 0 || index >= len(s.tasks) {
		return ErrTaskNotFound
	}
	s.tasks[index].FormID = formID
	return nil
}

// SetTaskEnabled toggles whether the task at index participates in
// validation and submission.
func (s *Store) SetTaskEnabled(index int, enabled bool) error {
	if index < 0 || index >= len(s.tasks) {
		return ErrTaskNotFound
	}
	s.tasks[index].Enabled = enabled
	return nil
}

// BeginTaskEdit starts buffering edits for the task at index. Subsequent
// TempTask mutations only reach the task list on CommitTaskEdit.
func (s *Store) BeginTaskEdit(index int) error {
	if index < 0 || index >= len(s.tasks) {
		return ErrTaskNotFound
	}
	t := s.tasks[index]
	s.tempTask = &t
	s.tempTaskIndex = index
	return nil
}

// TempTask returns the in-progress edit buffer, or nil when none is active.
func (s *Store) TempTask() *domain.Task { return s.tempTask }

// CommitTaskEdit applies the buffered edit to the underlying task.
func (s *Store) CommitTaskEdit() error {
	if s.tempTask == nil {
		return ErrNoTempEdit
	}
	s.tasks[s.tempTaskIndex] = *s.tempTask
	s.tempTask = nil
	s.tempTaskIndex = -1
	return nil
}

// DiscardTaskEdit drops the buffered edit without touching the task.
func (s *Store) DiscardTaskEdit() error {
	if s.tempTask == nil {
		return ErrNoTempEdit
	}
	s.tempTask = nil
	s.tempTaskIndex = -1
	return nil
}

// SetUsers caches the domain user list for the task user picker.
func (s *Store) SetUsers(users []domain.User) {
	s.users = users
	s.loadedUsers = true
}

// Users returns the cached user list and whether it was loaded.
func (s *Store) Users() ([]domain.User, bool) { return s.users, s.loadedUsers }

// SetForms caches the domain form list for the field-visit form picker.
func (s *Store) SetForms(forms []domain.Form) {
	s.forms = forms
	s.loadedForms = true
}

// Forms returns the cached form list and whether it was loaded.
func (s *Store) Forms() ([]domain.Form, bool) { return s.forms, s.loadedForms }

// SetTaskData replaces the dynamic-form payload. The renderer pushes its
// whole nested object here on every change; no per-field validation happens
// at this layer.
func (s *Store) SetTaskData(data map[string]any) { s.taskData = data }

// TaskData returns the dynamic-form payload.
func (s *Store) TaskData() map[string]any { return s.taskData }
