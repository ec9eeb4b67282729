package wizard

import (
	"fmt"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

// ValidationError names the field that failed so the TUI can point at it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidateStep runs the validation rules owned by one step and returns the
// first failing rule. Later steps do not re-check earlier steps' fields; the
// submit gate does that.
func (s *Store) ValidateStep(step Step) error {
	switch step {
	case StepProtocol:
		return s.validateProtocolStep()
	case StepLots:
		return s.validateLotsStep()
	case StepTasks:
		return s.validateTasksStep()
	case StepReview:
		// Review owns no fields of its own.
		return nil
	}
	return nil
}

func (s *Store) validateProtocolStep() error {
	if s.protocol == nil {
		return &ValidationError{Field: "protocol", Reason: "select a protocol"}
	}
	if s.serviceName == "" {
		return &ValidationError{Field: "serviceName", Reason: "enter a service name"}
	}
	return nil
}

func (s *Store) validateLotsStep() error {
	if len(s.cascade.SelectedLots()) == 0 {
		return &ValidationError{Field: "fields", Reason: "select at least one lot"}
	}
	return nil
}

// validateTasksStep enforces the cross-field task rules: every enabled task
// needs a user, and field-visit tasks additionally need a form. Disabled
// tasks are skipped entirely.
func (s *Store) validateTasksStep() error {
	enabled := 0
	for i, t := range s.tasks {
		if !t.Enabled {
			continue
		}
		enabled++
		if t.UserEmail == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("tasks[%d].userEmail", i),
				Reason: fmt.Sprintf("assign a user to %q", t.TaskName),
			}
		}
		if t.TaskType == domain.TaskTypeFieldVisit && t.FormID == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("tasks[%d].formId", i),
				Reason: fmt.Sprintf("choose a form for field visit %q", t.TaskName),
			}
		}
	}
	if enabled == 0 {
		return &ValidationError{Field: "tasks", Reason: "enable at least one task"}
	}
	return nil
}
