package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assignAll makes every enabled task valid: a user everywhere, a form on
// field visits.
func assignAll(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.AssignUser(0, "ana@example.com"))
	require.NoError(t, s.AssignForm(0, "form_1"))
	require.NoError(t, s.AssignUser(1, "bruno@example.com"))
}

func TestNextGatedByStepValidation(t *testing.T) {
	s := New(createTestProject())
	st := NewStepper(s, StepReview)

	// Nothing selected: refused, step unchanged.
	err := st.Next()
	require.Error(t, err)
	assert.Equal(t, StepProtocol, st.Current())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "protocol", verr.Field)

	s.SelectProtocol(createTestProtocol(), createTestTemplates())
	err = st.Next()
	require.Error(t, err)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "serviceName", verr.Field)

	s.SetServiceName("Soil sampling March")
	require.NoError(t, st.Next())
	assert.Equal(t, StepLots, st.Current())
}

func TestPrevIsUnconditional(t *testing.T) {
	s := seedStore(t)
	st := NewStepper(s, StepReview)
	require.NoError(t, st.Next())

	st.Prev()
	assert.Equal(t, StepProtocol, st.Current())

	// Already at the first step: stays put.
	st.Prev()
	assert.Equal(t, StepProtocol, st.Current())
}

func TestLotsStepRequiresSelection(t *testing.T) {
	s := seedStore(t)
	st := NewStepper(s, StepReview)
	require.NoError(t, st.Next())

	err := st.Next()
	require.Error(t, err)
	assert.Equal(t, StepLots, st.Current())

	require.NoError(t, s.Cascade().ToggleField("lot_1"))
	require.NoError(t, st.Next())
	assert.Equal(t, StepTasks, st.Current())
}

func TestTasksStepCrossFieldRules(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.Cascade().ToggleField("lot_1"))

	// Missing user on the first enabled task.
	err := s.ValidateStep(StepTasks)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tasks[0].userEmail", verr.Field)

	// User set but the field visit still lacks a form.
	require.NoError(t, s.AssignUser(0, "ana@example.com"))
	require.NoError(t, s.AssignUser(1, "bruno@example.com"))
	err = s.ValidateStep(StepTasks)
	require.Error(t, err)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tasks[0].formId", verr.Field)

	// Non-fieldvisit tasks never require a form.
	require.NoError(t, s.AssignForm(0, "form_1"))
	assert.NoError(t, s.ValidateStep(StepTasks))

	// Disabling the offending task also clears the error.
	require.NoError(t, s.AssignForm(0, ""))
	require.NoError(t, s.SetTaskEnabled(0, false))
	assert.NoError(t, s.ValidateStep(StepTasks))

	// But disabling everything is invalid.
	require.NoError(t, s.SetTaskEnabled(1, false))
	assert.Error(t, s.ValidateStep(StepTasks))
}

// Validation is monotonic: optional data never invalidates a valid step,
// clearing a required field does.
func TestValidationMonotonic(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.Cascade().ToggleField("lot_1"))
	assignAll(t, s)

	require.NoError(t, s.ValidateStep(StepTasks))

	// Adding more optional data keeps it valid.
	s.SetTaskData(map[string]any{"note": "prefers mornings"})
	require.NoError(t, s.ValidateStep(StepTasks))

	// Clearing a required field invalidates.
	require.NoError(t, s.AssignUser(1, ""))
	assert.Error(t, s.ValidateStep(StepTasks))
}

func TestValidateSubmitOnlyFromLastStep(t *testing.T) {
	s := seedStore(t)
	require.NoError(t, s.Cascade().ToggleField("lot_1"))
	assignAll(t, s)

	st := NewStepper(s, StepReview)
	assert.ErrorIs(t, st.ValidateSubmit(), ErrNotLastStep)

	require.NoError(t, st.Next())
	require.NoError(t, st.Next())
	require.NoError(t, st.Next())
	assert.Equal(t, StepReview, st.Current())
	assert.NoError(t, st.ValidateSubmit())

	// Submit re-checks every step: clearing an upstream field is caught.
	require.NoError(t, s.AssignUser(0, ""))
	assert.Error(t, st.ValidateSubmit())
}
