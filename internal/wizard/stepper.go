package wizard

import "errors"

// Step indexes the wizard screens. The stepper supports any step count; the
// shipped wizard runs protocol -> lots -> tasks -> review.
type Step int

const (
	StepProtocol Step = iota + 1
	StepLots
	StepTasks
	StepReview
)

// ErrNotLastStep indicates submit was requested before the last step.
var ErrNotLastStep = errors.New("submit only allowed from the last step")

// Stepper drives step transitions. Next is gated by the current step's
// validation; Prev is unconditional; Submit is reachable only from the last
// step and re-runs its validation plus the cross-step rules.
type Stepper struct {
	store   *Store
	current Step
	last    Step
}

// NewStepper creates a stepper over the given store, starting at step 1.
func NewStepper(store *Store, last Step) *Stepper {
	return &Stepper{store: store, current: StepProtocol, last: last}
}

// Current returns the active step.
func (s *Stepper) Current() Step { return s.current }

// Last returns the final step index.
func (s *Stepper) Last() Step { return s.last }

// Next validates the current step and advances on success. On failure the
// transition is refused and the first failing rule is returned for display.
func (s *Stepper) Next() error {
	if err := s.store.ValidateStep(s.current); err != nil {
		return err
	}
	if s.current < s.last {
		s.current++
	}
	return nil
}

// Prev moves back one step. Never refused; reference caches in the store
// make revisiting a step cheap.
func (s *Stepper) Prev() {
	if s.current > StepProtocol {
		s.current--
	}
}

// ValidateSubmit gates the terminal submit action: only from the last step,
// with every prior step still valid and the cross-step rules satisfied.
func (s *Stepper) ValidateSubmit() error {
	if s.current != s.last {
		return ErrNotLastStep
	}
	for step := StepProtocol; step <= s.last; step++ {
		if err := s.store.ValidateStep(step); err != nil {
			return err
		}
	}
	return nil
}
