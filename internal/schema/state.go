package schema

import (
	"fmt"
	"strconv"
	"time"
)

// State binds a form definition to its nested values object. Steps own one
// State per dynamic form and mirror Snapshot() into the wizard store under a
// single key on every change, matching the renderer contract: the renderer
// maintains the object, the owning step validates it.
type State struct {
	Form   Form
	values map[string]any
}

// NewState creates a State with optional initial values. Initial values are
// used as-is; callers hand over ownership.
func NewState(form Form, initial map[string]any) *State {
	if initial == nil {
		initial = make(map[string]any)
	}
	return &State{Form: form, values: initial}
}

// SetString coerces raw text input into the typed value a field kind stores
// and writes it at the field's path. Dates parse as 2006-01-02, checkboxes
// as booleans, numbers as float64; file fields store the chosen path string.
func (s *State) SetString(field Field, raw string) error {
	switch field.Kind {
	case KindNumber:
		if raw == "" {
			return Set(s.values, field.Path, nil)
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("field %q: not a number: %q", field.Path, raw)
		}
		return Set(s.values, field.Path, n)
	case KindDate:
		if raw == "" {
			return Set(s.values, field.Path, nil)
		}
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("field %q: not a date: %q", field.Path, raw)
		}
		return Set(s.values, field.Path, d)
	case KindCheckbox:
		return Set(s.values, field.Path, raw == "true")
	default:
		return Set(s.values, field.Path, raw)
	}
}

// Set writes an already-typed value at path.
func (s *State) Set(path string, v any) error {
	return Set(s.values, path, v)
}

// Get reads the value at path.
func (s *State) Get(path string) (any, bool) {
	return Get(s.values, path)
}

// AddRow appends an empty subform row, RemoveRow splices one out.
func (s *State) AddRow(path string) (int, error) { return AppendRow(s.values, path) }

func (s *State) RemoveRow(path string, index int) error { return RemoveRow(s.values, path, index) }

// RowCount returns the number of rows in the subform at path.
func (s *State) RowCount(path string) int { return len(Rows(s.values, path)) }

// Snapshot returns a deep copy of the nested values object, safe to hand to
// the wizard store without aliasing renderer-owned state.
func (s *State) Snapshot() map[string]any {
	return copyMap(s.values)
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
