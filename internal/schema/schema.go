// Package schema implements the declarative form model the wizard's dynamic
// steps are driven by. A form is a list of fields, each addressing a slot in
// a nested values object by a dot/bracket path (e.g. "crop.hybrid" or
// "samples[2].depth"). Subform fields hold repeatable groups rendered as
// editable rows.
package schema

import (
	"errors"
	"fmt"
)

// Kind discriminates the supported field kinds.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindPassword Kind = "password"
	KindNumber   Kind = "number"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindDate     Kind = "date"
	KindCheckbox Kind = "checkbox"
	KindFile     Kind = "file"
	KindSubform  Kind = "subform"
)

// ErrUnknownKind is returned by Validate for kinds the renderer does not
// support. Renderers skip such fields instead of failing the whole form.
var ErrUnknownKind = errors.New("unknown field kind")

// Option is one selectable value of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one input of a form. Options is meaningful only for
// KindSelect and Fields only for KindSubform; Validate enforces this so a
// select without options or a subform without a row template is rejected
// before any rendering happens.
type Field struct {
	Path        string // Dot/bracket path into the values object
	Label       string
	Kind        Kind
	Required    bool
	Placeholder string
	Options     []Option // KindSelect only
	Fields      []Field  // KindSubform only: the row template
}

// Form is an ordered field list bound to one values object. The owning step
// stores the whole nested object under a single key in the wizard state, so
// the renderer never performs per-field validation itself.
type Form struct {
	Name   string
	Fields []Field
}

// Validate checks structural consistency of the form definition.
func (f Form) Validate() error {
	for _, field := range f.Fields {
		if err := field.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one field definition. Unknown kinds return ErrUnknownKind
// so callers can choose to tolerate them.
func (f Field) Validate() error {
	if f.Path == "" {
		return fmt.Errorf("field %q: empty path", f.Label)
	}
	switch f.Kind {
	case KindText, KindEmail, KindPassword, KindNumber, KindTextarea,
		KindDate, KindCheckbox, KindFile:
		if len(f.Options) > 0 || len(f.Fields) > 0 {
			return fmt.Errorf("field %q: options/fields only valid for select/subform", f.Path)
		}
	case KindSelect:
		if len(f.Options) == 0 {
			return fmt.Errorf("field %q: select requires options", f.Path)
		}
		if len(f.Fields) > 0 {
			return fmt.Errorf("field %q: select cannot nest fields", f.Path)
		}
	case KindSubform:
		if len(f.Fields) == 0 {
			return fmt.Errorf("field %q: subform requires a row template", f.Path)
		}
		for _, nested := range f.Fields {
			if nested.Kind == KindSubform {
				return fmt.Errorf("field %q: subforms cannot nest subforms", f.Path)
			}
			if err := nested.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("field %q: %w: %s", f.Path, ErrUnknownKind, f.Kind)
	}
	return nil
}
