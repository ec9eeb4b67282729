package persist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/FrancoGavegno/agtasks-sub000/internal/schema"
)

// formFieldPayload is the wire shape of one form field, recursive for
// subform row templates.
type formFieldPayload struct {
	Path        string `json:"path"`
	Label       string `json:"label"`
	Kind        string `json:"kind"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder"`
	Options     []struct {
		Value string `json:"value"`
		Label string `json:"label"`
	} `json:"options"`
	Fields []formFieldPayload `json:"fields"`
}

func (p formFieldPayload) toField() schema.Field {
	field := schema.Field{
		Path:        p.Path,
		Label:       p.Label,
		Kind:        schema.Kind(p.Kind),
		Required:    p.Required,
		Placeholder: p.Placeholder,
	}
	for _, o := range p.Options {
		field.Options = append(field.Options, schema.Option{Value: o.Value, Label: o.Label})
	}
	for _, nested := range p.Fields {
		field.Fields = append(field.Fields, nested.toField())
	}
	return field
}

// GetFormSchema fetches a form's field schema and checks its structural
// consistency, so a malformed definition (a select without options, a
// subform without a row template) is rejected here instead of reaching the
// renderer. Unknown field kinds are tolerated; the renderer skips them.
func (c *Client) GetFormSchema(ctx context.Context, formID string) (schema.Form, error) {
	var resp struct {
		Name   string             `json:"name"`
		Fields []formFieldPayload `json:"fields"`
	}
	endpoint := fmt.Sprintf("/api/v1/forms/%s/schema", url.PathEscape(formID))
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return schema.Form{}, fmt.Errorf("get schema for form %s: %w", formID, err)
	}

	form := schema.Form{Name: resp.Name}
	for _, f := range resp.Fields {
		field := f.toField()
		if err := field.Validate(); err != nil && !errors.Is(err, schema.ErrUnknownKind) {
			return schema.Form{}, fmt.Errorf("form %s: %w", formID, err)
		}
		form.Fields = append(form.Fields, field)
	}
	return form, nil
}
