package wizard

import (
	"errors"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

// CascadeState names the stages of the workspace -> season -> farm -> field
// cascade. Transitions only ever move one level at a time; selecting an
// upstream level drops everything downstream of it.
type CascadeState int

const (
	CascadeIdle CascadeState = iota
	CascadeWorkspaceSelected
	CascadeSeasonSelected
	CascadeFarmSelected
	CascadeFieldsLoaded
)

var (
	// ErrCascadeOrder indicates a selection was attempted out of cascade order.
	ErrCascadeOrder = errors.New("cascade selection out of order")
	// ErrUnknownField indicates a field toggle for an ID not in the loaded list.
	ErrUnknownField = errors.New("field not in loaded list")
)

// Cascade is the explicit state machine behind the lots step. It owns the
// option caches for each level and the set of selected fields. Downstream
// caches and selections are cleared deterministically on upstream changes
// rather than by effect timing.
type Cascade struct {
	workspaces       []domain.Workspace
	loadedWorkspaces bool

	workspace *domain.Workspace
	seasons   []domain.Season

	season *domain.Season
	farms  []domain.Farm

	farm   *domain.Farm
	fields []domain.Lot

	selected map[string]bool // FieldID -> selected
}

// NewCascade creates a cascade in the Idle state.
func NewCascade() *Cascade {
	return &Cascade{selected: make(map[string]bool)}
}

// State derives the current cascade stage from what has been selected and
// loaded so far.
func (c *Cascade) State() CascadeState {
	switch {
	case c.workspace == nil:
		return CascadeIdle
	case c.season == nil:
		return CascadeWorkspaceSelected
	case c.farm == nil:
		return CascadeSeasonSelected
	case c.fields == nil:
		return CascadeFarmSelected
	}
	return CascadeFieldsLoaded
}

// SetWorkspaces caches the workspace options. Loaded once per run.
func (c *Cascade) SetWorkspaces(workspaces []domain.Workspace) {
	c.workspaces = workspaces
	c.loadedWorkspaces = true
}

// Workspaces returns the cached workspace options and whether they loaded.
func (c *Cascade) Workspaces() ([]domain.Workspace, bool) {
	return c.workspaces, c.loadedWorkspaces
}

// SelectWorkspace picks a workspace and clears the season, farm, and field
// selections along with their caches and the selected-field set.
func (c *Cascade) SelectWorkspace(ws domain.Workspace) {
	c.workspace = &ws
	c.season = nil
	c.seasons = nil
	c.clearFarmAndBelow()
}

// SetSeasons caches the season options for the selected workspace.
func (c *Cascade) SetSeasons(seasons []domain.Season) error {
	if c.workspace == nil {
		return ErrCascadeOrder
	}
	c.seasons = seasons
	return nil
}

// Seasons returns the cached season options (nil until loaded).
func (c *Cascade) Seasons() []domain.Season { return c.seasons }

// SelectSeason picks a season and clears the farm and field state.
func (c *Cascade) SelectSeason(season domain.Season) error {
	if c.workspace == nil {
		return ErrCascadeOrder
	}
	c.season = &season
	c.clearFarmAndBelow()
	return nil
}

// SetFarms caches the farm options for the selected season.
func (c *Cascade) SetFarms(farms []domain.Farm) error {
	if c.season == nil {
		return ErrCascadeOrder
	}
	c.farms = farms
	return nil
}

// Farms returns the cached farm options (nil until loaded).
func (c *Cascade) Farms() []domain.Farm { return c.farms }

// SelectFarm picks a farm and clears the field list and selection. The
// caller is expected to fetch the farm's fields next.
func (c *Cascade) SelectFarm(farm domain.Farm) error {
	if c.season == nil {
		return ErrCascadeOrder
	}
	c.farm = &farm
	c.fields = nil
	c.selected = make(map[string]bool)
	return nil
}

// SetFields caches the loaded field list for the selected farm.
func (c *Cascade) SetFields(fields []domain.Lot) error {
	if c.farm == nil {
		return ErrCascadeOrder
	}
	c.fields = fields
	return nil
}

// Fields returns the loaded field list (nil until loaded).
func (c *Cascade) Fields() []domain.Lot {
	out := make([]domain.Lot, len(c.fields))
	copy(out, c.fields)
	return out
}

// Workspace, Season and Farm return the current selection at each level.
func (c *Cascade) Workspace() *domain.Workspace { return c.workspace }

func (c *Cascade) Season() *domain.Season { return c.season }

func (c *Cascade) Farm() *domain.Farm { return c.farm }

// ToggleField flips the selection of one loaded field.
func (c *Cascade) ToggleField(fieldID string) error {
	if !c.hasField(fieldID) {
		return ErrUnknownField
	}
	c.selected[fieldID] = !c.selected[fieldID]
	return nil
}

// IsSelected reports whether a field is currently selected.
func (c *Cascade) IsSelected(fieldID string) bool { return c.selected[fieldID] }

// ToggleAll selects every loaded field, or deselects all when every field is
// already selected. Two invocations return to the starting state.
func (c *Cascade) ToggleAll() {
	if len(c.fields) == 0 {
		return
	}
	all := true
	for _, f := range c.fields {
		if !c.selected[f.FieldID] {
			all = false
			break
		}
	}
	for _, f := range c.fields {
		c.selected[f.FieldID] = !all
	}
}

// SelectedLots returns the selected fields in loaded order.
func (c *Cascade) SelectedLots() []domain.Lot {
	out := make([]domain.Lot, 0, len(c.selected))
	for _, f := range c.fields {
		if c.selected[f.FieldID] {
			out = append(out, f)
		}
	}
	return out
}

func (c *Cascade) hasField(fieldID string) bool {
	for _, f := range c.fields {
		if f.FieldID == fieldID {
			return true
		}
	}
	return false
}

func (c *Cascade) clearFarmAndBelow() {
	c.farm = nil
	c.farms = nil
	c.fields = nil
	c.selected = make(map[string]bool)
}
