package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

func seedCascade(t *testing.T) *Cascade {
	t.Helper()
	c := NewCascade()
	c.SetWorkspaces([]domain.Workspace{{ID: "ws_1", Name: "North"}, {ID: "ws_2", Name: "South"}})
	c.SelectWorkspace(domain.Workspace{ID: "ws_1", Name: "North"})
	require.NoError(t, c.SetSeasons([]domain.Season{{ID: "sea_1", Name: "2026"}}))
	require.NoError(t, c.SelectSeason(domain.Season{ID: "sea_1", Name: "2026"}))
	require.NoError(t, c.SetFarms([]domain.Farm{{ID: "farm_1", Name: "La Esperanza"}}))
	require.NoError(t, c.SelectFarm(domain.Farm{ID: "farm_1", Name: "La Esperanza"}))
	require.NoError(t, c.SetFields(createTestLots()))
	return c
}

func TestCascadeStates(t *testing.T) {
	c := NewCascade()
	assert.Equal(t, CascadeIdle, c.State())

	c.SelectWorkspace(domain.Workspace{ID: "ws_1"})
	assert.Equal(t, CascadeWorkspaceSelected, c.State())

	require.NoError(t, c.SelectSeason(domain.Season{ID: "sea_1"}))
	assert.Equal(t, CascadeSeasonSelected, c.State())

	require.NoError(t, c.SelectFarm(domain.Farm{ID: "farm_1"}))
	assert.Equal(t, CascadeFarmSelected, c.State())

	require.NoError(t, c.SetFields(createTestLots()))
	assert.Equal(t, CascadeFieldsLoaded, c.State())
}

func TestCascadeOrderEnforced(t *testing.T) {
	c := NewCascade()
	assert.ErrorIs(t, c.SelectSeason(domain.Season{ID: "sea_1"}), ErrCascadeOrder)
	assert.ErrorIs(t, c.SelectFarm(domain.Farm{ID: "farm_1"}), ErrCascadeOrder)
	assert.ErrorIs(t, c.SetSeasons(nil), ErrCascadeOrder)
	assert.ErrorIs(t, c.SetFarms(nil), ErrCascadeOrder)
	assert.ErrorIs(t, c.SetFields(nil), ErrCascadeOrder)
}

func TestWorkspaceChangeClearsDownstream(t *testing.T) {
	c := seedCascade(t)
	require.NoError(t, c.ToggleField("lot_1"))

	c.SelectWorkspace(domain.Workspace{ID: "ws_2", Name: "South"})

	assert.Equal(t, CascadeWorkspaceSelected, c.State())
	assert.Nil(t, c.Seasons())
	assert.Nil(t, c.Farms())
	assert.Empty(t, c.Fields())
	assert.Empty(t, c.SelectedLots())
	// Workspace options survive; they are loaded once per run.
	ws, loaded := c.Workspaces()
	assert.True(t, loaded)
	assert.Len(t, ws, 2)
}

func TestSeasonChangeClearsFarmAndFields(t *testing.T) {
	c := seedCascade(t)
	require.NoError(t, c.ToggleField("lot_1"))

	require.NoError(t, c.SelectSeason(domain.Season{ID: "sea_2", Name: "2027"}))

	assert.Equal(t, CascadeSeasonSelected, c.State())
	assert.Nil(t, c.Farms())
	assert.Empty(t, c.Fields())
	assert.Empty(t, c.SelectedLots())
}

func TestFarmChangeClearsFields(t *testing.T) {
	c := seedCascade(t)
	require.NoError(t, c.ToggleField("lot_1"))

	require.NoError(t, c.SelectFarm(domain.Farm{ID: "farm_2", Name: "El Retiro"}))

	assert.Equal(t, CascadeFarmSelected, c.State())
	assert.Empty(t, c.Fields())
	assert.Empty(t, c.SelectedLots())
}

func TestToggleField(t *testing.T) {
	c := seedCascade(t)

	require.NoError(t, c.ToggleField("lot_1"))
	assert.True(t, c.IsSelected("lot_1"))

	require.NoError(t, c.ToggleField("lot_1"))
	assert.False(t, c.IsSelected("lot_1"))

	assert.ErrorIs(t, c.ToggleField("lot_99"), ErrUnknownField)
}

func TestToggleAllIsAnInvolution(t *testing.T) {
	c := seedCascade(t)
	require.NoError(t, c.ToggleField("lot_1"))

	// Not all selected: first toggle selects everything.
	c.ToggleAll()
	assert.Len(t, c.SelectedLots(), 2)

	// All selected: second toggle deselects everything.
	c.ToggleAll()
	assert.Empty(t, c.SelectedLots())

	// From empty: select all again.
	c.ToggleAll()
	assert.Len(t, c.SelectedLots(), 2)
}

func TestSelectedLotsKeepLoadedOrder(t *testing.T) {
	c := seedCascade(t)
	require.NoError(t, c.ToggleField("lot_2"))
	require.NoError(t, c.ToggleField("lot_1"))

	lots := c.SelectedLots()
	require.Len(t, lots, 2)
	assert.Equal(t, "lot_1", lots[0].FieldID)
	assert.Equal(t, "lot_2", lots[1].FieldID)
}
