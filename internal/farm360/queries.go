package farm360

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

// ListWorkspaces returns the workspaces visible to a user within a domain
// area. Soft-deleted workspaces are filtered out here so callers never see
// them as cascade options.
func (c *Client) ListWorkspaces(ctx context.Context, userEmail, domainID, areaID string) ([]domain.Workspace, error) {
	req := graphql.NewRequest(`
		query($email: String!, $domainId: ID!, $areaId: ID!) {
			workspaces(email: $email, domainId: $domainId, areaId: $areaId) {
				id
				name
				deleted
			}
		}
	`)
	req.Var("email", userEmail)
	req.Var("domainId", domainID)
	req.Var("areaId", areaID)

	var resp struct {
		Workspaces []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Deleted bool   `json:"deleted"`
		} `json:"workspaces"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	workspaces := make([]domain.Workspace, 0, len(resp.Workspaces))
	for _, ws := range resp.Workspaces {
		if ws.Deleted {
			continue
		}
		workspaces = append(workspaces, domain.Workspace{ID: ws.ID, Name: ws.Name})
	}
	return workspaces, nil
}

// ListSeasons returns the campaigns of a workspace.
func (c *Client) ListSeasons(ctx context.Context, workspaceID string) ([]domain.Season, error) {
	req := graphql.NewRequest(`
		query($workspaceId: ID!) {
			seasons(workspaceId: $workspaceId) {
				id
				name
			}
		}
	`)
	req.Var("workspaceId", workspaceID)

	var resp struct {
		Seasons []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"seasons"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
	}

	seasons := make([]domain.Season, len(resp.Seasons))
	for i, s := range resp.Seasons {
		seasons[i] = domain.Season{ID: s.ID, Name: s.Name}
	}
	return seasons, nil
}

// ListFarms returns the establishments of a workspace campaign.
func (c *Client) ListFarms(ctx context.Context, workspaceID, seasonID string) ([]domain.Farm, error) {
	req := graphql.NewRequest(`
		query($workspaceId: ID!, $seasonId: ID!) {
			farms(workspaceId: $workspaceId, seasonId: $seasonId) {
				id
				name
			}
		}
	`)
	req.Var("workspaceId", workspaceID)
	req.Var("seasonId", seasonID)

	var resp struct {
		Farms []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"farms"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}

	farms := make([]domain.Farm, len(resp.Farms))
	for i, f := range resp.Farms {
		farms[i] = domain.Farm{ID: f.ID, Name: f.Name}
	}
	return farms, nil
}

// ListFields returns the lots of a farm, fully qualified with the cascade
// identifiers so a selected lot carries everything the persistence rows need.
func (c *Client) ListFields(ctx context.Context, workspaceID, seasonID, farmID string) ([]domain.Lot, error) {
	req := graphql.NewRequest(`
		query($workspaceId: ID!, $seasonId: ID!, $farmId: ID!) {
			fields(workspaceId: $workspaceId, seasonId: $seasonId, farmId: $farmId) {
				id
				name
				hectares
				crop
				hybrid
				deleted
				workspace { id name }
				season { id name }
				farm { id name }
			}
		}
	`)
	req.Var("workspaceId", workspaceID)
	req.Var("seasonId", seasonID)
	req.Var("farmId", farmID)

	var resp struct {
		Fields []struct {
			ID        string  `json:"id"`
			Name      string  `json:"name"`
			Hectares  float64 `json:"hectares"`
			Crop      string  `json:"crop"`
			Hybrid    string  `json:"hybrid"`
			Deleted   bool    `json:"deleted"`
			Workspace struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"workspace"`
			Season struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"season"`
			Farm struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"farm"`
		} `json:"fields"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	lots := make([]domain.Lot, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		if f.Deleted {
			continue
		}
		lots = append(lots, domain.Lot{
			WorkspaceID:   f.Workspace.ID,
			WorkspaceName: f.Workspace.Name,
			SeasonID:      f.Season.ID,
			SeasonName:    f.Season.Name,
			FarmID:        f.Farm.ID,
			FarmName:      f.Farm.Name,
			FieldID:       f.ID,
			FieldName:     f.Name,
			Hectares:      f.Hectares,
			Crop:          f.Crop,
			Hybrid:        f.Hybrid,
		})
	}
	return lots, nil
}

// ListUsersByDomain returns the members of a domain for the task user picker.
func (c *Client) ListUsersByDomain(ctx context.Context, domainID string) ([]domain.User, error) {
	req := graphql.NewRequest(`
		query($domainId: ID!) {
			users(domainId: $domainId) {
				email
				firstName
				lastName
			}
		}
	`)
	req.Var("domainId", domainID)

	var resp struct {
		Users []struct {
			Email     string `json:"email"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"users"`
	}
	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = domain.User{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
	}
	return users, nil
}
