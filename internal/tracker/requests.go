package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

// CreateServiceInput carries everything the tracker needs to open the
// customer request that represents a service.
type CreateServiceInput struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	UserEmail      string `json:"userEmail"`
	ServiceDeskID  string `json:"serviceDeskId"`
	RequestTypeID  string `json:"requestTypeId"`
	IdempotencyKey string `json:"-"`
}

// CreateCustomerRequest opens the tracker issue for a service and returns its
// issue key. This must happen before any sub-issue is created.
func (c *Client) CreateCustomerRequest(ctx context.Context, in CreateServiceInput) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			IssueKey string `json:"issueKey"`
		} `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/requests", in.IdempotencyKey, in, &resp)
	if err != nil {
		return "", fmt.Errorf("create customer request: %w", err)
	}
	if !resp.Success {
		return "", fmt.Errorf("create customer request: %s", resp.Error)
	}
	return resp.Data.IssueKey, nil
}

// SubtaskInput describes one sub-issue created per task. DeepLinkURL points
// back into the application at the task's detail page.
type SubtaskInput struct {
	ParentIssueKey string `json:"parentIssueKey"`
	Summary        string `json:"summary"`
	UserEmail      string `json:"userEmail"`
	Description    string `json:"description"`
	DeepLinkURL    string `json:"deepLinkUrl"`
	TaskType       string `json:"taskType"`
	ServiceDeskID  string `json:"serviceDeskId,omitempty"`
	IdempotencyKey string `json:"-"`
}

// CreateSubtask creates a sub-issue under a service issue and returns its key.
func (c *Client) CreateSubtask(ctx context.Context, in SubtaskInput) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/subtasks", in.IdempotencyKey, in, &resp); err != nil {
		return "", fmt.Errorf("create subtask under %s: %w", in.ParentIssueKey, err)
	}
	return resp.Key, nil
}

// Issue is the subset of a tracker issue the wizard reads back.
type Issue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
}

// GetIssue fetches an issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (Issue, error) {
	var resp Issue
	endpoint := fmt.Sprintf("/api/v1/issues/%s", url.PathEscape(key))
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return Issue{}, fmt.Errorf("get issue %s: %w", key, err)
	}
	return resp, nil
}

// ListTemplateTasks fetches the template task list of a protocol by its
// template issue key. Entries are returned as-is; callers deduplicate by key
// with domain.DedupeTemplates.
func (c *Client) ListTemplateTasks(ctx context.Context, domainID, projectID, templateID string) ([]domain.TaskTemplateEntry, error) {
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			Subtasks []struct {
				Key          string `json:"key"`
				Summary      string `json:"summary"`
				CustomFields struct {
					TaskType string `json:"taskType"`
				} `json:"customFields"`
			} `json:"subtasks"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("/api/v1/integrations/tracker/domains/%s/projects/%s/services/%s/tasks",
		url.PathEscape(domainID), url.PathEscape(projectID), url.PathEscape(templateID))
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list template tasks for %s: %w", templateID, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("list template tasks for %s: %s", templateID, resp.Error)
	}

	entries := make([]domain.TaskTemplateEntry, 0, len(resp.Data.Subtasks))
	for _, st := range resp.Data.Subtasks {
		entries = append(entries, domain.TaskTemplateEntry{
			Key:      st.Key,
			Summary:  st.Summary,
			TaskType: st.CustomFields.TaskType,
		})
	}
	return entries, nil
}
