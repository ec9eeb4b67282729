// Package persist provides a client for the platform persistence API, which
// stores the services, fields, and tasks the wizard creates.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FrancoGavegno/agtasks-sub000/internal/domain"
)

// Client is a persistence REST API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("persist: status=%d body=%s", e.StatusCode, e.Body)
}

// New creates a persistence client for the given base URL and API key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, endpoint, idempotencyKey string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(endpoint, "/"), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetProject fetches a project with its tracker integration identifiers.
func (c *Client) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	var resp struct {
		ID            string `json:"id"`
		DomainID      string `json:"domainId"`
		Name          string `json:"name"`
		AreaID        string `json:"areaId"`
		ServiceDeskID string `json:"serviceDeskId"`
		RequestTypeID string `json:"requestTypeId"`
		Language      string `json:"language"`
	}
	endpoint := fmt.Sprintf("/api/v1/projects/%s", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return domain.Project{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return domain.Project{
		ID:            resp.ID,
		DomainID:      resp.DomainID,
		Name:          resp.Name,
		AreaID:        resp.AreaID,
		ServiceDeskID: resp.ServiceDeskID,
		RequestTypeID: resp.RequestTypeID,
		Language:      resp.Language,
	}, nil
}

// ListDomainProtocols returns the protocols configured for a domain.
func (c *Client) ListDomainProtocols(ctx context.Context, domainID string) ([]domain.Protocol, error) {
	var resp struct {
		Items []struct {
			ID           string `json:"id"`
			TmProtocolID string `json:"tmProtocolId"`
			Name         string `json:"name"`
		} `json:"items"`
	}
	endpoint := fmt.Sprintf("/api/v1/domains/%s/protocols", url.PathEscape(domainID))
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list protocols for domain %s: %w", domainID, err)
	}
	protocols := make([]domain.Protocol, len(resp.Items))
	for i, p := range resp.Items {
		protocols[i] = domain.Protocol{ID: p.ID, TmProtocolID: p.TmProtocolID, Name: p.Name}
	}
	return protocols, nil
}

// ListDomainForms returns the data-collection forms of a domain.
func (c *Client) ListDomainForms(ctx context.Context, domainID string) ([]domain.Form, error) {
	var resp struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	endpoint := fmt.Sprintf("/api/v1/domains/%s/forms", url.PathEscape(domainID))
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list forms for domain %s: %w", domainID, err)
	}
	forms := make([]domain.Form, len(resp.Items))
	for i, f := range resp.Items {
		forms[i] = domain.Form{ID: f.ID, Name: f.Name}
	}
	return forms, nil
}

// CreateService creates the service row referencing the tracker issue key.
func (c *Client) CreateService(ctx context.Context, svc domain.Service, idempotencyKey string) (domain.Service, error) {
	body := map[string]any{
		"projectId":    svc.ProjectID,
		"name":         svc.Name,
		"tmpRequestId": svc.TmpRequestID,
		"requestId":    svc.RequestID,
		"protocolId":   svc.ProtocolID,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/services", idempotencyKey, body, &resp); err != nil {
		return domain.Service{}, fmt.Errorf("create service: %w", err)
	}
	svc.ID = resp.ID
	return svc, nil
}

// CreateField creates one field row for a selected lot and returns its row ID.
func (c *Client) CreateField(ctx context.Context, serviceID string, lot domain.Lot, idempotencyKey string) (string, error) {
	body := map[string]any{
		"serviceId":     serviceID,
		"workspaceId":   lot.WorkspaceID,
		"workspaceName": lot.WorkspaceName,
		"campaignId":    lot.SeasonID,
		"campaignName":  lot.SeasonName,
		"farmId":        lot.FarmID,
		"farmName":      lot.FarmName,
		"fieldId":       lot.FieldID,
		"fieldName":     lot.FieldName,
		"hectares":      lot.Hectares,
		"crop":          lot.Crop,
		"hybrid":        lot.Hybrid,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/fields", idempotencyKey, body, &resp); err != nil {
		return "", fmt.Errorf("create field %s: %w", lot.FieldName, err)
	}
	return resp.ID, nil
}

// CreateTask creates one task row referencing the service and returns the
// task with its row ID set.
func (c *Client) CreateTask(ctx context.Context, serviceID string, task domain.Task, idempotencyKey string) (domain.Task, error) {
	body := map[string]any{
		"serviceId":    serviceID,
		"taskName":     task.TaskName,
		"taskType":     task.TaskType,
		"userEmail":    task.UserEmail,
		"formId":       task.FormID,
		"tmpSubtaskId": task.TmpSubtaskID,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", idempotencyKey, body, &resp); err != nil {
		return domain.Task{}, fmt.Errorf("create task %s: %w", task.TaskName, err)
	}
	task.ID = resp.ID
	return task, nil
}

// TaskFieldLink associates one task row with one field row.
type TaskFieldLink struct {
	TaskID  string `json:"taskId"`
	FieldID string `json:"fieldId"`
}

// CreateTaskFieldBatch creates task-field association rows in one call.
func (c *Client) CreateTaskFieldBatch(ctx context.Context, links []TaskFieldLink, idempotencyKey string) error {
	if len(links) == 0 {
		return nil
	}
	body := map[string]any{"items": links}
	if err := c.do(ctx, http.MethodPost, "/api/v1/task-fields/batch", idempotencyKey, body, nil); err != nil {
		return fmt.Errorf("create task-field batch: %w", err)
	}
	return nil
}

// UpdateTask patches a task row, used to store the tracker sub-issue key
// after sub-issue creation.
func (c *Client) UpdateTask(ctx context.Context, taskID string, patch map[string]any) error {
	endpoint := fmt.Sprintf("/api/v1/tasks/%s", url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodPatch, endpoint, "", patch, nil); err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	return nil
}
