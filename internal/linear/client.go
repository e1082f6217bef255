// Package linear provides the issue-tracker adapter. The tracker speaks a
// GraphQL API: issues are looked up by identifier, team workflow states are
// enumerated, and mutations cover state updates, comments, issue creation,
// and issue relations. The adapter is pure I/O; all orchestration lives in
// the ticket state machine.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

const defaultEndpoint = "https://api.linear.app/graphql"

// Client handles interactions with the issue-tracker GraphQL API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new issue-tracker client from configuration.
func NewClient(cfg config.LinearConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("linear api key not found in configuration")
	}
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	logging.Debug("linear configuration",
		"endpoint", endpoint,
		"api_key", logging.MaskSensitive(cfg.APIKey))
	return &Client{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// do executes one GraphQL operation and decodes the data payload into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read graphql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded graphQLResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("failed to decode graphql response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		messages := make([]string, len(decoded.Errors))
		for i, e := range decoded.Errors {
			messages[i] = e.Message
		}
		return fmt.Errorf("graphql errors: %s", strings.Join(messages, "; "))
	}
	if out != nil {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return fmt.Errorf("failed to decode graphql data: %w", err)
		}
	}
	return nil
}

// SplitIdentifier splits a ticket identifier like "ABC-12" into its team key
// and issue number.
func SplitIdentifier(identifier string) (teamKey string, number int, err error) {
	idx := strings.LastIndex(identifier, "-")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid ticket identifier: %s", identifier)
	}
	number, err = strconv.Atoi(identifier[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid ticket identifier: %s", identifier)
	}
	return identifier[:idx], number, nil
}

const issueQuery = `query Issues($filter: IssueFilter) {
  issues(first: 50, filter: $filter) {
    nodes {
      id
      identifier
      title
      description
      estimate
      url
      state { name }
      team { id }
      project { id name }
    }
  }
}`

// GetIssue looks up an issue by its human identifier (for example ABC-12).
// Returns the issue and, when the issue belongs to a project, the project.
func (c *Client) GetIssue(ctx context.Context, identifier string) (*models.TicketData, *models.ProjectData, error) {
	teamKey, number, err := SplitIdentifier(identifier)
	if err != nil {
		return nil, nil, err
	}

	variables := map[string]any{
		"filter": map[string]any{
			"team":   map[string]any{"key": map[string]any{"eq": teamKey}},
			"number": map[string]any{"eq": number},
		},
	}

	var data struct {
		Issues struct {
			Nodes []struct {
				ID          string  `json:"id"`
				Identifier  string  `json:"identifier"`
				Title       string  `json:"title"`
				Description string  `json:"description"`
				Estimate    float64 `json:"estimate"`
				URL         string  `json:"url"`
				State       struct {
					Name string `json:"name"`
				} `json:"state"`
				Team struct {
					ID string `json:"id"`
				} `json:"team"`
				Project *struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"project"`
			} `json:"nodes"`
		} `json:"issues"`
	}
	if err := c.do(ctx, issueQuery, variables, &data); err != nil {
		return nil, nil, err
	}

	for _, node := range data.Issues.Nodes {
		if !strings.EqualFold(node.Identifier, identifier) {
			continue
		}
		ticket := &models.TicketData{
			IssueID:     node.ID,
			Identifier:  node.Identifier,
			Title:       node.Title,
			Description: node.Description,
			StateName:   node.State.Name,
			TeamID:      node.Team.ID,
			Estimate:    node.Estimate,
			URL:         node.URL,
		}
		var project *models.ProjectData
		if node.Project != nil {
			project = &models.ProjectData{ID: node.Project.ID, Name: node.Project.Name}
		}
		return ticket, project, nil
	}
	return nil, nil, fmt.Errorf("issue %s not found", identifier)
}

// WorkflowState is one state in a team's workflow.
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

const teamStatesQuery = `query TeamStates($id: String!) {
  team(id: $id) {
    states {
      nodes { id name type }
    }
  }
}`

// TeamStates lists the workflow states of a team.
func (c *Client) TeamStates(ctx context.Context, teamID string) ([]WorkflowState, error) {
	var data struct {
		Team struct {
			States struct {
				Nodes []WorkflowState `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := c.do(ctx, teamStatesQuery, map[string]any{"id": teamID}, &data); err != nil {
		return nil, fmt.Errorf("failed to list team states: %w", err)
	}
	return data.Team.States.Nodes, nil
}

const issueUpdateMutation = `mutation IssueUpdate($id: String!, $stateId: String!) {
  issueUpdate(id: $id, input: { stateId: $stateId }) {
    success
  }
}`

// UpdateIssueState moves an issue to the given workflow state.
func (c *Client) UpdateIssueState(ctx context.Context, issueID, stateID string) error {
	var data struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	if err := c.do(ctx, issueUpdateMutation, map[string]any{"id": issueID, "stateId": stateID}, &data); err != nil {
		return fmt.Errorf("failed to update issue state: %w", err)
	}
	if !data.IssueUpdate.Success {
		return fmt.Errorf("issue state update was not applied")
	}
	return nil
}

const commentCreateMutation = `mutation CommentCreate($issueId: String!, $body: String!) {
  commentCreate(input: { issueId: $issueId, body: $body }) {
    success
  }
}`

// CreateComment posts a comment on an issue.
func (c *Client) CreateComment(ctx context.Context, issueID, body string) error {
	var data struct {
		CommentCreate struct {
			Success bool `json:"success"`
		} `json:"commentCreate"`
	}
	if err := c.do(ctx, commentCreateMutation, map[string]any{"issueId": issueID, "body": body}, &data); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	if !data.CommentCreate.Success {
		return fmt.Errorf("comment was not created")
	}
	return nil
}

// IssueCreateInput describes a new issue.
type IssueCreateInput struct {
	TeamID      string
	Title       string
	Description string
	Priority    int
	Estimate    float64
	ProjectID   string
	AssigneeID  string
}

const issueCreateMutation = `mutation IssueCreate($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { id identifier }
  }
}`

// CreateIssue creates a new issue and returns its ID and identifier.
func (c *Client) CreateIssue(ctx context.Context, input IssueCreateInput) (id, identifier string, err error) {
	fields := map[string]any{
		"teamId":      input.TeamID,
		"title":       input.Title,
		"description": input.Description,
		"priority":    input.Priority,
	}
	if input.Estimate > 0 {
		fields["estimate"] = input.Estimate
	}
	if input.ProjectID != "" {
		fields["projectId"] = input.ProjectID
	}
	if input.AssigneeID != "" {
		fields["assigneeId"] = input.AssigneeID
	}

	var data struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   struct {
				ID         string `json:"id"`
				Identifier string `json:"identifier"`
			} `json:"issue"`
		} `json:"issueCreate"`
	}
	if err := c.do(ctx, issueCreateMutation, map[string]any{"input": fields}, &data); err != nil {
		return "", "", fmt.Errorf("failed to create issue: %w", err)
	}
	if !data.IssueCreate.Success {
		return "", "", fmt.Errorf("issue was not created")
	}
	return data.IssueCreate.Issue.ID, data.IssueCreate.Issue.Identifier, nil
}

const issueRelationMutation = `mutation IssueRelationCreate($issueId: String!, $relatedIssueId: String!, $type: IssueRelationType!) {
  issueRelationCreate(input: { issueId: $issueId, relatedIssueId: $relatedIssueId, type: $type }) {
    success
  }
}`

// CreateRelation links two issues, for example with the "blocks" relation.
func (c *Client) CreateRelation(ctx context.Context, issueID, relatedIssueID, relationType string) error {
	variables := map[string]any{
		"issueId":        issueID,
		"relatedIssueId": relatedIssueID,
		"type":           relationType,
	}
	var data struct {
		IssueRelationCreate struct {
			Success bool `json:"success"`
		} `json:"issueRelationCreate"`
	}
	if err := c.do(ctx, issueRelationMutation, variables, &data); err != nil {
		return fmt.Errorf("failed to create issue relation: %w", err)
	}
	if !data.IssueRelationCreate.Success {
		return fmt.Errorf("issue relation was not created")
	}
	return nil
}
