package linear

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
)

// newTestClient points a client at a stub GraphQL server and records every
// request it receives.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]graphQLRequest) {
	t.Helper()
	var requests []graphQLRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		assert.Equal(t, "lin_test", r.Header.Get("Authorization"))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(config.LinearConfig{APIKey: "lin_test", URL: srv.URL})
	require.NoError(t, err)
	return c, &requests
}

func respond(w http.ResponseWriter, data string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"data": ` + data + `}`))
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.LinearConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestSplitIdentifier(t *testing.T) {
	tests := []struct {
		in      string
		team    string
		number  int
		wantErr bool
	}{
		{"ABC-12", "ABC", 12, false},
		{"XY-9", "XY", 9, false},
		{"MY-TEAM-3", "MY-TEAM", 3, false},
		{"ABC", "", 0, true},
		{"ABC-", "", 0, true},
		{"-12", "", 0, true},
		{"ABC-twelve", "", 0, true},
	}
	for _, tt := range tests {
		team, number, err := SplitIdentifier(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.team, team)
		assert.Equal(t, tt.number, number)
	}
}

func TestGetIssue(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"issues": {"nodes": [
			{"id": "issue-1", "identifier": "ABC-12", "title": "Add login",
			 "description": "desc", "estimate": 3, "url": "https://linear.app/x/ABC-12",
			 "state": {"name": "Todo"}, "team": {"id": "team-1"},
			 "project": {"id": "proj-1", "name": "Auth"}}
		]}}`)
	})

	ticket, project, err := c.GetIssue(context.Background(), "abc-12")
	require.NoError(t, err)

	assert.Equal(t, "issue-1", ticket.IssueID)
	assert.Equal(t, "ABC-12", ticket.Identifier)
	assert.Equal(t, "Todo", ticket.StateName)
	assert.Equal(t, "team-1", ticket.TeamID)
	assert.InDelta(t, 3, ticket.Estimate, 0.01)
	require.NotNil(t, project)
	assert.Equal(t, "Auth", project.Name)

	// The lookup filters by team key and issue number.
	require.Len(t, *requests, 1)
	filter := (*requests)[0].Variables["filter"].(map[string]any)
	team := filter["team"].(map[string]any)["key"].(map[string]any)
	assert.Equal(t, "abc", team["eq"])
}

func TestGetIssueNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"issues": {"nodes": [
			{"id": "other", "identifier": "ABC-120", "state": {"name": "Todo"}, "team": {"id": "t"}}
		]}}`)
	})

	_, _, err := c.GetIssue(context.Background(), "ABC-12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetIssueWithoutProject(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"issues": {"nodes": [
			{"id": "issue-1", "identifier": "ABC-12", "state": {"name": "Todo"}, "team": {"id": "t"}}
		]}}`)
	})

	_, project, err := c.GetIssue(context.Background(), "ABC-12")
	require.NoError(t, err)
	assert.Nil(t, project)
}

func TestDoSurfacesGraphQLErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "rate limited"}, {"message": "try later"}]}`))
	})

	err := c.CreateComment(context.Background(), "issue-1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited; try later")
}

func TestDoSurfacesHTTPErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	err := c.UpdateIssueState(context.Background(), "issue-1", "state-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTeamStates(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"team": {"states": {"nodes": [
			{"id": "s1", "name": "Todo", "type": "unstarted"},
			{"id": "s2", "name": "In Progress", "type": "started"}
		]}}}`)
	})

	states, err := c.TeamStates(context.Background(), "team-1")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "In Progress", states[1].Name)
}

func TestUpdateIssueState(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"issueUpdate": {"success": true}}`)
	})

	require.NoError(t, c.UpdateIssueState(context.Background(), "issue-1", "state-2"))

	vars := (*requests)[0].Variables
	assert.Equal(t, "issue-1", vars["id"])
	assert.Equal(t, "state-2", vars["stateId"])
}

func TestUpdateIssueStateUnsuccessful(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"issueUpdate": {"success": false}}`)
	})

	assert.Error(t, c.UpdateIssueState(context.Background(), "issue-1", "state-2"))
}

func TestCreateIssue(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"issueCreate": {"success": true, "issue": {"id": "new-1", "identifier": "ABC-99"}}}`)
	})

	id, identifier, err := c.CreateIssue(context.Background(), IssueCreateInput{
		TeamID:    "team-1",
		Title:     "Security review",
		Priority:  1,
		Estimate:  2,
		ProjectID: "proj-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)
	assert.Equal(t, "ABC-99", identifier)

	input := (*requests)[0].Variables["input"].(map[string]any)
	assert.Equal(t, "team-1", input["teamId"])
	assert.Equal(t, float64(2), input["estimate"])
	assert.Equal(t, "proj-1", input["projectId"])
	_, hasAssignee := input["assigneeId"]
	assert.False(t, hasAssignee)
}

func TestCreateRelation(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"issueRelationCreate": {"success": true}}`)
	})

	require.NoError(t, c.CreateRelation(context.Background(), "parent", "child", "blocks"))

	vars := (*requests)[0].Variables
	assert.Equal(t, "blocks", vars["type"])
}
