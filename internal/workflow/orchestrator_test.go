package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// stubWorkflow is a scriptable workflow for orchestrator tests.
type stubWorkflow struct {
	name      string
	critical  bool
	deps      []string
	enabled   bool
	canRun    bool
	reason    string
	output    any
	err       error
	executed  *[]string
	cleanedUp bool
}

func (s *stubWorkflow) Name() string           { return s.name }
func (s *stubWorkflow) Critical() bool         { return s.critical }
func (s *stubWorkflow) Dependencies() []string { return s.deps }
func (s *stubWorkflow) Parallel() bool         { return false }
func (s *stubWorkflow) IsEnabled() bool        { return s.enabled }

func (s *stubWorkflow) CanExecute(c *models.Context) (bool, string) {
	return s.canRun, s.reason
}

func (s *stubWorkflow) Execute(ctx context.Context, c *models.Context, opts Options) (any, error) {
	if s.executed != nil {
		*s.executed = append(*s.executed, s.name)
	}
	return s.output, s.err
}

func runnable(name string, executed *[]string) *stubWorkflow {
	return &stubWorkflow{name: name, enabled: true, canRun: true, output: name + "-output", executed: executed}
}

func TestWorkflowsFor(t *testing.T) {
	assert.Equal(t, []string{"code-review", "issue-tracker"}, WorkflowsFor("pr"))
	assert.Equal(t, []string{"code-review", "issue-tracker"}, WorkflowsFor("default"))
	assert.Equal(t, []string{"commit"}, WorkflowsFor("commit"))
	assert.Equal(t, []string{"code-review"}, WorkflowsFor("code-review-only"))
	assert.Equal(t, []string{"issue-tracker"}, WorkflowsFor("issue-tracker-only"))
	assert.Equal(t, []string{"code-review", "issue-tracker"}, WorkflowsFor("no-such-command"))
}

func TestOrchestratorRegisterRejectsDuplicates(t *testing.T) {
	o := NewOrchestrator()
	require.NoError(t, o.Register(runnable("code-review", nil)))
	assert.Error(t, o.Register(runnable("code-review", nil)))
}

func TestOrchestratorRunsInDependencyOrder(t *testing.T) {
	var executed []string
	o := NewOrchestrator()

	review := runnable("code-review", &executed)
	ticket := runnable("issue-tracker", &executed)
	ticket.deps = []string{"code-review"}
	require.NoError(t, o.Register(ticket))
	require.NoError(t, o.Register(review))

	c := &models.Context{}
	results, err := o.Run(context.Background(), "pr", c, Options{})

	require.NoError(t, err)
	assert.Equal(t, []string{"code-review", "issue-tracker"}, executed)
	require.Len(t, results, 2)

	// Outputs are published into the Context under the workflow name.
	out, ok := c.Result("code-review")
	require.True(t, ok)
	assert.Equal(t, "code-review-output", out)
	_, ok = c.Result("issue-tracker")
	assert.True(t, ok)
}

func TestOrchestratorSkipsDisabledAndNotExecutable(t *testing.T) {
	var executed []string
	o := NewOrchestrator()

	disabled := runnable("code-review", &executed)
	disabled.enabled = false
	blocked := runnable("issue-tracker", &executed)
	blocked.canRun = false
	blocked.reason = "LINEAR_API_KEY is not configured"
	require.NoError(t, o.Register(disabled))
	require.NoError(t, o.Register(blocked))

	results, err := o.Run(context.Background(), "pr", &models.Context{}, Options{})

	require.NoError(t, err)
	assert.Empty(t, executed)
	require.Len(t, results, 2)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, "disabled in configuration", results[0].Reason)
	assert.True(t, results[1].Skipped)
	assert.Equal(t, "LINEAR_API_KEY is not configured", results[1].Reason)
}

func TestOrchestratorCriticalFailureAborts(t *testing.T) {
	var executed []string
	o := NewOrchestrator()

	failing := runnable("code-review", &executed)
	failing.critical = true
	failing.err = fmt.Errorf("host unreachable")
	after := runnable("issue-tracker", &executed)
	require.NoError(t, o.Register(failing))
	require.NoError(t, o.Register(after))

	results, err := o.Run(context.Background(), "pr", &models.Context{}, Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "code-review")
	require.Len(t, results, 1)
	assert.Equal(t, "host unreachable", results[0].Error)
	assert.Equal(t, []string{"code-review"}, executed)
}

func TestOrchestratorNonCriticalFailureContinues(t *testing.T) {
	var executed []string
	o := NewOrchestrator()

	failing := runnable("code-review", &executed)
	failing.err = fmt.Errorf("host unreachable")
	after := runnable("issue-tracker", &executed)
	require.NoError(t, o.Register(failing))
	require.NoError(t, o.Register(after))

	results, err := o.Run(context.Background(), "pr", &models.Context{}, Options{})

	require.NoError(t, err)
	assert.Equal(t, []string{"code-review", "issue-tracker"}, executed)
	assert.Equal(t, "host unreachable", results[0].Error)
	assert.Empty(t, results[1].Error)
}

func TestOrchestratorRejectsDependencyCycles(t *testing.T) {
	o := NewOrchestrator()

	a := runnable("code-review", nil)
	a.deps = []string{"issue-tracker"}
	b := runnable("issue-tracker", nil)
	b.deps = []string{"code-review"}
	require.NoError(t, o.Register(a))
	require.NoError(t, o.Register(b))

	_, err := o.Run(context.Background(), "pr", &models.Context{}, Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestOrchestratorMissingRegistrationFails(t *testing.T) {
	o := NewOrchestrator()
	require.NoError(t, o.Register(runnable("code-review", nil)))

	_, err := o.Run(context.Background(), "pr", &models.Context{}, Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue-tracker")
}

func TestOrchestratorResultsAreWriteOnce(t *testing.T) {
	c := &models.Context{}
	require.NoError(t, c.SetResult("code-review", "first"))
	assert.Error(t, c.SetResult("code-review", "second"))

	out, ok := c.Result("code-review")
	require.True(t, ok)
	assert.Equal(t, "first", out)
}
