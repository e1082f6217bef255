package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

// commandTable maps CLI command tokens onto workflow selections. Unknown
// commands fall back to the default selection.
var commandTable = map[string][]string{
	"default":            {"code-review", "issue-tracker"},
	"pr":                 {"code-review", "issue-tracker"},
	"commit":             {"commit"},
	"code-review-only":   {"code-review"},
	"issue-tracker-only": {"issue-tracker"},
}

// WorkflowsFor returns the workflow names a command selects.
func WorkflowsFor(command string) []string {
	if names, ok := commandTable[command]; ok {
		return names
	}
	return commandTable["default"]
}

// Orchestrator owns the workflow registry and runs selections.
type Orchestrator struct {
	registry map[string]Workflow
}

// NewOrchestrator creates an empty orchestrator.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{registry: make(map[string]Workflow)}
}

// Register adds a workflow to the registry. Names must be unique.
func (o *Orchestrator) Register(w Workflow) error {
	name := w.Name()
	if _, exists := o.registry[name]; exists {
		return fmt.Errorf("workflow %q is already registered", name)
	}
	o.registry[name] = w
	return nil
}

// Run executes the command's workflow selection against the Context,
// sequentially in dependency order. Disabled workflows and workflows whose
// preconditions fail are skipped with a reason. A critical workflow failure
// aborts the run; non-critical failures are recorded and execution
// continues. Successful outputs are published into the Context under the
// workflow's name.
func (o *Orchestrator) Run(ctx context.Context, command string, c *models.Context, opts Options) ([]Result, error) {
	selected, err := o.resolve(WorkflowsFor(command))
	if err != nil {
		return nil, err
	}
	ordered, err := sortByDependencies(selected)
	if err != nil {
		return nil, err
	}

	var executed []Workflow
	defer func() {
		for i := len(executed) - 1; i >= 0; i-- {
			if cleaner, ok := executed[i].(Cleaner); ok {
				if err := cleaner.Cleanup(ctx, c); err != nil {
					logging.Warn("workflow cleanup failed", "workflow", executed[i].Name(), "error", err)
				}
			}
		}
	}()

	results := make([]Result, 0, len(ordered))
	for _, w := range ordered {
		result := o.runOne(ctx, w, c, opts)
		if result.Skipped {
			logging.Info("workflow skipped", "workflow", result.Name, "reason", result.Reason)
		} else {
			executed = append(executed, w)
		}
		results = append(results, result)

		if result.Error != "" && w.Critical() {
			return results, fmt.Errorf("critical workflow %s failed: %s", result.Name, result.Error)
		}
	}
	return results, nil
}

func (o *Orchestrator) runOne(ctx context.Context, w Workflow, c *models.Context, opts Options) Result {
	result := Result{Name: w.Name()}

	if !w.IsEnabled() {
		result.Skipped = true
		result.Reason = "disabled in configuration"
		return result
	}
	if ok, reason := w.CanExecute(c); !ok {
		result.Skipped = true
		result.Reason = reason
		return result
	}

	start := time.Now()
	output, err := w.Execute(ctx, c, opts)
	result.Duration = time.Since(start)

	if err != nil {
		if handler, ok := w.(ErrorHandler); ok {
			err = handler.HandleError(ctx, c, err)
		}
	}
	if err != nil {
		result.Error = err.Error()
		logging.Error("workflow failed", "workflow", result.Name, "error", err)
		return result
	}

	result.Output = output
	if err := c.SetResult(w.Name(), output); err != nil {
		result.Error = err.Error()
		return result
	}
	logging.Info("workflow completed", "workflow", result.Name, "duration", result.Duration.String())
	return result
}

// resolve maps selected names onto registered workflows, failing on any
// name with no registration.
func (o *Orchestrator) resolve(names []string) ([]Workflow, error) {
	workflows := make([]Workflow, 0, len(names))
	for _, name := range names {
		w, ok := o.registry[name]
		if !ok {
			return nil, fmt.Errorf("no workflow registered for %q", name)
		}
		workflows = append(workflows, w)
	}
	return workflows, nil
}

// sortByDependencies orders the selection so every workflow runs after its
// dependencies. Dependencies outside the selection are ignored; cycles are
// an error.
func sortByDependencies(selected []Workflow) ([]Workflow, error) {
	inSelection := make(map[string]Workflow, len(selected))
	for _, w := range selected {
		inSelection[w.Name()] = w
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(selected))
	ordered := make([]Workflow, 0, len(selected))

	var visit func(w Workflow) error
	visit = func(w Workflow) error {
		switch state[w.Name()] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("workflow dependency cycle involving %q", w.Name())
		}
		state[w.Name()] = visiting
		for _, dep := range w.Dependencies() {
			if depWorkflow, ok := inSelection[dep]; ok {
				if err := visit(depWorkflow); err != nil {
					return err
				}
			}
		}
		state[w.Name()] = done
		ordered = append(ordered, w)
		return nil
	}

	for _, w := range selected {
		if err := visit(w); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
