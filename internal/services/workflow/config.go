package workflow

import (
	"github.com/growthops/adpulse/internal/services/llm"
)

// defaultProvider is used when a task has no assignment.
const defaultProvider = llm.IdentityClaude

// defaultAssignments pairs each workflow task with the backend best
// suited to it. Gemini handles the research and data-analysis stages,
// Claude the strategic and editorial ones.
var defaultAssignments = map[Task]llm.Identity{
	TaskCompetitorIdentification: llm.IdentityGemini,
	TaskTrafficAnalysis:          llm.IdentityGemini,
	TaskMarketGapAnalysis:        llm.IdentityClaude,
	TaskGrowthOpportunity:        llm.IdentityClaude,
	TaskMetaAdsDiagnostic:        llm.IdentityGemini,
	TaskStrategicRecommendations: llm.IdentityClaude,
	TaskExecutiveSummary:         llm.IdentityClaude,
}

// TaskProviderMap assigns an LLM backend to every workflow task.
// The zero state is the built-in default assignment; overrides merge
// on top, override wins per key.
type TaskProviderMap struct {
	assignments map[Task]llm.Identity
}

// NewTaskProviderMap builds an assignment from the defaults plus the
// given overrides. Overrides are validated against the task set and
// the known provider identities; the first invalid entry is returned
// as a ValidationError.
func NewTaskProviderMap(overrides map[string]string) (*TaskProviderMap, error) {
	m := &TaskProviderMap{assignments: make(map[Task]llm.Identity, len(Tasks))}
	for task, provider := range defaultAssignments {
		m.assignments[task] = provider
	}
	for name, provider := range overrides {
		if err := m.set(name, provider); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ProviderFor returns the backend assigned to the task, falling back
// to the global default for unassigned tasks.
func (m *TaskProviderMap) ProviderFor(task Task) llm.Identity {
	if provider, ok := m.assignments[task]; ok {
		return provider
	}
	return defaultProvider
}

// SetProviderFor reassigns a single task. Both the task name and the
// provider identity are validated.
func (m *TaskProviderMap) SetProviderFor(task string, provider string) error {
	return m.set(task, provider)
}

// Clone returns an independent copy, used to scope per-call overrides
// without mutating the shared assignment.
func (m *TaskProviderMap) Clone() *TaskProviderMap {
	clone := &TaskProviderMap{assignments: make(map[Task]llm.Identity, len(m.assignments))}
	for task, provider := range m.assignments {
		clone.assignments[task] = provider
	}
	return clone
}

// Assignments returns the current task-to-provider view keyed by task
// name, in no particular order.
func (m *TaskProviderMap) Assignments() map[string]string {
	out := make(map[string]string, len(m.assignments))
	for task, provider := range m.assignments {
		out[string(task)] = string(provider)
	}
	return out
}

func (m *TaskProviderMap) set(task string, provider string) error {
	if !IsKnownTask(task) {
		return &ValidationError{Task: task, Provider: provider, Reason: "unknown task"}
	}
	if !llm.IsKnownIdentity(provider) {
		return &ValidationError{Task: task, Provider: provider, Reason: "unknown provider"}
	}
	m.assignments[Task(task)] = llm.Identity(provider)
	return nil
}
