package workflow

import (
	"testing"

	"github.com/growthops/adpulse/internal/services/llm"
)

func TestDefaultTaskProviderMap(t *testing.T) {
	m, err := NewTaskProviderMap(nil)
	if err != nil {
		t.Fatalf("NewTaskProviderMap(nil) returned error: %v", err)
	}

	expected := map[Task]llm.Identity{
		TaskCompetitorIdentification: llm.IdentityGemini,
		TaskTrafficAnalysis:          llm.IdentityGemini,
		TaskMarketGapAnalysis:        llm.IdentityClaude,
		TaskGrowthOpportunity:        llm.IdentityClaude,
		TaskMetaAdsDiagnostic:        llm.IdentityGemini,
		TaskStrategicRecommendations: llm.IdentityClaude,
		TaskExecutiveSummary:         llm.IdentityClaude,
	}

	for task, want := range expected {
		if got := m.ProviderFor(task); got != want {
			t.Errorf("ProviderFor(%s) = %s, want %s", task, got, want)
		}
	}
}

func TestTaskProviderMapOverrides(t *testing.T) {
	m, err := NewTaskProviderMap(map[string]string{
		"market_gap_analysis": "gemini",
	})
	if err != nil {
		t.Fatalf("NewTaskProviderMap returned error: %v", err)
	}

	if got := m.ProviderFor(TaskMarketGapAnalysis); got != llm.IdentityGemini {
		t.Errorf("overridden task resolved to %s, want gemini", got)
	}
	// Untouched tasks keep their defaults.
	if got := m.ProviderFor(TaskExecutiveSummary); got != llm.IdentityClaude {
		t.Errorf("default task resolved to %s, want claude", got)
	}
}

func TestTaskProviderMapValidation(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{"unknown task", map[string]string{"sentiment_analysis": "claude"}},
		{"unknown provider", map[string]string{"traffic_analysis": "gpt4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTaskProviderMap(tt.overrides)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestTaskProviderMapCloneIsIndependent(t *testing.T) {
	base, _ := NewTaskProviderMap(nil)
	clone := base.Clone()

	if err := clone.SetProviderFor("executive_summary", "gemini"); err != nil {
		t.Fatalf("SetProviderFor returned error: %v", err)
	}

	if got := base.ProviderFor(TaskExecutiveSummary); got != llm.IdentityClaude {
		t.Errorf("mutating clone changed base assignment to %s", got)
	}
	if got := clone.ProviderFor(TaskExecutiveSummary); got != llm.IdentityGemini {
		t.Errorf("clone assignment = %s, want gemini", got)
	}
}

func TestTaskOrderIsFixed(t *testing.T) {
	want := []Task{
		TaskCompetitorIdentification,
		TaskTrafficAnalysis,
		TaskMarketGapAnalysis,
		TaskGrowthOpportunity,
		TaskMetaAdsDiagnostic,
		TaskStrategicRecommendations,
		TaskExecutiveSummary,
	}
	if len(Tasks) != len(want) {
		t.Fatalf("Tasks has %d entries, want %d", len(Tasks), len(want))
	}
	for i, task := range want {
		if Tasks[i] != task {
			t.Errorf("Tasks[%d] = %s, want %s", i, Tasks[i], task)
		}
	}
}
