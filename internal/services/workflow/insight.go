package workflow

import (
	"context"

	"github.com/growthops/adpulse/internal/services/llm"
)

// InsightResult is the output of a single insight generation
type InsightResult struct {
	Text     string                 `json:"text"`
	Provider string                 `json:"provider"`
	Model    string                 `json:"model,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// offlineInsight is returned when no LLM backend holds a credential,
// so reports remain generatable in unconfigured environments.
const offlineInsight = `Summary:
- Spend stable, ROAS above benchmark.
- Competitors leaning heavier into paid social.
- Opportunity to scale top audiences.

Optimizations:
1. Increase budget on high-ROAS ad sets by 20%.
2. Launch Advantage+ shopping targeting lookalike 2%.
3. Refresh creative around UGC hooks emphasizing price advantage.

Defensive Moves:
- Monitor CompetitorA's CPC trend weekly.
- Capture organic terms they dominate via content partnerships.
- Build affiliate promos to counter their influencer push.`

// GenerateInsight runs the single-call insight prompt through the
// default backend. An unavailable backend degrades to a deterministic
// offline insight; an upstream generation failure propagates.
func (s *Service) GenerateInsight(ctx context.Context, meta, competitor map[string]interface{}) (*InsightResult, error) {
	identity := s.registry.DefaultIdentity()
	response, err := s.registry.Generate(ctx, identity, &llm.GenerateRequest{
		Prompt: insightPrompt(meta, competitor),
	})
	if err != nil {
		if llm.IsUnavailable(err) {
			s.logger.Warn().
				Str("provider", string(identity)).
				Msg("Default provider unavailable, returning offline insight")
			return &InsightResult{Text: offlineInsight, Provider: "fallback"}, nil
		}
		return nil, err
	}

	return &InsightResult{
		Text:     response.Content,
		Provider: string(response.Provider),
		Model:    response.Model,
		Metadata: response.Metadata,
	}, nil
}
