package workflow

import (
	"encoding/json"
	"fmt"
)

// promptData carries the upstream inputs embedded into stage prompts.
// Every stage re-embeds the same inputs rather than consuming parsed
// output from earlier stages, so stage order only affects presentation.
type promptData struct {
	Domain     string
	Meta       string
	Competitor string
	Traffic    string
}

func newPromptData(domain string, meta, competitor map[string]interface{}, traffic map[string]map[string]interface{}) *promptData {
	return &promptData{
		Domain:     domain,
		Meta:       compactJSON(meta),
		Competitor: compactJSON(competitor),
		Traffic:    compactJSON(traffic),
	}
}

func compactJSON(v interface{}) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// stagePrompt renders the prompt for a workflow stage.
func stagePrompt(task Task, d *promptData) string {
	switch task {
	case TaskCompetitorIdentification:
		return fmt.Sprintf(`Analyze the market for %s and identify the top 5 direct competitors.
Focus on brands that compete in Meta Ads auctions.
Provide: name, URL, and key strength for each competitor.
Format as JSON array.`, d.Domain)

	case TaskTrafficAnalysis:
		return fmt.Sprintf(`Analyze this traffic data for %s and its competitive set: %s
Compare monthly visits, engagement and device mix across the domains.
Highlight where %s is winning or losing attention.`, d.Domain, d.Traffic, d.Domain)

	case TaskMarketGapAnalysis:
		return fmt.Sprintf(`Based on this Meta Ads data: %s
And competitor data: %s

Identify the biggest market gap or inefficiency.
What opportunity exists that competitors are missing?`, d.Meta, d.Competitor)

	case TaskGrowthOpportunity:
		return fmt.Sprintf(`For %s, identify 3 high-impact growth opportunities in Meta Ads.
Consider: %s and %s
Provide actionable strategies with projected impact.`, d.Domain, d.Meta, d.Competitor)

	case TaskMetaAdsDiagnostic:
		return fmt.Sprintf(`Analyze this Meta Ads performance data: %s
Identify the top 3 issues or optimization opportunities.
Be specific and data-driven.`, d.Meta)

	case TaskStrategicRecommendations:
		return fmt.Sprintf(`Based on this Meta Ads data: %s, competitor data: %s and traffic data: %s,
provide 5 strategic recommendations for %s to improve Meta Ads performance
and capture market share. Prioritize by impact and feasibility.`, d.Meta, d.Competitor, d.Traffic, d.Domain)

	case TaskExecutiveSummary:
		return fmt.Sprintf(`Create an executive summary for %s's market research analysis.
Include: key findings, opportunities, and recommended actions.
Keep it concise and actionable.`, d.Domain)
	}
	return ""
}

// insightPrompt renders the single-call insight prompt used by the
// report pipeline.
func insightPrompt(meta, competitor map[string]interface{}) string {
	return fmt.Sprintf(`You are an e-commerce growth strategist.
Meta performance:
%s

Competitor intelligence:
%s

Write:
1. 3 bullet insight summary
2. Top optimizations for Meta Ads to raise ROAS
3. Defensive moves vs competitors
Keep tone actionable.`, compactJSON(meta), compactJSON(competitor))
}
