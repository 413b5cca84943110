// Package workflow orchestrates the multi-stage market research
// prompt chain, routing each stage to an LLM backend according to a
// configurable task-to-provider assignment.
package workflow

// Task identifies one stage of the market research workflow
type Task string

const (
	TaskCompetitorIdentification Task = "competitor_identification"
	TaskTrafficAnalysis          Task = "traffic_analysis"
	TaskMarketGapAnalysis        Task = "market_gap_analysis"
	TaskGrowthOpportunity        Task = "growth_opportunity"
	TaskMetaAdsDiagnostic        Task = "meta_ads_diagnostic"
	TaskStrategicRecommendations Task = "strategic_recommendations"
	TaskExecutiveSummary         Task = "executive_summary"
)

// Tasks is the fixed workflow stage sequence. Order matters: report
// generation executes the stages in this order.
var Tasks = []Task{
	TaskCompetitorIdentification,
	TaskTrafficAnalysis,
	TaskMarketGapAnalysis,
	TaskGrowthOpportunity,
	TaskMetaAdsDiagnostic,
	TaskStrategicRecommendations,
	TaskExecutiveSummary,
}

var taskDescriptions = map[Task]string{
	TaskCompetitorIdentification: "Identify the top direct competitors active in paid social auctions",
	TaskTrafficAnalysis:          "Analyze traffic patterns for the domain and its competitors",
	TaskMarketGapAnalysis:        "Identify the biggest market gap or inefficiency competitors are missing",
	TaskGrowthOpportunity:        "Identify high-impact growth opportunities in Meta Ads",
	TaskMetaAdsDiagnostic:        "Diagnose issues and optimization opportunities in Meta Ads performance data",
	TaskStrategicRecommendations: "Provide prioritized strategic recommendations to capture market share",
	TaskExecutiveSummary:         "Summarize key findings, opportunities and recommended actions",
}

// Description returns a human-readable summary of what the task does
func (t Task) Description() string {
	return taskDescriptions[t]
}

// IsKnownTask reports whether name is a registered workflow task
func IsKnownTask(name string) bool {
	_, ok := taskDescriptions[Task(name)]
	return ok
}
