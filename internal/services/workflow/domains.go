package workflow

import "strings"

// ExtractCompetitorDomains pulls likely competitor domains out of a
// free-form competitor data payload: entries with a "url" field, or
// string values that look like URLs or bare domains.
func ExtractCompetitorDomains(competitorData map[string]interface{}) []string {
	var domains []string
	for _, value := range competitorData {
		switch v := value.(type) {
		case map[string]interface{}:
			if u, ok := v["url"].(string); ok && u != "" {
				domains = append(domains, u)
			}
		case string:
			if strings.Contains(v, "http") || strings.Contains(v, ".") {
				domains = append(domains, v)
			}
		}
	}
	return domains
}
