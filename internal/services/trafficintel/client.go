// Package trafficintel fetches domain traffic and competitor market
// data. Every operation degrades to a deterministic fallback payload
// derived from the domain, so callers never see an error.
package trafficintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
)

// trafficPaths are tried in order; providers expose the same data
// under different route names.
var trafficPaths = []string{"/traffic", "/domain-traffic", "/website-traffic"}

// Client fetches traffic metrics and market share data
type Client struct {
	apiKey     string
	host       string
	httpClient *http.Client
	logger     arbor.ILogger

	// baseURL overrides the https://{host} derivation in tests
	baseURL string
}

func NewClient(config *common.TrafficIntelConfig, logger arbor.ILogger) *Client {
	return &Client{
		apiKey: config.APIKey,
		host:   config.Host,
		httpClient: &http.Client{
			Timeout: common.ParseDuration(config.Timeout, 30*time.Second),
		},
		logger: logger,
	}
}

// GetTrafficData fetches traffic metrics for a domain. Known endpoint
// shapes are tried in order and the first 200 response is normalized;
// anything else yields the deterministic fallback. Payloads always
// carry a "source" tag of "live" or "fallback".
func (c *Client) GetTrafficData(ctx context.Context, domain string) map[string]interface{} {
	cleaned := cleanDomain(domain)
	if c.apiKey == "" {
		return fallbackTraffic(cleaned)
	}

	for _, path := range trafficPaths {
		data, err := c.fetchTraffic(ctx, path, cleaned)
		if err != nil {
			c.logger.Debug().
				Err(err).
				Str("domain", cleaned).
				Str("path", path).
				Msg("Traffic endpoint attempt failed")
			continue
		}
		return normalizeTraffic(data, cleaned)
	}

	c.logger.Warn().Str("domain", cleaned).Msg("All traffic endpoints failed, using fallback data")
	return fallbackTraffic(cleaned)
}

// GetMultipleDomains fetches traffic data for several domains
// concurrently. Per-domain failures degrade to that domain's
// fallback; the batch itself never fails.
func (c *Client) GetMultipleDomains(ctx context.Context, domains []string) map[string]map[string]interface{} {
	results := make(map[string]map[string]interface{}, len(domains))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, domain := range domains {
		wg.Add(1)
		go func(domain string) {
			defer wg.Done()
			data := c.GetTrafficData(ctx, domain)
			mu.Lock()
			results[domain] = data
			mu.Unlock()
		}(domain)
	}
	wg.Wait()

	return results
}

// FetchMarketShare retrieves competitor market share for a domain,
// falling back to a fixed benchmark payload on any failure.
func (c *Client) FetchMarketShare(ctx context.Context, domain string) map[string]interface{} {
	cleaned := cleanDomain(domain)
	if c.apiKey == "" {
		return fallbackMarketShare(cleaned)
	}

	endpoint := c.base() + "/v1/market-share"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+domainQuery(cleaned), nil)
	if err != nil {
		return fallbackMarketShare(cleaned)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("domain", cleaned).Msg("Market share fetch failed, using fallback data")
		return fallbackMarketShare(cleaned)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("domain", cleaned).
			Msg("Market share fetch rejected, using fallback data")
		return fallbackMarketShare(cleaned)
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fallbackMarketShare(cleaned)
	}
	data["source"] = "live"
	return data
}

func (c *Client) fetchTraffic(ctx context.Context, path, domain string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base()+path+"?"+domainQuery(domain), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("traffic endpoint returned status %d", resp.StatusCode)
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) base() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + c.host
}

func domainQuery(domain string) string {
	params := url.Values{}
	params.Set("domain", domain)
	return params.Encode()
}

// cleanDomain strips scheme, www prefix and any path from a domain
func cleanDomain(domain string) string {
	d := strings.TrimPrefix(domain, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if idx := strings.Index(d, "/"); idx >= 0 {
		d = d[:idx]
	}
	return d
}

// normalizeTraffic maps the varying provider response shapes onto one
// structure.
func normalizeTraffic(data map[string]interface{}, domain string) map[string]interface{} {
	monthlyVisits := firstValue(data, "monthly_visits", "visits", "traffic", "estimated_visits")
	if monthlyVisits == nil {
		monthlyVisits = "N/A"
	}

	bounceRate := "N/A"
	if v, ok := numericValue(data, "bounce_rate", "bounceRate", "bounce"); ok {
		bounceRate = fmt.Sprintf("%.1f%%", v*100)
	} else if s, ok := stringValue(data, "bounce_rate", "bounceRate", "bounce"); ok {
		bounceRate = s
	}

	avgDuration := "N/A"
	if v, ok := numericValue(data, "avg_duration", "avgDuration", "avg_visit_duration", "time_on_site"); ok {
		avgDuration = formatDuration(v)
	} else if s, ok := stringValue(data, "avg_duration", "avgDuration", "avg_visit_duration", "time_on_site"); ok {
		avgDuration = s
	}

	deviceSplit := "N/A"
	if v, ok := numericValue(data, "device_split", "deviceSplit", "mobile_percentage"); ok {
		deviceSplit = fmt.Sprintf("%v%% Mobile", v)
	} else if s, ok := stringValue(data, "device_split", "deviceSplit", "mobile_percentage"); ok {
		deviceSplit = s
	}

	return map[string]interface{}{
		"domain":         domain,
		"monthly_visits": monthlyVisits,
		"bounce_rate":    bounceRate,
		"avg_duration":   avgDuration,
		"device_split":   deviceSplit,
		"raw_data":       data,
		"source":         "live",
	}
}

// fallbackTraffic derives stable metrics from the domain name so
// repeated calls for the same domain are identical.
func fallbackTraffic(domain string) map[string]interface{} {
	seed := len(domain)
	visits := 50000 + seed*12000

	return map[string]interface{}{
		"domain":         domain,
		"monthly_visits": fmt.Sprintf("%.1fK", float64(visits)/1000),
		"bounce_rate":    fmt.Sprintf("%.1f%%", float64(40+(seed%20))),
		"avg_duration":   fmt.Sprintf("%dm %ds", 2+(seed%3), (seed*4)%60),
		"device_split":   fmt.Sprintf("%d%% Mobile", 50+(seed%30)),
		"source":         "fallback",
	}
}

func fallbackMarketShare(domain string) map[string]interface{} {
	return map[string]interface{}{
		"domain":        domain,
		"traffic_share": 0.23,
		"top_channels": []map[string]interface{}{
			{"channel": "Paid Social", "share": 0.45},
			{"channel": "Organic Search", "share": 0.25},
			{"channel": "Affiliate", "share": 0.12},
		},
		"benchmark_ctr": 0.065,
		"benchmark_cpc": 0.38,
		"source":        "fallback",
	}
}

func formatDuration(seconds float64) string {
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%dm %ds", mins, secs)
}

func firstValue(data map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func numericValue(data map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := data[key].(float64); ok {
			return v, true
		}
	}
	return 0, false
}

func stringValue(data map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
