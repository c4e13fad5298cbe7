package tool

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
)

// AnalyticsTool reports canned performance numbers per platform.
type AnalyticsTool struct{}

func NewAnalyticsTool() *AnalyticsTool {
	return &AnalyticsTool{}
}

func (t *AnalyticsTool) Name() string { return "get_analytics" }
func (t *AnalyticsTool) Description() string {
	return "Get click, conversion and earnings metrics for the selected period, optionally scoped to one platform."
}
func (t *AnalyticsTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"period":   {Type: "string", Description: "Reporting window", Enum: []string{"today", "week", "month"}},
			"platform": {Type: "string", Description: "Limit results to one platform", Enum: []string{"blog", "instagram", "youtube", "newsletter"}},
			"product":  {Type: "string", Description: "Limit results to links for one product"},
		},
		nil,
	)
}

// PlatformMetrics is one platform row in an analytics report.
type PlatformMetrics struct {
	Platform    string
	Clicks      int
	Conversions int
	Earnings    float64
}

// CTR returns conversions per click as a percentage.
func (m PlatformMetrics) CTR() float64 {
	if m.Clicks == 0 {
		return 0
	}
	return float64(m.Conversions) / float64(m.Clicks) * 100
}

// baseline numbers for one week; other periods scale from these.
var analyticsBaseline = []PlatformMetrics{
	{Platform: "blog", Clicks: 1240, Conversions: 52, Earnings: 386.40},
	{Platform: "instagram", Clicks: 3180, Conversions: 74, Earnings: 512.75},
	{Platform: "youtube", Clicks: 890, Conversions: 41, Earnings: 294.10},
	{Platform: "newsletter", Clicks: 460, Conversions: 28, Earnings: 201.60},
}

// BuildReport scales the canned baseline to the requested period and filters
// by platform. An empty platform means all platforms; an unknown period
// falls back to "week". A non-empty product scopes every row to that
// product's share of the traffic.
func BuildReport(period, platform, product string) []PlatformMetrics {
	var scale float64
	switch period {
	case "today":
		scale = 1.0 / 7.0
	case "month":
		scale = 30.0 / 7.0
	default:
		scale = 1
	}
	if product != "" {
		scale *= productShare(product)
	}
	out := make([]PlatformMetrics, 0, len(analyticsBaseline))
	for _, m := range analyticsBaseline {
		if platform != "" && !strings.EqualFold(platform, m.Platform) {
			continue
		}
		jitter := 0.9 + rand.Float64()*0.2
		out = append(out, PlatformMetrics{
			Platform:    m.Platform,
			Clicks:      int(float64(m.Clicks) * scale * jitter),
			Conversions: int(float64(m.Conversions) * scale * jitter),
			Earnings:    m.Earnings * scale * jitter,
		})
	}
	return out
}

// productShare derives a stable per-product slice of overall traffic, between
// 10% and 40%. Canned data has no per-product ledger; the share only has to
// be deterministic for the same name.
func productShare(product string) float64 {
	var h uint32 = 2166136261
	for _, c := range strings.ToLower(product) {
		h ^= uint32(c)
		h *= 16777619
	}
	return 0.10 + float64(h%31)/100
}

func (t *AnalyticsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	period := ArgsString(args, "period")
	if period == "" {
		period = "week"
	}
	platform := ArgsString(args, "platform")
	product := ArgsString(args, "product")

	rows := BuildReport(period, platform, product)
	if len(rows) == 0 {
		return fmt.Sprintf("No analytics data for platform %q over the last %s.", platform, period), nil
	}

	var b strings.Builder
	if product != "" {
		fmt.Fprintf(&b, "Performance of %s for the last %s:\n", product, period)
	} else {
		fmt.Fprintf(&b, "Performance for the last %s:\n", period)
	}
	var totalClicks, totalConv int
	var totalEarn float64
	for _, m := range rows {
		fmt.Fprintf(&b, "- %s: %d clicks, %d conversions (%.1f%% CTR), $%.2f earned\n",
			m.Platform, m.Clicks, m.Conversions, m.CTR(), m.Earnings)
		totalClicks += m.Clicks
		totalConv += m.Conversions
		totalEarn += m.Earnings
	}
	if len(rows) > 1 {
		fmt.Fprintf(&b, "Total: %d clicks, %d conversions, $%.2f earned", totalClicks, totalConv, totalEarn)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
