package tool

import (
	"context"
	"strings"
	"testing"
)

func TestBuildReportPlatformFilter(t *testing.T) {
	all := BuildReport("week", "", "")
	if len(all) != 4 {
		t.Fatalf("got %d platforms, want 4", len(all))
	}
	one := BuildReport("week", "blog", "")
	if len(one) != 1 || one[0].Platform != "blog" {
		t.Fatalf("platform filter failed: %+v", one)
	}
	if got := BuildReport("week", "tiktok", ""); len(got) != 0 {
		t.Errorf("unknown platform should yield no rows, got %+v", got)
	}
}

func TestBuildReportPeriodScaling(t *testing.T) {
	day := BuildReport("today", "blog", "")[0]
	month := BuildReport("month", "blog", "")[0]
	if month.Clicks <= day.Clicks {
		t.Errorf("month clicks %d not greater than day clicks %d", month.Clicks, day.Clicks)
	}
	if month.Earnings <= day.Earnings {
		t.Errorf("month earnings %.2f not greater than day earnings %.2f", month.Earnings, day.Earnings)
	}
}

func TestBuildReportProductScope(t *testing.T) {
	full := BuildReport("week", "blog", "")[0]
	scoped := BuildReport("week", "blog", "Wireless Earbuds Pro")[0]
	// Product share tops out at 40%, jitter at 10%; a scoped row can never
	// reach the unscoped numbers.
	if scoped.Clicks >= full.Clicks {
		t.Errorf("scoped clicks %d not below full clicks %d", scoped.Clicks, full.Clicks)
	}
	again := productShare("Wireless Earbuds Pro")
	if got := productShare("wireless earbuds pro"); got != again {
		t.Errorf("productShare not case-stable: %v vs %v", got, again)
	}
	if again < 0.10 || again > 0.40 {
		t.Errorf("productShare %v outside [0.10, 0.40]", again)
	}
}

func TestPlatformMetricsCTR(t *testing.T) {
	m := PlatformMetrics{Clicks: 200, Conversions: 10}
	if got := m.CTR(); got != 5.0 {
		t.Errorf("CTR = %.2f, want 5.00", got)
	}
	zero := PlatformMetrics{}
	if got := zero.CTR(); got != 0 {
		t.Errorf("CTR with no clicks = %.2f, want 0", got)
	}
}

func TestAnalyticsToolExecute(t *testing.T) {
	tool := NewAnalyticsTool()

	out, err := tool.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "last week") {
		t.Errorf("default period should be week: %q", out)
	}
	if !strings.Contains(out, "Total:") {
		t.Errorf("multi-platform report should carry a total line: %q", out)
	}

	out, err = tool.Execute(context.Background(), map[string]any{"platform": "youtube", "period": "today"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "Total:") {
		t.Errorf("single-platform report should not carry a total line: %q", out)
	}

	out, err = tool.Execute(context.Background(), map[string]any{"product": "Laptop Stand"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Performance of Laptop Stand") {
		t.Errorf("product-scoped report should name the product: %q", out)
	}
}
