package tool

import (
	"context"
	"strings"
	"testing"
)

func TestFilterAlertsUrgencyIsAFloor(t *testing.T) {
	alerts := []AlertRecord{
		{Type: "stock_alerts", Priority: "low", Title: "a"},
		{Type: "stock_alerts", Priority: "medium", Title: "b"},
		{Type: "stock_alerts", Priority: "high", Title: "c"},
		{Type: "stock_alerts", Priority: "critical", Title: "d"},
	}

	tests := []struct {
		urgency string
		want    int
	}{
		{"low", 4},
		{"medium", 3},
		{"high", 2},
		{"critical", 1},
		{"", 4}, // unset means no floor
	}
	for _, tt := range tests {
		got := FilterAlerts(alerts, "all", tt.urgency, nil)
		if len(got) != tt.want {
			t.Errorf("urgency %q: got %d alerts, want %d", tt.urgency, len(got), tt.want)
		}
	}
}

func TestFilterAlertsProductSubstring(t *testing.T) {
	alerts := []AlertRecord{
		{Type: "stock_alerts", Priority: "high", Title: "lamp", Products: []string{"LED Desk Lamp with USB Charging Port"}},
		{Type: "stock_alerts", Priority: "high", Title: "earbuds", Products: []string{"Wireless Bluetooth Earbuds Pro"}},
		{Type: "performance_alerts", Priority: "high", Title: "general"},
	}

	got := FilterAlerts(alerts, "all", "low", []string{"desk lamp"})
	if len(got) != 2 {
		t.Fatalf("got %d alerts, want 2", len(got))
	}
	// case-insensitive substring hit plus the product-less alert passing through
	titles := []string{got[0].Title, got[1].Title}
	for _, want := range []string{"lamp", "general"} {
		found := false
		for _, title := range titles {
			if title == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected alert %q in results, got %v", want, titles)
		}
	}
}

func TestFilterAlertsTypeSelection(t *testing.T) {
	alerts := []AlertRecord{
		{Type: "stock_alerts", Priority: "low"},
		{Type: "price_alerts", Priority: "low"},
		{Type: "performance_alerts", Priority: "low"},
	}
	tests := []struct {
		alertType string
		want      int
	}{
		{"stock_alerts", 1},
		{"price_alerts", 1},
		{"performance_alerts", 1},
		{"all", 3},
		{"", 3},
	}
	for _, tt := range tests {
		if got := FilterAlerts(alerts, tt.alertType, "low", nil); len(got) != tt.want {
			t.Errorf("alertType %q: got %d, want %d", tt.alertType, len(got), tt.want)
		}
	}
}

func TestCheckAlertsCriticalStock(t *testing.T) {
	fixtures, err := AlertFixtures()
	if err != nil {
		t.Fatal(err)
	}
	got := FilterAlerts(fixtures, "stock_alerts", "critical", nil)
	if len(got) != 1 {
		t.Fatalf("got %d alerts, want exactly 1", len(got))
	}
	a := got[0]
	if a.Type != "stock_alerts" || a.Priority != "critical" {
		t.Errorf("got %s/%s, want stock_alerts/critical", a.Type, a.Priority)
	}
	if !strings.Contains(a.Message, "LED Desk Lamp with USB Charging Port") {
		t.Errorf("message %q does not name the low-stock product", a.Message)
	}
}

func TestAlertsToolExecute(t *testing.T) {
	tool := NewAlertsTool()

	out, err := tool.Execute(context.Background(), map[string]any{
		"alertType": "stock_alerts",
		"urgency":   "critical",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "LED Desk Lamp") {
		t.Errorf("output missing critical stock alert: %q", out)
	}

	out, err = tool.Execute(context.Background(), map[string]any{
		"alertType": "price_alerts",
		"urgency":   "critical",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No alerts match") {
		t.Errorf("expected empty-result message, got %q", out)
	}
}
