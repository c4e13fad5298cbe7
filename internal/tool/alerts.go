package tool

import (
	"context"
	"fmt"
	"strings"
)

// AlertsTool surfaces stock, price and performance alerts from the canned
// alert fixtures, filtered by type, urgency and product.
type AlertsTool struct{}

func NewAlertsTool() *AlertsTool {
	return &AlertsTool{}
}

func (t *AlertsTool) Name() string { return "check_alerts" }
func (t *AlertsTool) Description() string {
	return "Check current stock, price and performance alerts. Urgency is a floor: alerts at or above it are returned."
}
func (t *AlertsTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"alertType": {Type: "string", Description: "Category of alerts to check", Enum: []string{"stock_alerts", "price_alerts", "performance_alerts", "all"}},
			"urgency":   {Type: "string", Description: "Minimum priority to include", Enum: []string{"low", "medium", "high", "critical"}},
			"products":  {Type: "array", Description: "Only alerts mentioning these products"},
		},
		nil,
	)
}

var priorityRank = map[string]int{
	"low":      0,
	"medium":   1,
	"high":     2,
	"critical": 3,
}

// "all" or an empty alertType selects every type.
func alertTypeMatches(alertType, recordType string) bool {
	if alertType == "" || alertType == "all" {
		return true
	}
	return alertType == recordType
}

// FilterAlerts applies the three alert filters in order. Urgency is a
// minimum rank, not an exact match. Product matching is a case-insensitive
// substring test against the alert's product list; alerts that name no
// products pass the product filter.
func FilterAlerts(alerts []AlertRecord, alertType, urgency string, products []string) []AlertRecord {
	minRank := priorityRank[urgency]
	var out []AlertRecord
	for _, a := range alerts {
		if !alertTypeMatches(alertType, a.Type) {
			continue
		}
		if priorityRank[a.Priority] < minRank {
			continue
		}
		if !alertMentionsAny(a, products) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func alertMentionsAny(a AlertRecord, products []string) bool {
	if len(products) == 0 || len(a.Products) == 0 {
		return true
	}
	for _, want := range products {
		w := strings.ToLower(want)
		for _, have := range a.Products {
			if strings.Contains(strings.ToLower(have), w) {
				return true
			}
		}
	}
	return false
}

func (t *AlertsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	alertType := ArgsString(args, "alertType")
	urgency := ArgsString(args, "urgency")
	products := ArgsStringSlice(args, "products")

	fixtures, err := AlertFixtures()
	if err != nil {
		return "", err
	}

	matched := FilterAlerts(fixtures, alertType, urgency, products)
	if len(matched) == 0 {
		return "No alerts match the given filters.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d alert(s):\n", len(matched))
	for _, a := range matched {
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n", a.Type, a.Priority, a.Title, a.Message)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
