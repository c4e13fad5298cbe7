package tool

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ProductSearchTool discovers affiliate products from the canned catalog.
type ProductSearchTool struct{}

func NewProductSearchTool() *ProductSearchTool {
	return &ProductSearchTool{}
}

func (t *ProductSearchTool) Name() string { return "product_search" }
func (t *ProductSearchTool) Description() string {
	return "Search the affiliate product catalog. Filter by category or a product name keyword; returns price, commission rate, rating, and merchant for each match."
}
func (t *ProductSearchTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"query":      {Type: "string", Description: "Keyword matched against product names (case-insensitive)"},
			"category":   {Type: "string", Description: "Product category, e.g. electronics, home-office, fitness, kitchen"},
			"maxResults": {Type: "number", Description: "Maximum number of products to return (default 5)"},
		},
		nil,
	)
}

func (t *ProductSearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	catalog, err := ProductCatalog()
	if err != nil {
		return "", err
	}

	query := ArgsString(args, "query")
	category := ArgsString(args, "category")
	maxResults := ArgsInt(args, "maxResults", 5)
	if maxResults <= 0 {
		maxResults = 5
	}

	matches := FilterProducts(catalog, query, category)
	if len(matches) == 0 {
		return fmt.Sprintf("No products found for query=%q category=%q.", query, category), nil
	}
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	lines := []string{fmt.Sprintf("Found %d product(s):", len(matches))}
	for i, p := range matches {
		// Trending score is synthetic variance, not a catalog field.
		trending := 50 + rand.IntN(50)
		lines = append(lines, fmt.Sprintf(
			"%d. %s — $%.2f | %.1f%% commission | rating %.1f | %s | category: %s | trending: %d/100",
			i+1, p.Name, p.Price, p.CommissionRate, p.Rating, p.Merchant, p.Category, trending,
		))
	}
	return strings.Join(lines, "\n"), nil
}

// FilterProducts keeps catalog entries whose name contains query and whose
// category equals category, both case-insensitive; empty filters match all.
func FilterProducts(catalog []ProductRecord, query, category string) []ProductRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.ToLower(strings.TrimSpace(category))

	var out []ProductRecord
	for _, p := range catalog {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		out = append(out, p)
	}
	return out
}
