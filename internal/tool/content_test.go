package tool

import (
	"context"
	"strings"
	"testing"
)

func TestRenderContentEmbedsLinkVerbatim(t *testing.T) {
	link := "https://promo.example.com/go/Ab3?c=summer-sale&p=blog"
	for _, contentType := range []string{"blog", "social", "email"} {
		for _, length := range []string{"short", "medium", "long"} {
			text := RenderContent(contentType, "LED Desk Lamp", link, length)
			if !strings.Contains(text, link) {
				t.Errorf("%s/%s output does not contain the affiliate link verbatim", contentType, length)
			}
			if !strings.Contains(text, "LED Desk Lamp") {
				t.Errorf("%s/%s output does not mention the product", contentType, length)
			}
		}
	}
}

func TestRenderContentLengthOrdering(t *testing.T) {
	short := RenderContent("blog", "Widget", "https://x/go/a", "short")
	long := RenderContent("blog", "Widget", "https://x/go/a", "long")
	if len(long) <= len(short) {
		t.Errorf("long draft (%d chars) not longer than short draft (%d chars)", len(long), len(short))
	}
}

func TestContentToolExecute(t *testing.T) {
	tool := NewContentTool()

	link := "https://promo.example.com/go/xyz123"
	out, err := tool.Execute(context.Background(), map[string]any{
		"contentType":   "blog",
		"product":       "Mechanical Keyboard",
		"affiliateLink": link,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, link) {
		t.Errorf("blog draft missing affiliate link: %q", out)
	}
}
