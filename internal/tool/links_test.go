package tool

import (
	"context"
	"strings"
	"testing"
)

func TestNewLinkRecord(t *testing.T) {
	rec := NewLinkRecord("LED Desk Lamp", "Summer Sale", "Instagram")

	if len(rec.ShortCode) != 10 {
		t.Errorf("short code %q: want 10 chars", rec.ShortCode)
	}
	if !strings.HasPrefix(rec.URL, linkBaseURL) {
		t.Errorf("url %q missing base %q", rec.URL, linkBaseURL)
	}
	if !strings.Contains(rec.URL, "c=summer-sale") {
		t.Errorf("url %q missing campaign tag", rec.URL)
	}
	if !strings.Contains(rec.URL, "p=instagram") {
		t.Errorf("url %q missing platform tag", rec.URL)
	}
}

func TestNewLinkRecordCodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		rec := NewLinkRecord("x", "", "")
		if seen[rec.ShortCode] {
			t.Fatalf("duplicate short code %q", rec.ShortCode)
		}
		seen[rec.ShortCode] = true
		if strings.Contains(rec.URL, "?") {
			t.Errorf("bare link %q should carry no query string", rec.URL)
		}
	}
}

func TestSanitizeTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Summer Sale", "summer-sale"},
		{"q4_push", "q4_push"},
		{"  weird!! chars  ", "weird-chars"},
	}
	for _, tt := range tests {
		if got := sanitizeTag(tt.in); got != tt.want {
			t.Errorf("sanitizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinkToolExecute(t *testing.T) {
	tool := NewLinkTool()
	out, err := tool.Execute(context.Background(), map[string]any{
		"product":  "Wireless Earbuds Pro",
		"campaign": "launch",
		"platform": "youtube",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{linkBaseURL, "Wireless Earbuds Pro", "launch", "youtube"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
