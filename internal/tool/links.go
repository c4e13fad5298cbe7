package tool

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const linkBaseURL = "https://promo.example.com/go/"

// LinkTool creates tracked affiliate link records.
type LinkTool struct{}

func NewLinkTool() *LinkTool {
	return &LinkTool{}
}

func (t *LinkTool) Name() string { return "create_affiliate_link" }
func (t *LinkTool) Description() string {
	return "Create a tracked affiliate link for a product, optionally tagged with a campaign and target platform."
}
func (t *LinkTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"product":  {Type: "string", Description: "Product the link points to"},
			"campaign": {Type: "string", Description: "Campaign tag, e.g. summer-sale"},
			"platform": {Type: "string", Description: "Where the link is published", Enum: []string{"blog", "instagram", "youtube", "newsletter"}},
		},
		[]string{"product"},
	)
}

func (t *LinkTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	product := ArgsString(args, "product")
	campaign := ArgsString(args, "campaign")
	platform := ArgsString(args, "platform")

	rec := NewLinkRecord(product, campaign, platform)

	lines := []string{
		"Affiliate link created:",
		"URL: " + rec.URL,
		"Short code: " + rec.ShortCode,
		"Product: " + rec.Product,
	}
	if rec.Campaign != "" {
		lines = append(lines, "Campaign: "+rec.Campaign)
	}
	if rec.Platform != "" {
		lines = append(lines, "Platform: "+rec.Platform)
	}
	lines = append(lines, "Created: "+rec.CreatedAt.Format(time.RFC3339))
	return strings.Join(lines, "\n"), nil
}

// LinkRecord is the flat record one create_affiliate_link call produces.
type LinkRecord struct {
	ShortCode string
	URL       string
	Product   string
	Campaign  string
	Platform  string
	CreatedAt time.Time
}

// NewLinkRecord mints a link record with a uuid-derived short code.
func NewLinkRecord(product, campaign, platform string) LinkRecord {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	url := linkBaseURL + code
	if campaign != "" {
		url += "?c=" + sanitizeTag(campaign)
		if platform != "" {
			url += "&p=" + sanitizeTag(platform)
		}
	} else if platform != "" {
		url += "?p=" + sanitizeTag(platform)
	}
	return LinkRecord{
		ShortCode: code,
		URL:       url,
		Product:   product,
		Campaign:  campaign,
		Platform:  platform,
		CreatedAt: time.Now().UTC(),
	}
}

// sanitizeTag keeps query values URL-safe without pulling in net/url encoding
// for what is a slug by convention.
func sanitizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}
