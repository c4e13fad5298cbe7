package tool

import (
	"context"
	"fmt"
)

// ContentTool generates promotional content pieces from fixed templates.
type ContentTool struct{}

func NewContentTool() *ContentTool {
	return &ContentTool{}
}

func (t *ContentTool) Name() string { return "generate_content" }
func (t *ContentTool) Description() string {
	return "Generate a promotional content piece (blog post, social caption, or email) for a product. The affiliate link is embedded verbatim in the text."
}
func (t *ContentTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"contentType":   {Type: "string", Description: "Kind of content to produce", Enum: []string{"blog", "social", "email"}},
			"product":       {Type: "string", Description: "Product name the content promotes"},
			"affiliateLink": {Type: "string", Description: "Affiliate link to embed in the content"},
			"contentLength": {Type: "string", Description: "Target length (default medium)", Enum: []string{"short", "medium", "long"}},
		},
		[]string{"contentType", "product", "affiliateLink"},
	)
}

func (t *ContentTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	contentType := ArgsString(args, "contentType")
	product := ArgsString(args, "product")
	link := ArgsString(args, "affiliateLink")
	length := ArgsString(args, "contentLength")
	if length == "" {
		length = "medium"
	}

	text := RenderContent(contentType, product, link, length)
	return fmt.Sprintf("[%s / %s]\n%s", contentType, length, text), nil
}

// RenderContent assembles one content piece of the given type and length.
// The affiliate link always appears verbatim in the returned text.
func RenderContent(contentType, product, link, length string) string {
	switch contentType {
	case "blog":
		return renderBlog(product, link, length)
	case "social":
		return renderSocial(product, link, length)
	case "email":
		return renderEmail(product, link, length)
	default:
		// Registry validation keeps this unreachable for agent calls; direct
		// callers get the social fallback.
		return renderSocial(product, link, length)
	}
}

func renderBlog(product, link, length string) string {
	intro := fmt.Sprintf("# Why the %s Deserves a Spot on Your List\n\nI've spent the past week testing the %s, and it's earned a permanent place in my setup.", product, product)
	body := "\n\nThe build quality stands out immediately, and day-to-day it simply does what it promises. For the price, it's hard to find a better value in its category."
	verdict := fmt.Sprintf("\n\n**Verdict:** if you've been on the fence, this is the one to get. Check the current price here: %s", link)

	switch length {
	case "short":
		return intro + verdict
	case "long":
		deepDive := fmt.Sprintf("\n\n## Living With It\n\nAfter seven days the honeymoon hasn't worn off. Small touches you don't notice in spec sheets make the %s pleasant to use every single day.\n\n## Who It's For\n\nAnyone who values the category's essentials done right, without paying flagship prices.", product)
		return intro + body + deepDive + verdict
	default:
		return intro + body + verdict
	}
}

func renderSocial(product, link, length string) string {
	short := fmt.Sprintf("Obsessed with my new %s 😍 Grab yours: %s #affiliate", product, link)
	if length == "short" {
		return short
	}
	extra := fmt.Sprintf("\n\nBeen using the %s for a week now and it's the real deal. Link in caption — small commission if you buy, no extra cost to you. 🙌", product)
	return short + extra
}

func renderEmail(product, link, length string) string {
	subject := fmt.Sprintf("Subject: The %s I can't stop recommending\n\n", product)
	opening := fmt.Sprintf("Hi there,\n\nQuick note about the %s — it's the product readers ask me about most this month.", product)
	cta := fmt.Sprintf("\n\nSee today's price: %s\n\nTalk soon,\nYour affiliate desk", link)

	switch length {
	case "short":
		return subject + opening + cta
	case "long":
		detail := "\n\nThree reasons it keeps coming up:\n1. It solves a daily annoyance most products in the category ignore.\n2. The price-to-quality ratio is unusually good right now.\n3. Readers who bought it keep writing back happy."
		return subject + opening + detail + cta
	default:
		detail := "\n\nIt solves a daily annoyance most products in the category ignore, and the price-to-quality ratio is unusually good right now."
		return subject + opening + detail + cta
	}
}
