package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/blog-comb/app/cfg"
)

// Generator renders a derived feed as RSS 2.0.
type Generator struct {
	excerptor *Excerptor
}

func NewGenerator(excerptor *Excerptor) *Generator {
	return &Generator{excerptor: excerptor}
}

func (g *Generator) Run(view View, posts []ResolvedPost) (string, error) {
	var buf bytes.Buffer

	baseURL := g.baseURL()

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(view.Title, view.Name), 4)
	g.writeElement(&buf, "link", baseURL+"/posts", 4)
	description := view.Description
	if description == "" {
		description = fmt.Sprintf("Posts from the %s view", view.Name)
	}
	g.writeElement(&buf, "description", description, 4)

	selfLink := fmt.Sprintf("%s/feeds/%s", baseURL, view.Name)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	for _, p := range posts {
		if t, ok := ParseTimestamp(p.CreatedAt); ok {
			lastBuildDate = t
			break
		}
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Blog-Comb/%s", cfg.Get().Version), 4)

	for _, post := range posts {
		g.writePost(&buf, baseURL, post)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writePost(buf *bytes.Buffer, baseURL string, post ResolvedPost) {
	buf.WriteString("    <item>\n")

	link := fmt.Sprintf("%s/posts/%s", baseURL, post.ID)

	buf.WriteString("      <guid isPermaLink=\"true\">")
	xml.EscapeText(buf, []byte(link))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", post.Title, 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "description", g.excerptor.Summary(post.Post), 6)

	if post.Content != "" && post.Content != post.Description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(post.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if t, ok := ParseTimestamp(post.CreatedAt); ok {
		g.writeElement(buf, "pubDate", t.Format(time.RFC1123Z), 6)
	}

	if post.EffectiveAuthor != nil {
		g.writeElement(buf, "author", post.EffectiveAuthor.Name, 6)
	}

	for _, category := range post.EffectiveCategories {
		g.writeElement(buf, "category", category.Name, 6)
	}

	if image := post.DisplayImage(); image != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(image), imageType(image)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) baseURL() string {
	c := cfg.Get()
	if c.BaseUrl != "" {
		return strings.TrimRight(c.BaseUrl, "/")
	}
	return fmt.Sprintf("http://localhost:%s", c.Port)
}

func imageType(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
