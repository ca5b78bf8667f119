package feed

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const NoDescription = "No description available"

type Excerptor struct {
	maxLength int
}

func NewExcerptor(maxLength int) *Excerptor {
	if maxLength <= 0 {
		maxLength = 280
	}
	return &Excerptor{maxLength: maxLength}
}

// Summary picks what a post card shows under the title: the description,
// else an excerpt of the body, else NoDescription.
func (e *Excerptor) Summary(p Post) string {
	if strings.TrimSpace(p.Description) != "" {
		return p.Description
	}

	if strings.TrimSpace(p.Content) == "" {
		return NoDescription
	}

	excerpt, err := e.Run(p.Content)
	if err != nil {
		slog.Debug("Excerpt extraction failed", "post", p.ID, "error", err)
		return NoDescription
	}

	return excerpt
}

// Run turns post content, plain or HTML, into a short plain-text excerpt.
func (e *Excerptor) Run(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("content is empty")
	}

	text := content
	if strings.Contains(content, "<") {
		extracted, err := extractText(content)
		if err != nil {
			return "", err
		}
		text = extracted
	}

	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", fmt.Errorf("no text extracted from content")
	}

	return e.truncate(text), nil
}

// extractText pulls readable text out of HTML content. Fragments too small
// for readability to score fall back to the plain text of the document.
func extractText(content string) (string, error) {
	article, err := readability.FromReader(strings.NewReader(content), nil)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent, nil
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(content))
	if docErr != nil {
		if err != nil {
			return "", fmt.Errorf("failed to extract content: %w", err)
		}
		return "", fmt.Errorf("failed to parse content: %w", docErr)
	}
	return doc.Text(), nil
}

func (e *Excerptor) truncate(text string) string {
	if utf8.RuneCountInString(text) <= e.maxLength {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:e.maxLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
