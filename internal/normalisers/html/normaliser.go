package html

import (
	"bytes"
	"context"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips markup and returns the readable text. The <title>
// element, when present, becomes the title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	title, content := extract(plaintext.Decode(raw.Content))
	return &driven.NormaliseResult{
		Title:   title,
		Content: content,
	}, nil
}

// Elements whose text is never shown.
var invisible = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true, "svg": true, "template": true,
}

// Elements that start a new line.
var block = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "section": true, "article": true,
	"header": true, "footer": true, "ul": true, "ol": true,
}

func extractTitle(content string) string {
	title, _ := extract(content)
	return title
}

func stripHTML(content string) string {
	_, text := extract(content)
	return text
}

// extract tokenizes content once, collecting the <title> text and the
// visible body text with one line per block element.
func extract(content string) (title, text string) {
	z := xhtml.NewTokenizer(strings.NewReader(content))

	var (
		body    bytes.Buffer
		heading bytes.Buffer
		hidden  int
		inTitle bool
	)

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			// io.EOF, or truncated markup: keep what was read.
			return tidyLine(heading.String()), tidy(body.String())

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "title":
				inTitle = tt == xhtml.StartTagToken
			case invisible[tag] && tt == xhtml.StartTagToken:
				hidden++
			case block[tag] && hidden == 0:
				body.WriteByte('\n')
			}

		case xhtml.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "title":
				inTitle = false
			case invisible[tag]:
				if hidden > 0 {
					hidden--
				}
			case block[tag] && hidden == 0:
				body.WriteByte('\n')
			}

		case xhtml.TextToken:
			switch {
			case inTitle:
				heading.Write(z.Text())
			case hidden == 0:
				body.Write(z.Text())
			}
		}
	}
}

// tidy collapses whitespace within lines and drops blank lines.
func tidy(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = tidyLine(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func tidyLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
