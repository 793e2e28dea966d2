package citation

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Block kinds returned by RenderMarkdown.
const (
	BlockParagraph = "paragraph"
	BlockHeading   = "heading"
	BlockListItem  = "list_item"
	BlockCode      = "code"
	BlockQuote     = "quote"
)

// Block is a rendered markdown block.
type Block struct {
	Kind string

	// Level is the heading level, or the list nesting depth for list items.
	Level int

	Segments []Segment
}

var markdown = goldmark.New()

// RenderMarkdown parses answer as markdown and renders the text of each
// block. Markers nested in emphasis, headings and list items are resolved
// the same way as in Render. Code blocks and code spans are kept literal.
func RenderMarkdown(answer string, citations []domain.Citation) []Block {
	src := []byte(answer)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var blocks []Block
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			blocks = append(blocks, Block{
				Kind:     BlockCode,
				Segments: []Segment{{Kind: KindText, Text: blockLines(node, src)}},
			})
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			blocks = append(blocks, Block{
				Kind:     BlockHeading,
				Level:    node.Level,
				Segments: inlineSegments(node, src, citations),
			})
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			blocks = append(blocks, Block{
				Kind:     containerKind(node),
				Level:    listDepth(node),
				Segments: inlineSegments(node, src, citations),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

// inlineSegments flattens the inline children of a block and resolves
// their markers. Code spans stay literal.
func inlineSegments(n ast.Node, src []byte, citations []domain.Citation) []Segment {
	var segments []Segment
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			for _, seg := range Render(b.String(), citations) {
				segments = appendSegment(segments, seg)
			}
			b.Reset()
		}
	}

	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				b.Write(node.Segment.Value(src))
				switch {
				case node.HardLineBreak():
					b.WriteByte('\n')
				case node.SoftLineBreak():
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(node.Value)
			case *ast.AutoLink:
				b.Write(node.URL(src))
			case *ast.CodeSpan:
				flush()
				segments = appendSegment(segments, Segment{Kind: KindText, Text: codeSpanText(node, src)})
			default:
				walk(c)
			}
		}
	}
	walk(n)
	flush()
	return segments
}

func codeSpanText(n *ast.CodeSpan, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(src))
		case *ast.String:
			b.Write(node.Value)
		}
	}
	return b.String()
}

// appendSegment merges neighbouring text segments.
func appendSegment(segments []Segment, seg Segment) []Segment {
	if seg.Kind == KindText {
		if seg.Text == "" {
			return segments
		}
		if last := len(segments) - 1; last >= 0 && segments[last].Kind == KindText {
			segments[last].Text += seg.Text
			return segments
		}
	}
	return append(segments, seg)
}

func blockLines(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

// containerKind reports the block kind of a text node from its ancestry.
func containerKind(n ast.Node) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.(type) {
		case *ast.ListItem:
			return BlockListItem
		case *ast.Blockquote:
			return BlockQuote
		}
	}
	return BlockParagraph
}

func listDepth(n ast.Node) int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*ast.List); ok {
			depth++
		}
	}
	return depth
}

// PlainText joins rendered blocks with blank lines.
func PlainText(blocks []Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = Join(b.Segments)
	}
	return strings.Join(parts, "\n\n")
}
