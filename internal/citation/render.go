// Package citation maps inline [n] markers in generated answers to the
// citations resolved for them, producing segments a surface can display.
package citation

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Kind identifies a segment type.
type Kind int

const (
	// KindText is literal answer text.
	KindText Kind = iota

	// KindReference is an inline [n] marker.
	KindReference
)

// Segment is a piece of rendered answer text.
type Segment struct {
	Kind Kind

	// Text is the literal text, or the marker itself for references.
	Text string

	// Index is the marker number for references.
	Index int

	// Citation is the resolved citation, nil when the marker matched none.
	Citation *domain.Citation
}

// IsReference reports whether the segment is a citation marker.
func (s Segment) IsReference() bool {
	return s.Kind == KindReference
}

// Resolved reports whether the segment is a marker with citation metadata.
func (s Segment) Resolved() bool {
	return s.Kind == KindReference && s.Citation != nil
}

// Render splits answer into literal text and citation references.
// Concatenating the Text of every segment yields answer unchanged.
func Render(answer string, citations []domain.Citation) []Segment {
	index := domain.CitationIndex(citations)
	var segments []Segment

	pos := 0
	for _, m := range domain.FindMarkers(answer) {
		if m.Start > pos {
			segments = append(segments, Segment{Kind: KindText, Text: answer[pos:m.Start]})
		}
		segments = append(segments, Segment{
			Kind:     KindReference,
			Text:     answer[m.Start:m.End],
			Index:    m.Index,
			Citation: index[m.Index],
		})
		pos = m.End
	}
	if pos < len(answer) {
		segments = append(segments, Segment{Kind: KindText, Text: answer[pos:]})
	}
	return segments
}

// Join concatenates segment text.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Style formats references for display. Nil fields leave the text as is.
type Style struct {
	Text       func(string) string
	Resolved   func(Segment) string
	Unresolved func(Segment) string
}

// Format renders segments through the style.
func (st Style) Format(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		switch {
		case s.Resolved() && st.Resolved != nil:
			b.WriteString(st.Resolved(s))
		case s.IsReference() && !s.Resolved() && st.Unresolved != nil:
			b.WriteString(st.Unresolved(s))
		case s.Kind == KindText && st.Text != nil:
			b.WriteString(st.Text(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
