package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SnippetLength is the number of characters kept in a citation snippet.
const SnippetLength = 150

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Marker is an inline [n] token located in generated text.
// Start and End are byte offsets into the text.
type Marker struct {
	Start int
	End   int

	// Index is the parsed number, or 0 when it does not fit an int.
	Index int
}

// FindMarkers returns every [digits] marker in text, in order of appearance.
func FindMarkers(text string) []Marker {
	locs := markerPattern.FindAllStringSubmatchIndex(text, -1)
	markers := make([]Marker, 0, len(locs))
	for _, loc := range locs {
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			n = 0
		}
		markers = append(markers, Marker{Start: loc[0], End: loc[1], Index: n})
	}
	return markers
}

// IsNoAnswer reports whether text contains any of the no-answer phrases,
// compared case-insensitively.
func IsNoAnswer(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range phrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Snippet truncates content to SnippetLength characters, appending an
// ellipsis when anything was cut.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLength {
		return content
	}
	return string(runes[:SnippetLength]) + "..."
}

// ExtractCitations resolves the inline markers in answer against the
// ranked candidates. Markers outside 1..len(candidates) are ignored and
// stay literal in the text. The result is ascending by index with one
// entry per distinct marker, and is empty when the answer is a
// no-answer response.
func ExtractCitations(answer string, candidates []RerankedCandidate, noAnswerPhrases []string) []Citation {
	citations := []Citation{}
	if IsNoAnswer(answer, noAnswerPhrases) {
		return citations
	}

	seen := make(map[int]bool)
	for _, m := range FindMarkers(answer) {
		if m.Index < 1 || m.Index > len(candidates) || seen[m.Index] {
			continue
		}
		seen[m.Index] = true

		chunk := candidates[m.Index-1].Chunk
		citations = append(citations, Citation{
			Index:          m.Index,
			Source:         chunk.Source,
			Title:          chunk.Title,
			ContentSnippet: Snippet(chunk.Content),
		})
	}

	sort.Slice(citations, func(i, j int) bool {
		return citations[i].Index < citations[j].Index
	})
	return citations
}

// CitationIndex maps citation indices for lookup during rendering.
func CitationIndex(citations []Citation) map[int]*Citation {
	idx := make(map[int]*Citation, len(citations))
	for i := range citations {
		idx[citations[i].Index] = &citations[i]
	}
	return idx
}
