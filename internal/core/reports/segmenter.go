package reports

import "regexp"

// Segmenter splits report content into paragraphs. It is recomputed on every
// read and must be deterministic.
type Segmenter interface {
	Segment(content string) []string
}

// SegmenterFunc adapts a plain function to Segmenter.
type SegmenterFunc func(content string) []string

func (f SegmenterFunc) Segment(content string) []string { return f(content) }

var numberedMarker = regexp.MustCompile(`(?m)^\d+\.\s`)

// NumberedListSegmenter starts a paragraph at every line that begins with
// "N. " (any integer, a period, whitespace). Text ahead of the first marker is
// dropped. Content without markers is a single paragraph.
type NumberedListSegmenter struct{}

func (NumberedListSegmenter) Segment(content string) []string {
	locs := numberedMarker.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return []string{content}
	}

	out := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(content)
		if i+1 < len(locs) {
			// drop the line break (LF or CRLF) ahead of the next marker
			end = locs[i+1][0] - 1
			if end > loc[0] && content[end-1] == '\r' {
				end--
			}
		}
		out = append(out, content[loc[0]:end])
	}
	return out
}
