package pipeline

import (
	"regexp"
	"strings"
)

const (
	DefaultChunkSize    = 10000
	DefaultChunkOverlap = 1000

	SentenceChunkSize    = 500
	SentenceChunkOverlap = 100
)

// Chunk is one window of a larger text, ordered by Index.
type Chunk struct {
	Index int
	Text  string
}

// SplitText walks the text left to right emitting chunks of roughly size
// characters. The cut point prefers, in order, a paragraph break, a line
// break, then a space within overlap characters of the ideal end; when no
// boundary is found it cuts hard. Consecutive chunks overlap by up to
// overlap characters so entities straddling a cut appear whole in one of
// the two chunks.
func SplitText(text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	var chunks []Chunk
	start := 0
	prevEnd := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			end = findBreak(text, end, overlap)
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: piece})
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		// Always advance past the previous chunk's end, otherwise a short
		// tail smaller than the overlap loops forever.
		if next <= prevEnd {
			next = end
		}
		prevEnd = end
		start = next
	}
	return chunks
}

// findBreak searches ±overlap around the ideal cut for the best natural
// boundary, preferring a paragraph break over a line break over a space.
func findBreak(text string, ideal, overlap int) int {
	lo := ideal - overlap
	if lo < 0 {
		lo = 0
	}
	hi := ideal + overlap
	if hi > len(text) {
		hi = len(text)
	}
	window := text[lo:hi]

	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return lo + i + len(sep)
		}
	}
	return ideal
}

// sentenceEnders, per script family. Latin covers the western European
// languages seen in line sheets; CJK full-width stops are matched
// separately since they carry no trailing space.
var (
	latinSentenceRe = regexp.MustCompile(`[.!?]["')\]]?\s`)
	cjkSentenceRe   = regexp.MustCompile(`[。！？]`)
)

// SplitSentences is the small-scale variant of SplitText used for
// embedding-sized pieces: same boundary-within-tolerance policy, but the
// preferred boundary is a sentence end rather than a paragraph break.
func SplitSentences(text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = SentenceChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = SentenceChunkOverlap
	}

	var chunks []Chunk
	start := 0
	prevEnd := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			end = findSentenceBreak(text, end, overlap)
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: piece})
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next <= prevEnd {
			next = end
		}
		prevEnd = end
		start = next
	}
	return chunks
}

func findSentenceBreak(text string, ideal, overlap int) int {
	lo := ideal - overlap
	if lo < 0 {
		lo = 0
	}
	hi := ideal + overlap
	if hi > len(text) {
		hi = len(text)
	}
	window := text[lo:hi]

	for _, re := range []*regexp.Regexp{latinSentenceRe, cjkSentenceRe} {
		if locs := re.FindAllStringIndex(window, -1); len(locs) > 0 {
			last := locs[len(locs)-1]
			return lo + last[1]
		}
	}
	for _, sep := range []string{"\n", " "} {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return lo + i + len(sep)
		}
	}
	return ideal
}
