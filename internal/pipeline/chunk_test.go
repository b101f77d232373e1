package pipeline

import (
	"fmt"
	"strings"
	"testing"
)

// lineSheetText builds a synthetic normalized line sheet of roughly n
// characters with paragraph breaks and unique product markers.
func lineSheetText(n int) (string, []string) {
	var sb strings.Builder
	var markers []string
	i := 0
	for sb.Len() < n {
		marker := fmt.Sprintf("SKU-%05d", i)
		markers = append(markers, marker)
		fmt.Fprintf(&sb, "%s Silk Blouse Wholesale $120 RRP $290 Colors Ivory Black\n\n", marker)
		i++
	}
	return sb.String()[:n], markers
}

func TestSplitTextCoversAllContent(t *testing.T) {
	text, markers := lineSheetText(25000)
	chunks := SplitText(text, 10000, 1000)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}
		if len(c.Text) > 10000+1000 {
			t.Errorf("chunk %d len %d exceeds size+overlap", i, len(c.Text))
		}
	}

	joined := strings.Join([]string{chunks[0].Text, chunks[1].Text, chunks[2].Text}, "\n")
	for _, m := range markers[:len(markers)-1] {
		if !strings.Contains(joined, m) {
			t.Errorf("marker %s lost between chunks", m)
		}
	}
}

func TestSplitTextOverlapBound(t *testing.T) {
	text, _ := lineSheetText(25000)
	chunks := SplitText(text, 10000, 1000)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		// The head of each chunk must re-appear near the tail of the
		// previous one, and no further back than the overlap allows.
		head := chunks[i].Text[:80]
		pos := strings.LastIndex(prev, head)
		if pos < 0 {
			t.Errorf("chunk %d does not overlap chunk %d", i, i-1)
			continue
		}
		if overlap := len(prev) - pos; overlap > 1000+80 {
			t.Errorf("chunk %d overlaps %d chars, want <= overlap", i, overlap)
		}
	}
}

func TestSplitTextPrefersParagraphBreak(t *testing.T) {
	text := strings.Repeat("a", 95) + "\n\n" + strings.Repeat("b", 95) + "\nccc ddd " + strings.Repeat("e", 100)
	chunks := SplitText(text, 100, 20)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want >= 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, strings.Repeat("a", 95)) {
		t.Errorf("first chunk should cut at the paragraph break, got tail %q", chunks[0].Text[len(chunks[0].Text)-10:])
	}
}

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("just one product", 10000, 1000)
	if len(chunks) != 1 || chunks[0].Text != "just one product" {
		t.Fatalf("got %+v, want single chunk", chunks)
	}
}

func TestSplitTextEmpty(t *testing.T) {
	if chunks := SplitText("   ", 10000, 1000); len(chunks) != 0 {
		t.Fatalf("got %d chunks for blank input, want 0", len(chunks))
	}
}

func TestSplitTextNoBoundariesTerminates(t *testing.T) {
	text := strings.Repeat("x", 5000)
	chunks := SplitText(text, 1000, 400)

	if len(chunks) == 0 {
		t.Fatal("no chunks")
	}
	var total int
	for _, c := range chunks {
		total += len(c.Text)
	}
	if total < len(text) {
		t.Errorf("chunks cover %d chars of %d", total, len(text))
	}
}

func TestSplitSentencesPrefersSentenceEnd(t *testing.T) {
	first := "This is the opening sentence of the care instructions. "
	text := first + strings.Repeat("Machine wash cold with like colors. ", 30)
	chunks := SplitSentences(text, 500, 100)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want >= 2", len(chunks))
	}
	if !strings.HasSuffix(strings.TrimSpace(chunks[0].Text), ".") {
		t.Errorf("first chunk should end on a sentence boundary, got tail %q", chunks[0].Text[len(chunks[0].Text)-20:])
	}
}

func TestSplitSentencesCJK(t *testing.T) {
	text := strings.Repeat("这款真丝衬衫采用桑蚕丝面料。", 60)
	chunks := SplitSentences(text, 500, 100)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want >= 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "。") {
		t.Errorf("first chunk should end on a CJK stop, got tail %q", chunks[0].Text[len(chunks[0].Text)-12:])
	}
}
