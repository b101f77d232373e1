package pipeline

// Phases of a document extraction run, in the order a polling client
// observes them.
type Phase string

const (
	PhaseExtractingImages        Phase = "extracting_images"
	PhaseExtractingTextPositions Phase = "extracting_text_positions"
	PhaseFilteringImages         Phase = "filtering_images"
	PhaseGeneratingCategories    Phase = "generating_categories"
	PhaseExtractingProducts      Phase = "extracting_products"
	PhaseMatchingImages          Phase = "matching_images"
)

var phaseNumbers = map[Phase]int{
	PhaseExtractingImages:        1,
	PhaseExtractingTextPositions: 2,
	PhaseFilteringImages:         3,
	PhaseGeneratingCategories:    4,
	PhaseExtractingProducts:      5,
	PhaseMatchingImages:          6,
}

func (p Phase) Number() int {
	return phaseNumbers[p]
}

// Progress is the snapshot written to the document record after each
// meaningful step. During chunked extraction the chunk counters are set;
// other phases carry only phase and message.
type Progress struct {
	Phase         Phase  `json:"phase"`
	PhaseNumber   int    `json:"phase_number"`
	Message       string `json:"message"`
	CurrentChunk  int    `json:"current_chunk,omitempty"`
	TotalChunks   int    `json:"total_chunks,omitempty"`
	ProductsSoFar int    `json:"products_so_far,omitempty"`
}

// Tracker decouples progress emission from persistence: the pipeline
// pushes snapshots onto a buffered channel and a single subscriber drains
// it. Emission never blocks the run; when the subscriber falls behind the
// snapshot is dropped, since only the latest state matters to a poller.
type Tracker struct {
	ch chan Progress
}

func NewTracker(buffer int) *Tracker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Tracker{ch: make(chan Progress, buffer)}
}

func (t *Tracker) Emit(p Progress) {
	if t == nil {
		return
	}
	p.PhaseNumber = p.Phase.Number()
	select {
	case t.ch <- p:
	default:
	}
}

// Events is the subscriber side. Closed by Close once the run finishes.
func (t *Tracker) Events() <-chan Progress {
	return t.ch
}

func (t *Tracker) Close() {
	if t != nil {
		close(t.ch)
	}
}
