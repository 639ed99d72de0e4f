package quiz

// Kind identifies a question archetype.
type Kind int

const (
	PuzzleToTranslation Kind = iota // assemble the known-language translation
	PuzzleToTarget                  // assemble the learning-language sentence
	FillBlankKind
	AudioKind
)

var kindNames = [...]string{
	PuzzleToTranslation: "puzzle_to_translation",
	PuzzleToTarget:      "puzzle_to_target",
	FillBlankKind:       "fill_blank",
	AudioKind:           "audio",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds lists every archetype.
var Kinds = []Kind{PuzzleToTranslation, PuzzleToTarget, FillBlankKind, AudioKind}

// Blank replaces the hidden word in a fill-in-the-blank prompt.
const Blank = "____"

// Header holds what every question carries.
type Header struct {
	SentenceID int64
	Prompt     string
	Answer     string
}

func (h Header) header() Header { return h }

// Question is one of *Puzzle, *FillBlank or *AudioRecognition.
type Question interface {
	Kind() Kind
	header() Header
}

// HeaderOf returns the common fields of q.
func HeaderOf(q Question) Header { return q.header() }

// Puzzle asks the learner to assemble Answer from Pieces. Pieces holds every
// piece of the answer plus DecoyCount decoys, shuffled.
type Puzzle struct {
	Header
	ToTarget   bool // false: learning → known, true: known → learning
	FromLang   string
	ToLang     string
	Pieces     []string
	DecoyCount int
}

func (p *Puzzle) Kind() Kind {
	if p.ToTarget {
		return PuzzleToTarget
	}
	return PuzzleToTranslation
}

// FillBlank shows the learning-language sentence with one word replaced by
// Blank. Answer is the hidden word and appears exactly once in Choices.
type FillBlank struct {
	Header
	Translation  string
	Choices      []string
	CorrectIndex int
}

func (*FillBlank) Kind() Kind { return FillBlankKind }

// AudioRecognition plays Prompt, an opaque audio handle, and asks for the
// matching learning-language text among Choices.
type AudioRecognition struct {
	Header
	Translation  string
	Choices      []string
	CorrectIndex int
}

func (*AudioRecognition) Kind() Kind { return AudioKind }
