package tool

// Tone is the voice requested for a writing draft.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	ToneFormal   Tone = "formal"
	ToneCasual   Tone = "casual"
	ToneFriendly Tone = "friendly"
)

// Tones lists the accepted tones.
func Tones() []Tone {
	return []Tone{ToneNeutral, ToneFormal, ToneCasual, ToneFriendly}
}

// Length is the size bucket requested for a writing draft.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Lengths lists the accepted lengths.
func Lengths() []Length {
	return []Length{LengthShort, LengthMedium, LengthLong}
}

// WriteInput is the validated payload of the write tool.
// Empty optional fields mean the provider default applies.
type WriteInput struct {
	Topic   string   `json:"topic"`
	Tone    Tone     `json:"tone,omitempty"`
	Length  Length   `json:"length,omitempty"`
	Outline []string `json:"outline,omitempty"`
}

// IdeasInput is the validated payload of the ideas tool. Count 0 means absent.
type IdeasInput struct {
	Topic string   `json:"topic"`
	Count int      `json:"count,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// FocusInput is the validated payload of the focus tool. Count 0 means absent.
type FocusInput struct {
	Context            string   `json:"context"`
	ExistingPriorities []string `json:"existingPriorities,omitempty"`
	Count              int      `json:"count,omitempty"`
}

// IdeaItem is one generated idea.
type IdeaItem struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// IdeasResult is the data returned by the ideas tool.
type IdeasResult struct {
	Items []IdeaItem `json:"items"`
}

// PriorityItem is one suggested daily priority.
type PriorityItem struct {
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
	Category string `json:"category"`
}

// FocusResult is the data returned by the focus tool.
type FocusResult struct {
	Items []PriorityItem `json:"items"`
}
