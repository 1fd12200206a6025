package models

import "time"

// GenerationStatus tracks an AI generation job.
type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "pending"
	GenerationRunning   GenerationStatus = "running"
	GenerationCompleted GenerationStatus = "completed"
	GenerationFailed    GenerationStatus = "failed"
)

// GenerationFailedMessage is the only failure detail exposed to callers.
const GenerationFailedMessage = "generation failed"

// GenerationRequest is the caller supplied input.
type GenerationRequest struct {
	Topic      string         `json:"topic"`
	SourceText string         `json:"sourceText,omitempty"`
	Language   string         `json:"language,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// GenerationResult holds the produced content.
type GenerationResult struct {
	Text      string `json:"text,omitempty"`
	ImageData string `json:"imageData,omitempty"`
}

// Generation is the persisted record of a content generation job.
type Generation struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Status      GenerationStatus  `json:"status"`
	Request     GenerationRequest `json:"request"`
	Result      *GenerationResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	RequestedBy string            `json:"requestedBy"`
	CreatedAt   time.Time         `json:"createdAt"`
	FinishedAt  *time.Time        `json:"finishedAt,omitempty"`
	// Extra carries stored members this type does not declare.
	Extra Extras `json:"-"`
}

func (g Generation) EntityID() string { return g.ID }

type generationRecord Generation

var generationLegacyFields = map[string]lenientKind{"createdAt": lenientTime, "finishedAt": lenientTime}

// UnmarshalJSON decodes a stored generation, tolerating legacy encodings and
// keeping undeclared members in Extra.
func (g *Generation) UnmarshalJSON(data []byte) error {
	extras, err := decodeRecord(data, (*generationRecord)(g), generationLegacyFields)
	if err != nil {
		return err
	}
	g.Extra = extras
	return nil
}

// MarshalJSON writes the declared fields followed by Extra.
func (g Generation) MarshalJSON() ([]byte, error) {
	return encodeRecord(generationRecord(g), g.Extra)
}
