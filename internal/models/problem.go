package models

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Mode selects how generated problems relate to the original
type Mode string

const (
	ModeTwin    Mode = "twin"    // same structure and solution method, new numbers
	ModeSimilar Mode = "similar" // same concept, modified scenario or phrasing
)

// Valid reports whether m is a known generation mode
func (m Mode) Valid() bool {
	return m == ModeTwin || m == ModeSimilar
}

// Count returns how many variants a "generate more" call produces for the mode
func (m Mode) Count() int {
	if m == ModeSimilar {
		return 2
	}
	return 1
}

// ChoiceCount is the number of options every generated problem carries
const ChoiceCount = 5

// Difficulty levels used by convention in classifications
const (
	DifficultyLow    = "하"
	DifficultyMedium = "중"
	DifficultyHigh   = "상"
)

// ImageInput is an uploaded problem image, owned by a single pipeline run
type ImageInput struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Empty reports whether the input carries no image at all
func (in *ImageInput) Empty() bool {
	return in == nil || len(in.Data) == 0
}

// DetectedType returns the declared media type, or the sniffed one when none was declared
func (in *ImageInput) DetectedType() string {
	if in == nil {
		return ""
	}
	if mt := strings.TrimSpace(in.MediaType); mt != "" {
		return strings.ToLower(mt)
	}
	if len(in.Data) == 0 {
		return ""
	}
	return http.DetectContentType(in.Data)
}

// IsImage reports whether the input is image-typed data
func (in *ImageInput) IsImage() bool {
	return strings.HasPrefix(in.DetectedType(), "image/")
}

// Classification describes the original problem
type Classification struct {
	Subject    string `json:"subject"`
	Grade      string `json:"grade"`
	Topic      string `json:"topic"`
	SubTopic   string `json:"subTopic"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

// ProblemVariant is one generated multiple-choice problem
type ProblemVariant struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	Answer      int      `json:"answer"` // 1-based index into Choices
	Explanation string   `json:"explanation"`
}

// Clone returns a deep copy of the variant
func (v ProblemVariant) Clone() ProblemVariant {
	out := v
	out.Choices = append([]string(nil), v.Choices...)
	return out
}

// GenerateRequest is the input of a generation call
type GenerateRequest struct {
	Classification Classification `json:"classification"`
	OriginalText   string         `json:"originalText"`
	Count          int            `json:"count"`
	Mode           Mode           `json:"mode"`
}

// SavedProblem is a variant persisted in the problem bank
type SavedProblem struct {
	ProblemVariant

	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"createdAt"`
	OriginalSubject string          `json:"originalSubject,omitempty"`
	OriginalTopic   string          `json:"originalTopic,omitempty"`
	Difficulty      string          `json:"difficulty,omitempty"`
	Analysis        *Classification `json:"analysis,omitempty"`

	// Extra keeps fields written by newer versions so a rewrite does not drop them
	Extra map[string]json.RawMessage `json:"-"`
}

// savedProblemKnownFields lists the JSON keys owned by SavedProblem
var savedProblemKnownFields = map[string]bool{
	"question": true, "choices": true, "answer": true, "explanation": true,
	"id": true, "createdAt": true, "originalSubject": true, "originalTopic": true,
	"difficulty": true, "analysis": true,
}

type savedProblemAlias SavedProblem

// MarshalJSON writes the known fields followed by any preserved unknown ones
func (p SavedProblem) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(savedProblemAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(p.Extra)+len(savedProblemKnownFields))
	for k, v := range p.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads the known fields and stashes the rest in Extra.
// Older records stored the answer as a string such as "3" or "3번".
func (p *SavedProblem) UnmarshalJSON(data []byte) error {
	var alias savedProblemAlias
	aux := struct {
		*savedProblemAlias
		Answer json.RawMessage `json:"answer"`
	}{savedProblemAlias: &alias}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	answer, err := decodeAnswer(aux.Answer)
	if err != nil {
		return err
	}
	alias.Answer = answer

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		if savedProblemKnownFields[k] {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]json.RawMessage)
		}
		alias.Extra[k] = v
	}
	*p = SavedProblem(alias)
	return nil
}

func decodeAnswer(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("answer: %w", err)
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "번")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("answer %q is not a choice number", s)
	}
	return n, nil
}

// Subject returns the subject the problem was classified under
func (p *SavedProblem) Subject() string {
	if p.OriginalSubject != "" {
		return p.OriginalSubject
	}
	if p.Analysis != nil {
		return p.Analysis.Subject
	}
	return ""
}
