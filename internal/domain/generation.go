package domain

import (
	"fmt"
	"strings"
)

// DefaultTopic replaces a blank generation topic.
const DefaultTopic = "BrainRot Academy"

// VideoLengths are the durations the wizard offers, in seconds.
var VideoLengths = []int{30, 45, 60}

// GenerationRequest is the body of POST /api/generate.
type GenerationRequest struct {
	Character1 string `json:"character1"`
	Character2 string `json:"character2"`
	Topic      string `json:"topic"`
	Duration   int    `json:"duration"`
}

// Normalize trims fields and substitutes the placeholder topic.
func (r GenerationRequest) Normalize() GenerationRequest {
	r.Character1 = strings.TrimSpace(r.Character1)
	r.Character2 = strings.TrimSpace(r.Character2)
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		r.Topic = DefaultTopic
	}
	return r
}

// Validate checks the fields the generator script requires.
func (r GenerationRequest) Validate() error {
	if r.Character1 == "" || r.Character2 == "" {
		return fmt.Errorf("%w: missing character1 or character2", ErrInvalidGeneration)
	}
	if r.Duration < 1 {
		return fmt.Errorf("%w: duration must be a positive integer", ErrInvalidGeneration)
	}
	return nil
}
