package state

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"explainit-service/internal/domain"
)

// WizardStep is the generation wizard's position.
type WizardStep int

const (
	StepTopic WizardStep = iota + 1
	StepDuration
	StepCharacters
	StepGenerating
	StepResult
)

const (
	generatingStage   = "Generating video..."
	generationFailed  = "Generation failed"
	fallbackCardColor = "#000"
)

// ErrStepIncomplete is returned by Next when the current step's input is missing.
var ErrStepIncomplete = errors.New("step incomplete")

// Generator runs a generation and blocks until the video exists.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) error
}

// CharacterSource provides the character catalog.
type CharacterSource interface {
	Characters(ctx context.Context) (map[string]domain.CharacterInfo, error)
}

// WizardState is a snapshot of the wizard.
type WizardState struct {
	Step       WizardStep
	Topic      string
	Duration   int
	Selected   []string
	Characters map[string]domain.CharacterInfo
	Stage      string
	Result     *domain.VideoCard
}

// GenerationWizard collects topic, length and two characters, then asks the
// backend for a video and refreshes the feed.
type GenerationWizard struct {
	generator  Generator
	characters CharacterSource
	videos     *VideoStore

	mu       sync.Mutex
	step     WizardStep
	topic    string
	duration int
	selected []string
	catalog  map[string]domain.CharacterInfo
	stage    string
	inFlight bool
	result   *domain.VideoCard
}

func NewGenerationWizard(generator Generator, characters CharacterSource, videos *VideoStore) *GenerationWizard {
	return &GenerationWizard{
		generator:  generator,
		characters: characters,
		videos:     videos,
		step:       StepTopic,
		catalog:    make(map[string]domain.CharacterInfo),
	}
}

// LoadCharacters fetches the catalog. Failures leave it empty.
func (w *GenerationWizard) LoadCharacters(ctx context.Context) {
	if w.characters == nil {
		return
	}
	catalog, err := w.characters.Characters(ctx)
	if err != nil {
		log.Printf("load characters: %v", err)
		return
	}
	w.mu.Lock()
	w.catalog = catalog
	w.mu.Unlock()
}

func (w *GenerationWizard) SetTopic(topic string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.topic = topic
}

// SelectDuration accepts one of domain.VideoLengths.
func (w *GenerationWizard) SelectDuration(seconds int) bool {
	for _, d := range domain.VideoLengths {
		if d == seconds {
			w.mu.Lock()
			w.duration = seconds
			w.mu.Unlock()
			return true
		}
	}
	return false
}

// ToggleCharacter selects or deselects name. A third selection is ignored.
func (w *GenerationWizard) ToggleCharacter(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.selected {
		if s == name {
			w.selected = append(w.selected[:i:i], w.selected[i+1:]...)
			return true
		}
	}
	if len(w.selected) >= 2 {
		return false
	}
	w.selected = append(w.selected, name)
	return true
}

// CanProceed is the current step's completion predicate.
func (w *GenerationWizard) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canProceedLocked()
}

func (w *GenerationWizard) canProceedLocked() bool {
	switch w.step {
	case StepTopic:
		return strings.TrimSpace(w.topic) != ""
	case StepDuration:
		return w.duration > 0
	case StepCharacters:
		return len(w.selected) == 2
	}
	return false
}

// Next advances one step. On the characters step it runs the generation
// and blocks until it finishes.
func (w *GenerationWizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if !w.canProceedLocked() {
		w.mu.Unlock()
		return ErrStepIncomplete
	}
	if w.step != StepCharacters {
		w.step++
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()
	return w.Generate(ctx)
}

// Back returns to the previous input step, keeping what was entered. After a
// failed generation it returns to the characters step.
func (w *GenerationWizard) Back() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.step == StepDuration || w.step == StepCharacters:
		w.step--
		return true
	case w.step == StepGenerating && !w.inFlight:
		w.step = StepCharacters
		w.stage = ""
		return true
	}
	return false
}

// Generate sends the request built from the collected input. On failure the
// wizard stays on the generating step with the server's message as stage.
func (w *GenerationWizard) Generate(ctx context.Context) error {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return domain.ErrGeneratorBusy
	}
	if len(w.selected) != 2 || w.duration <= 0 {
		w.mu.Unlock()
		return ErrStepIncomplete
	}
	req := domain.GenerationRequest{
		Character1: w.selected[0],
		Character2: w.selected[1],
		Topic:      w.topic,
		Duration:   w.duration,
	}.Normalize()
	w.step = StepGenerating
	w.stage = generatingStage
	w.inFlight = true
	w.result = nil
	w.mu.Unlock()

	err := w.generator.Generate(ctx, req)

	if err != nil {
		w.mu.Lock()
		w.inFlight = false
		w.stage = failureStage(err)
		w.mu.Unlock()
		return err
	}

	if w.videos != nil {
		// a failed refresh keeps the old list; the result card still shows
		_ = w.videos.Refresh(ctx)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	w.stage = ""
	card := w.resultCardLocked(req)
	w.result = &card
	w.step = StepResult
	return nil
}

// Reset starts over with an empty topic.
func (w *GenerationWizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight {
		return
	}
	w.step = StepTopic
	w.topic = ""
	w.stage = ""
	w.result = nil
}

func (w *GenerationWizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := WizardState{
		Step:       w.step,
		Topic:      w.topic,
		Duration:   w.duration,
		Selected:   append([]string(nil), w.selected...),
		Characters: make(map[string]domain.CharacterInfo, len(w.catalog)),
		Stage:      w.stage,
	}
	for name, info := range w.catalog {
		st.Characters[name] = info
	}
	if w.result != nil {
		card := cloneCard(*w.result)
		st.Result = &card
	}
	return st
}

func (w *GenerationWizard) resultCardLocked(req domain.GenerationRequest) domain.VideoCard {
	color := w.catalog[req.Character1].Color
	if color == "" {
		color = fallbackCardColor
	}
	return domain.VideoCard{
		ID:          "generated",
		Title:       req.Topic,
		Explanation: fmt.Sprintf("Your video about %s.", req.Topic),
		Character:   domain.Character{Name: req.Character1, Avatar: domain.DefaultCharacter.Avatar, Color: color},
		ShowTheme: &domain.ShowTheme{
			Name:       req.Character1,
			Avatar:     domain.DefaultCharacter.Avatar,
			Color:      color,
			Characters: []string{req.Character1, req.Character2},
		},
		Category: domain.DefaultCategory,
		Duration: fmt.Sprintf("0:%02d", req.Duration),
	}
}

// failureStage prefers the message the server sent.
func failureStage(err error) string {
	var msg interface{ ServerMessage() string }
	if errors.As(err, &msg) && msg.ServerMessage() != "" {
		return msg.ServerMessage()
	}
	return generationFailed
}
