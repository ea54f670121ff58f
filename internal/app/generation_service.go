package app

import (
	"context"
	"log"
	"time"

	"explainit-service/internal/domain"
	"golang.org/x/sync/semaphore"
)

// ScriptRunner runs the external video generator and blocks until it exits.
type ScriptRunner interface {
	Run(ctx context.Context, req domain.GenerationRequest) error
}

// GenerationService validates generation requests and bounds how many
// generator processes run at once. Requests beyond the bound are rejected,
// not queued.
type GenerationService struct {
	runner  ScriptRunner
	slots   *semaphore.Weighted
	timeout time.Duration
}

// NewGenerationService allows maxConcurrent simultaneous runs. A zero
// timeout leaves runs bounded only by the caller's context.
func NewGenerationService(runner ScriptRunner, maxConcurrent int, timeout time.Duration) *GenerationService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &GenerationService{
		runner:  runner,
		slots:   semaphore.NewWeighted(int64(maxConcurrent)),
		timeout: timeout,
	}
}

// Generate normalizes and validates req, then runs the generator.
func (s *GenerationService) Generate(ctx context.Context, req domain.GenerationRequest) error {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	if !s.slots.TryAcquire(1) {
		return domain.ErrGeneratorBusy
	}
	defer s.slots.Release(1)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	log.Printf("generating %q with %s and %s (%ds)", req.Topic, req.Character1, req.Character2, req.Duration)
	if err := s.runner.Run(ctx, req); err != nil {
		log.Printf("generation failed after %s: %v", time.Since(start).Round(time.Second), err)
		return err
	}
	log.Printf("generation finished in %s", time.Since(start).Round(time.Second))
	return nil
}
