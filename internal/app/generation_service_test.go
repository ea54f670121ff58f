package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"explainit-service/internal/app"
	"explainit-service/internal/domain"
)

type recordingRunner struct {
	mu       sync.Mutex
	requests []domain.GenerationRequest
	release  chan struct{}
	started  chan struct{}
	err      error
}

func (r *recordingRunner) Run(ctx context.Context, req domain.GenerationRequest) error {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func TestGenerateNormalizesTopic(t *testing.T) {
	runner := &recordingRunner{}
	service := app.NewGenerationService(runner, 1, 0)

	err := service.Generate(context.Background(), domain.GenerationRequest{Character1: "Rick", Character2: "Morty", Topic: "", Duration: 30})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(runner.requests) != 1 || runner.requests[0].Topic != domain.DefaultTopic {
		t.Fatalf("expected placeholder topic, got %+v", runner.requests)
	}
}

func TestGenerateValidates(t *testing.T) {
	runner := &recordingRunner{}
	service := app.NewGenerationService(runner, 1, 0)

	err := service.Generate(context.Background(), domain.GenerationRequest{Character1: "Rick", Duration: 0})
	if !errors.Is(err, domain.ErrInvalidGeneration) {
		t.Fatalf("expected invalid generation, got %v", err)
	}
	if len(runner.requests) != 0 {
		t.Fatalf("runner must not be called for invalid requests")
	}
}

func TestGenerateRejectsWhenBusy(t *testing.T) {
	runner := &recordingRunner{release: make(chan struct{}), started: make(chan struct{}, 1)}
	service := app.NewGenerationService(runner, 1, 0)
	req := domain.GenerationRequest{Character1: "Rick", Character2: "Morty", Topic: "Gravity", Duration: 45}

	done := make(chan error, 1)
	go func() { done <- service.Generate(context.Background(), req) }()
	<-runner.started

	if err := service.Generate(context.Background(), req); !errors.Is(err, domain.ErrGeneratorBusy) {
		t.Fatalf("expected busy, got %v", err)
	}

	close(runner.release)
	if err := <-done; err != nil {
		t.Fatalf("first generate: %v", err)
	}
	runner.started = nil
	runner.release = nil
	if err := service.Generate(context.Background(), req); err != nil {
		t.Fatalf("expected slot released, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	runner := &recordingRunner{release: make(chan struct{})}
	service := app.NewGenerationService(runner, 1, 20*time.Millisecond)

	err := service.Generate(context.Background(), domain.GenerationRequest{Character1: "Rick", Character2: "Morty", Duration: 30})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
