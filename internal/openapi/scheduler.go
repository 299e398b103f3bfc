package openapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler regenerates the configured specs periodically.
type Scheduler struct {
	scheduler gocron.Scheduler
	runner    *Runner
	specs     []Spec
}

func NewScheduler(runner *Runner, specs []Spec) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, runner: runner, specs: specs}, nil
}

// Every schedules a regeneration each interval and returns the job ID.
func (s *Scheduler) Every(interval time.Duration) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.execute),
		gocron.WithName("openapi-generate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create generation job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) Start() {
	log.Println("Starting OpenAPI generation scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	log.Println("Stopping OpenAPI generation scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) execute() {
	log.Println("Starting scheduled OpenAPI generation...")
	runs, err := s.runner.RunAll(context.Background(), s.specs)
	if errors.Is(err, ErrRunInProgress) {
		log.Println("Skipping scheduled generation, a run is already in progress")
		return
	}
	for _, run := range runs {
		log.Printf("Generation %s for %s: %s (%d files)", run.ID, run.Spec, run.Status, run.Files)
	}
	if err != nil {
		log.Printf("Scheduled generation failed: %v", err)
	}
}
