package openapi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantumnous/docsite/internal/metrics"
	"github.com/quantumnous/docsite/internal/models"
	"github.com/quantumnous/docsite/internal/utils"
)

// ErrRunInProgress is returned when a generation is already running.
var ErrRunInProgress = errors.New("openapi generation already in progress")

const (
	StatusCompleted = "Completed"
	StatusError     = "Error"
)

// Spec configures the generation of one schema.
type Spec struct {
	Name                string
	Input               string
	Output              string
	Naming              string
	GroupByTag          bool
	IncludeDescription  bool
	AddGeneratedComment bool
	Clean               bool
}

type Runner struct {
	fetcher  *Fetcher
	logDir   string
	recorder *metrics.Recorder
	mu       sync.Mutex

	lastMu sync.RWMutex
	last   []*models.GenerationRun
}

func NewRunner(fetcher *Fetcher, logDir string, recorder *metrics.Recorder) *Runner {
	return &Runner{fetcher: fetcher, logDir: logDir, recorder: recorder}
}

// RunAll generates every spec in order and keeps going after a failure.
// The returned error joins the failures.
func (r *Runner) RunAll(ctx context.Context, specs []Spec) ([]*models.GenerationRun, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()
	return r.runAll(ctx, specs)
}

// Start runs RunAll in the background. done, when set, receives the result.
func (r *Runner) Start(specs []Spec, done func([]*models.GenerationRun, error)) error {
	if !r.mu.TryLock() {
		return ErrRunInProgress
	}
	go func() {
		defer r.mu.Unlock()
		runs, err := r.runAll(context.Background(), specs)
		if done != nil {
			done(runs, err)
		}
	}()
	return nil
}

// LastRuns returns the runs of the most recent completed generation.
func (r *Runner) LastRuns() []*models.GenerationRun {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	return append([]*models.GenerationRun(nil), r.last...)
}

func (r *Runner) runAll(ctx context.Context, specs []Spec) ([]*models.GenerationRun, error) {
	runs := make([]*models.GenerationRun, 0, len(specs))
	var errs []error
	for _, spec := range specs {
		run, err := r.run(ctx, spec)
		runs = append(runs, run)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", spec.Name, err))
		}
	}

	r.lastMu.Lock()
	r.last = runs
	r.lastMu.Unlock()
	return runs, errors.Join(errs...)
}

func (r *Runner) run(ctx context.Context, spec Spec) (*models.GenerationRun, error) {
	run := &models.GenerationRun{
		ID:        uuid.New(),
		Spec:      spec.Name,
		StartedAt: time.Now(),
	}

	logger, err := utils.NewRunLogger(r.logDir, "gen", spec.Name)
	if err != nil {
		return r.finish(run, err)
	}
	defer logger.Close()

	logger.LogInfo("Starting generation for %s (ID: %s)", spec.Name, run.ID)
	logger.LogInfo("  Input: %s", spec.Input)
	logger.LogInfo("  Output: %s", spec.Output)

	naming, ok := Naming(spec.Naming)
	if !ok {
		err := fmt.Errorf("unknown naming strategy %q", spec.Naming)
		logger.LogError("%v", err)
		return r.finish(run, err)
	}

	data, err := r.fetcher.Fetch(ctx, spec.Input)
	if err != nil {
		logger.LogError("%v", err)
		return r.finish(run, err)
	}

	doc, err := Parse(data)
	if err != nil {
		logger.LogError("%v", err)
		return r.finish(run, err)
	}
	logger.LogInfo("Loaded %s %s with %d operations", doc.Info.Title, doc.Info.Version, len(doc.Operations()))

	files, err := Generate(doc, GenerateOptions{
		Output:              spec.Output,
		DocumentRef:         spec.Input,
		GroupByTag:          spec.GroupByTag,
		IncludeDescription:  spec.IncludeDescription,
		AddGeneratedComment: spec.AddGeneratedComment,
		Clean:               spec.Clean,
		Naming:              naming,
	})
	run.Files = len(files)
	for _, f := range files {
		logger.LogDebug("Wrote %s", f)
	}
	if err != nil {
		logger.LogError("Generation failed: %v", err)
		return r.finish(run, err)
	}

	logger.LogInfo("%s docs generated: %d files", spec.Name, len(files))
	return r.finish(run, nil)
}

func (r *Runner) finish(run *models.GenerationRun, err error) (*models.GenerationRun, error) {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = StatusCompleted
	if err != nil {
		run.Status = StatusError
		run.Errors = append(run.Errors, err.Error())
	}
	if r.recorder != nil {
		r.recorder.ObserveGeneration(run.Spec, run.Files, err)
	}
	return run, err
}
