package learner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/curiolabs/curio-go/internal/models"
)

// ProfileStore is the persistence contract the learner needs.
// Implemented by *db.Client.
type ProfileStore interface {
	GetProfile(ctx context.Context) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
}

// LearnStatus classifies how a learning run ended. InsufficientData is an
// expected terminal outcome, not an error.
type LearnStatus string

const (
	StatusSaved            LearnStatus = "saved"
	StatusInsufficientData LearnStatus = "insufficient_data"
	StatusFailed           LearnStatus = "failed"
)

// ErrLearningInProgress is returned when a run is triggered while another is
// still in flight. Learning performs a read-then-write on the single profile
// record, so concurrent runs could lose updates.
var ErrLearningInProgress = errors.New("learning run already in progress")

// FeedbackCollectionError wraps a failure to read rated articles.
type FeedbackCollectionError struct {
	Err error
}

func (e *FeedbackCollectionError) Error() string {
	return fmt.Sprintf("feedback collection failed: %v", e.Err)
}

func (e *FeedbackCollectionError) Unwrap() error { return e.Err }

// ProfileLoadError wraps a failure to read the existing profile. A read error
// must not be confused with absence: evolving "from scratch" on top of an
// unreadable profile would replace it wholesale and reset created_at.
type ProfileLoadError struct {
	Err error
}

func (e *ProfileLoadError) Error() string {
	return fmt.Sprintf("profile load failed: %v", e.Err)
}

func (e *ProfileLoadError) Unwrap() error { return e.Err }

// ProfileSaveError wraps a failure to persist the evolved profile. The
// previous profile, if any, remains the durable value.
type ProfileSaveError struct {
	Err error
}

func (e *ProfileSaveError) Error() string {
	return fmt.Sprintf("profile save failed: %v", e.Err)
}

func (e *ProfileSaveError) Unwrap() error { return e.Err }

// Result is the outcome of one learning run.
type Result struct {
	RunID            string
	Status           LearnStatus
	RelevantCount    int
	NotRelevantCount int
	Profile          *models.Profile
	Err              error
}

// learnState enumerates the learning state machine.
type learnState int

const (
	stateCollectFeedback learnState = iota
	stateValidateThreshold
	stateLoadProfile
	stateEvolve
	stateSave
	stateEnd
)

// learnRun is the transient per-invocation state. It is discarded when the
// run ends.
type learnRun struct {
	fb       models.FeedbackSet
	existing *models.Profile
	evolved  *models.Profile
	errCount int
	result   Result
}

// Orchestrator sequences one learning run:
// CollectFeedback -> ValidateThreshold -> LoadExistingProfile -> Evolve -> Save.
// Only one run may be in flight at a time.
type Orchestrator struct {
	collector *Collector
	store     ProfileStore
	evolver   *Evolver
	logger    *slog.Logger

	mu sync.Mutex
}

// NewOrchestrator wires the learning pipeline. The logger may be nil.
func NewOrchestrator(collector *Collector, store ProfileStore, evolver *Evolver, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		collector: collector,
		store:     store,
		evolver:   evolver,
		logger:    logger,
	}
}

// Run executes one learning run. It returns ErrLearningInProgress when a
// prior run has not finished; every other outcome, including expected
// terminal ones, is reported through the Result.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if !o.mu.TryLock() {
		return Result{}, ErrLearningInProgress
	}
	defer o.mu.Unlock()

	run := &learnRun{
		result: Result{RunID: uuid.New().String()[:8]},
	}

	o.logger.Info("learning run started", "run_id", run.result.RunID)

	for state := stateCollectFeedback; state != stateEnd; {
		state = o.step(ctx, state, run)
	}

	o.logger.Info("learning run finished",
		"run_id", run.result.RunID,
		"status", run.result.Status,
		"errors", run.errCount,
	)
	return run.result, nil
}

// step executes one state transition and returns the next state.
func (o *Orchestrator) step(ctx context.Context, state learnState, run *learnRun) learnState {
	switch state {
	case stateCollectFeedback:
		fb, err := o.collector.Collect(ctx)
		if err != nil {
			run.errCount++
			run.result.Status = StatusFailed
			run.result.Err = &FeedbackCollectionError{Err: err}
			return stateEnd
		}
		run.fb = fb
		run.result.RelevantCount, run.result.NotRelevantCount = fb.Counts()
		return stateValidateThreshold

	case stateValidateThreshold:
		if !EnoughSignal(run.result.RelevantCount, run.result.NotRelevantCount) {
			// Expected terminal outcome: the user simply has not rated enough yet
			o.logger.Info("not enough training data",
				"relevant", run.result.RelevantCount,
				"not_relevant", run.result.NotRelevantCount,
			)
			run.result.Status = StatusInsufficientData
			return stateEnd
		}
		return stateLoadProfile

	case stateLoadProfile:
		existing, err := o.store.GetProfile(ctx)
		if err != nil {
			// Absence is "create new"; a read error is fatal to the run. The
			// stored profile stays untouched.
			run.errCount++
			run.result.Status = StatusFailed
			run.result.Err = &ProfileLoadError{Err: err}
			return stateEnd
		}
		run.existing = existing
		return stateEvolve

	case stateEvolve:
		evolved, err := o.evolver.Evolve(ctx, run.fb, run.existing)
		if err != nil {
			run.errCount++
			run.result.Status = StatusFailed
			run.result.Err = err
			return stateEnd
		}
		run.evolved = evolved
		return stateSave

	case stateSave:
		if err := o.store.UpsertProfile(ctx, run.evolved); err != nil {
			run.errCount++
			run.result.Status = StatusFailed
			run.result.Err = &ProfileSaveError{Err: err}
			return stateEnd
		}
		run.result.Status = StatusSaved
		run.result.Profile = run.evolved
		return stateEnd

	default:
		return stateEnd
	}
}
