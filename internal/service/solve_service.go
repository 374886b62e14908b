package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/veldi/sportsched-api/internal/dto"
	"github.com/veldi/sportsched-api/internal/models"
	"github.com/veldi/sportsched-api/internal/solver"
	"github.com/veldi/sportsched-api/pkg/config"
	appErrors "github.com/veldi/sportsched-api/pkg/errors"
	"github.com/veldi/sportsched-api/pkg/jobs"
)

type solutionStore interface {
	Insert(ctx context.Context, doc *models.SolutionDocument) error
}

// solveJob carries one prepared solve through the queue. The model and
// warm start are built at submit time, so a bad request fails fast and
// the background worker only ever sees solvable input.
type solveJob struct {
	runID      string
	model      *solver.Model
	warm       *solver.WarmStart
	conditions types.JSONText
}

// SolveService owns the solve pipeline: it validates and prepares
// requests, serializes execution through a single-worker queue, tracks
// pollable run state and persists finished schedules.
type SolveService struct {
	store     solutionStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.SolverConfig

	queue *jobs.Queue

	mu        sync.Mutex
	active    string
	runs      map[string]*models.SolveRun
	cancels   map[string]context.CancelFunc
	cancelled map[string]bool // cancel requested before the run started
}

// NewSolveService constructs the service and its internal queue. The
// queue always runs exactly one worker: overlapping solves would fight
// over CPU and the single-flight contract leans on the serialization.
func NewSolveService(store solutionStore, cache *CacheService, metrics *MetricsService, v *validator.Validate, cfg config.SolverConfig, logger *zap.Logger) *SolveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if v == nil {
		v = validator.New()
	}
	s := &SolveService{
		store:     store,
		cache:     cache,
		metrics:   metrics,
		validator: v,
		logger:    logger,
		cfg:       cfg,
		runs:      make(map[string]*models.SolveRun),
		cancels:   make(map[string]context.CancelFunc),
		cancelled: make(map[string]bool),
	}
	s.queue = jobs.NewQueue("solve", s.handleJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		Logger:     logger,
	})
	return s
}

// Start launches the background worker.
func (s *SolveService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker.
func (s *SolveService) Stop() {
	s.queue.Stop()
}

// Submit validates the request, builds the model and queues the solve.
// Only one solve may be pending or running at a time; a second submit
// is rejected with a conflict instead of being queued behind the first.
func (s *SolveService) Submit(ctx context.Context, req dto.SolveRequest) (*dto.SubmitSolveResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.ErrValidation.Wrap(err)
	}
	activities, err := solver.NormalizeActivities(req.Activities)
	if err != nil {
		return nil, err
	}
	areas := solver.NormalizeAreas(req.Areas)
	model, err := solver.BuildModel(activities, areas, s.solverOptions(req.Options))
	if err != nil {
		return nil, err
	}
	warm := solver.BuildWarmStart(model, req.Previous)

	conditions, err := json.Marshal(req.Activities)
	if err != nil {
		return nil, appErrors.ErrInternal.Wrap(err)
	}

	s.mu.Lock()
	if s.active != "" {
		if run, ok := s.runs[s.active]; ok && (run.Status == models.RunPending || run.Status == models.RunRunning) {
			s.mu.Unlock()
			return nil, appErrors.ErrSolveInProgress
		}
	}
	run := &models.SolveRun{
		ID:          uuid.NewString(),
		Status:      models.RunPending,
		SubmittedAt: time.Now().UTC(),
	}
	s.runs[run.ID] = run
	s.active = run.ID
	s.mu.Unlock()

	job := jobs.Job{
		ID:   run.ID,
		Type: "solve",
		Payload: &solveJob{
			runID:      run.ID,
			model:      model,
			warm:       warm,
			conditions: conditions,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.mu.Lock()
		run.Status = models.RunFailed
		run.Error = err.Error()
		s.active = ""
		s.mu.Unlock()
		return nil, appErrors.ErrInternal.Wrap(err)
	}
	s.logger.Info("solve submitted",
		zap.String("run_id", run.ID),
		zap.Int("instances", len(model.Instances())),
		zap.Bool("warm_start", warm.HasPriors()))
	return &dto.SubmitSolveResponse{RunID: run.ID, Status: run.Status}, nil
}

// Run returns a snapshot of the run state for polling.
func (s *SolveService) Run(id string) (*models.SolveRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	snapshot := *run
	return &snapshot, nil
}

// Cancel requests termination of a pending or running solve. A run
// already finished cannot be cancelled.
func (s *SolveService) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return appErrors.ErrNotFound
	}
	switch run.Status {
	case models.RunPending:
		s.cancelled[id] = true
		return nil
	case models.RunRunning:
		if cancel, ok := s.cancels[id]; ok {
			cancel()
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrConflict, "run already finished")
	}
}

func (s *SolveService) solverOptions(opts dto.SolveOptions) solver.Options {
	out := solver.Options{
		GridStep:          s.cfg.GridStep,
		FlexCap:           s.cfg.FlexCap,
		FlexUsePenalty:    s.cfg.FlexUsePenalty,
		ModifiedWeight:    s.cfg.ModifiedWeight,
		BaselineWeight:    s.cfg.BaselineWeight,
		ConsecutiveWeight: s.cfg.ConsecutiveWeight,
		FallbackCeiling:   s.cfg.FallbackCeiling,
		Tolerance:         s.cfg.Tolerance,
		Seed:              s.cfg.Seed,
		Restarts:          s.cfg.Restarts,
		StrictPrecedence:  s.cfg.PrecedenceMode == config.PrecedenceStrict,
		StayCloseBudget:   s.cfg.StayCloseBudget,
		TimeFlexBudget:    s.cfg.TimeFlexBudget,
		BeforeAfterBudget: s.cfg.BeforeAfterBudget,
		DefaultBudget:     s.cfg.DefaultBudget,
	}
	if opts.PrecedenceMode != "" {
		out.StrictPrecedence = config.PrecedenceMode(opts.PrecedenceMode) == config.PrecedenceStrict
	}
	if opts.Seed != nil {
		out.Seed = *opts.Seed
	}
	return out
}

func (s *SolveService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(*solveJob)
	if !ok {
		s.logger.Error("solve job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	s.mu.Lock()
	run, ok := s.runs[payload.runID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if s.cancelled[payload.runID] {
		now := time.Now().UTC()
		run.Status = models.RunCancelled
		run.FinishedAt = &now
		s.active = ""
		delete(s.cancelled, payload.runID)
		s.mu.Unlock()
		s.metrics.ObserveSolve(string(models.RunCancelled), 0)
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancels[payload.runID] = cancel
	started := time.Now().UTC()
	run.Status = models.RunRunning
	run.StartedAt = &started
	s.mu.Unlock()
	defer cancel()

	res := solver.Solve(runCtx, payload.model, payload.warm)
	finished := time.Now().UTC()
	for _, ph := range res.Diagnostics.Phases {
		s.metrics.ObservePhase(ph.Name, string(ph.Status), ph.Duration, ph.Moves)
	}

	var solutionID string
	var persistErr error
	if len(res.Schedule) > 0 && !res.Diagnostics.Cancelled {
		solutionID, persistErr = s.persist(ctx, payload.conditions, res)
	}

	s.mu.Lock()
	run.FinishedAt = &finished
	run.Schedule = res.Schedule
	run.Diagnostics = &res.Diagnostics
	switch {
	case res.Diagnostics.Cancelled:
		run.Status = models.RunCancelled
	case persistErr != nil:
		run.Status = models.RunFailed
		run.Error = persistErr.Error()
	default:
		run.Status = models.RunCompleted
		run.SolutionID = solutionID
	}
	status := run.Status
	delete(s.cancels, payload.runID)
	delete(s.cancelled, payload.runID)
	s.active = ""
	s.mu.Unlock()

	s.metrics.ObserveSolve(string(status), finished.Sub(started))
	s.logger.Info("solve finished",
		zap.String("run_id", payload.runID),
		zap.String("status", string(status)),
		zap.Duration("duration", finished.Sub(started)),
		zap.Int("rows", len(res.Schedule)))
	return nil
}

func (s *SolveService) persist(ctx context.Context, conditions types.JSONText, res *solver.Result) (string, error) {
	schedule, err := json.Marshal(res.Schedule)
	if err != nil {
		return "", err
	}
	diagnostics, err := json.Marshal(res.Diagnostics)
	if err != nil {
		return "", err
	}
	doc := &models.SolutionDocument{
		Conditions:  conditions,
		Schedule:    types.JSONText(schedule),
		Diagnostics: types.JSONText(diagnostics),
	}
	if err := s.store.Insert(ctx, doc); err != nil {
		return "", err
	}
	s.cache.Invalidate(ctx, "solutions:*")
	return doc.ID, nil
}
