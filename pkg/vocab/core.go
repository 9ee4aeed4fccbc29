package vocab

import (
	"context"
	"time"

	"github.com/mohae/deepcopy"
	"go.uber.org/zap"

	"github.com/example/vocabhat/internal/clockwork"
)

// Core is the façade exposing the learner-facing operations: placement,
// triage, review submission, session assembly, distractor generation, and
// activity tracking. It depends only on the narrow store/catalog interfaces
// defined in this package, keeping it decoupled from any concrete database
// type.
type Core struct {
	cfg        Config
	clock      clockwork.Clock
	log        *zap.Logger
	catalog    Catalog
	progress   ProgressStore
	sessions   SessionStore
	activities ActivityStore

	scheduler   Scheduler
	lifecycle   Lifecycle
	placement   *Placement
	assembler   *Assembler
	activity    *Activity
	distractors *DistractorGenerator
}

// NewCore wires every component into a single façade.
func NewCore(cfg Config, clock clockwork.Clock, log *zap.Logger, catalog Catalog, progress ProgressStore, sessions SessionStore, activities ActivityStore) *Core {
	if log == nil {
		log = zap.NewNop()
	}
	return &Core{
		cfg:         cfg,
		clock:       clock,
		log:         log,
		catalog:     catalog,
		progress:    progress,
		sessions:    sessions,
		activities:  activities,
		scheduler:   NewScheduler(cfg),
		lifecycle:   NewLifecycle(cfg),
		placement:   NewPlacement(cfg, catalog, sessions, clock, log),
		assembler:   NewAssembler(cfg, catalog, progress),
		activity:    NewActivity(cfg, activities),
		distractors: NewDistractorGenerator(cfg, catalog, log),
	}
}

// copyProgress returns a defensive deep copy so callers cannot mutate
// Core's view of storage results through a returned pointer-bearing struct
// (NextReviewAt/LastReviewedAt are *time.Time fields).
func copyProgress(p ProgressEntry) ProgressEntry {
	return deepcopy.Copy(p).(ProgressEntry)
}

func copySession(s PlacementSession) PlacementSession {
	return deepcopy.Copy(s).(PlacementSession)
}

// PlacementStart implements placement.start.
func (c *Core) PlacementStart(ctx context.Context, learnerID int64) (PlacementSession, *Word, bool, error) {
	session, q, err := c.placement.Start(ctx, learnerID)
	if err != nil {
		return PlacementSession{}, nil, false, err
	}
	if q == nil {
		return copySession(session), nil, false, nil
	}
	w := q.Word
	return copySession(session), &w, q.IsRegressionProbe, nil
}

// PlacementAnswer implements placement.answer.
func (c *Core) PlacementAnswer(ctx context.Context, learnerID int64, isKnown bool) (PlacementSession, *Word, bool, bool, *int, error) {
	session, q, wasProbe, err := c.placement.Answer(ctx, learnerID, isKnown)
	if err != nil {
		return PlacementSession{}, nil, false, false, nil, err
	}
	isComplete := !session.Active
	var nextWord *Word
	if q != nil {
		w := q.Word
		nextWord = &w
	}
	var finalLevel *int
	if session.FinalLevel != nil {
		v := *session.FinalLevel
		finalLevel = &v
	}
	return copySession(session), nextWord, wasProbe, isComplete, finalLevel, nil
}

// PlacementCurrent implements placement.current.
func (c *Core) PlacementCurrent(ctx context.Context, learnerID int64) (*PlacementSession, error) {
	s, err := c.placement.Current(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	cp := copySession(*s)
	return &cp, nil
}

// Triage implements triage(learner, word, is_known).
func (c *Core) Triage(ctx context.Context, learnerID, wordID int64, isKnown bool) (ProgressEntry, error) {
	if _, err := c.catalog.GetByID(ctx, wordID); err != nil {
		return ProgressEntry{}, newErr("triage", KindNotFound, err)
	}

	event := TriageUnknown
	if isKnown {
		event = TriageKnown
	}
	now := c.clock.Now()
	seed := NewProgressEntry(learnerID, wordID, c.cfg.EFMax)

	updated, err := c.progress.Revise(ctx, learnerID, wordID, &seed, func(prior ProgressEntry) ProgressEntry {
		return c.lifecycle.Triage(learnerID, wordID, prior, event, now)
	})
	if err != nil {
		return ProgressEntry{}, newErr("triage", KindInternal, err)
	}
	return copyProgress(updated), nil
}

// ReviewSession implements review.session(learner, limit).
func (c *Core) ReviewSession(ctx context.Context, learnerID int64, limit int) ([]ProgressWithWord, error) {
	if limit < 0 {
		return nil, newErr("review.session", KindInvalidArgument, nil)
	}
	return c.assembler.ReviewSession(ctx, learnerID, limit, c.clock.Now())
}

// ReviewUnitFilter implements review.unit_filter(learner, unit).
func (c *Core) ReviewUnitFilter(ctx context.Context, learnerID int64, unit int) ([]ProgressWithWord, error) {
	if unit < 1 {
		return nil, newErr("review.unit_filter", KindInvalidArgument, nil)
	}
	return c.assembler.UnitFilter(ctx, learnerID, unit)
}

// ReviewUnitLearned implements review.unit_learned(learner, unit).
func (c *Core) ReviewUnitLearned(ctx context.Context, learnerID int64, unit int) ([]ProgressWithWord, error) {
	if unit < 1 {
		return nil, newErr("review.unit_learned", KindInvalidArgument, nil)
	}
	return c.assembler.UnitLearned(ctx, learnerID, unit)
}

// ReviewSubmitResult is the tuple review.submit returns.
type ReviewSubmitResult struct {
	Progress      ProgressEntry
	GoalReached   bool
	DailyCount    int
	CurrentStreak int
}

// ReviewSubmit implements review.submit(learner, word, quality).
func (c *Core) ReviewSubmit(ctx context.Context, learnerID, wordID int64, quality Quality, loc *time.Location) (ReviewSubmitResult, error) {
	if !quality.Valid() {
		return ReviewSubmitResult{}, newErr("review.submit", KindInvalidArgument, nil)
	}
	if _, err := c.catalog.GetByID(ctx, wordID); err != nil {
		return ReviewSubmitResult{}, newErr("review.submit", KindNotFound, err)
	}

	now := c.clock.Now()
	// the scheduler's day rounding happens in the learner's timezone.
	learnerNow := now.In(time.UTC)
	if loc != nil {
		learnerNow = now.In(loc)
	}
	scheduled, err := c.progress.Revise(ctx, learnerID, wordID, nil, func(prior ProgressEntry) ProgressEntry {
		next := c.scheduler.Advance(prior, quality, learnerNow)
		next.Status = c.lifecycle.Advance(prior.Status, next, quality)
		return next
	})
	if err != nil {
		if CoreErrorKind(err) == KindNotFound {
			return ReviewSubmitResult{}, newErr("review.submit", KindNotFound, err)
		}
		return ReviewSubmitResult{}, newErr("review.submit", KindInternal, err)
	}

	activity, goalReached, err := c.activity.Observe(ctx, learnerID, now, loc)
	if err != nil {
		return ReviewSubmitResult{}, err
	}

	return ReviewSubmitResult{
		Progress:      copyProgress(scheduled),
		GoalReached:   goalReached,
		DailyCount:    activity.TodayCount,
		CurrentStreak: activity.Streak,
	}, nil
}

// UnitStats is one row of stats.by_unit.
type UnitStats struct {
	Unit         int
	LearnedCount int
	TotalCount   int
	Percent      float64
}

// StatsByUnit implements stats.by_unit(learner).
func (c *Core) StatsByUnit(ctx context.Context, learnerID int64) ([]UnitStats, UnitStats, error) {
	counts, err := c.progress.CountByUnit(ctx, learnerID)
	if err != nil {
		return nil, UnitStats{}, newErr("stats.by_unit", KindInternal, err)
	}

	var rows []UnitStats
	var overallLearned, overallTotal int
	for unit, uc := range counts {
		learned := uc.Reviewed + uc.Mastered
		pct := 0.0
		if uc.Total > 0 {
			pct = float64(learned) / float64(uc.Total) * 100
		}
		rows = append(rows, UnitStats{Unit: unit, LearnedCount: learned, TotalCount: uc.Total, Percent: pct})
		overallLearned += learned
		overallTotal += uc.Total
	}

	overall := UnitStats{LearnedCount: overallLearned, TotalCount: overallTotal}
	if overallTotal > 0 {
		overall.Percent = float64(overallLearned) / float64(overallTotal) * 100
	}
	return rows, overall, nil
}

// StatsUser implements stats.user(learner).
func (c *Core) StatsUser(ctx context.Context, learnerID int64) (streak, dailyCount, dailyGoal int, err error) {
	return c.activity.Stats(ctx, learnerID)
}

// Distractors implements distractors(word, n).
func (c *Core) Distractors(ctx context.Context, wordID int64, n int) ([]Word, error) {
	w, err := c.catalog.GetByID(ctx, wordID)
	if err != nil {
		return nil, newErr("distractors", KindNotFound, err)
	}
	return c.distractors.Generate(ctx, w, n)
}
