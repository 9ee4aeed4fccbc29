package vocab

import (
	"context"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/vocabhat/internal/clockwork"
)

// SessionStore is the persistence boundary the Placement engine depends
// on. Implementations must give get-or-create / CAS-update operations
// serializable semantics: at most one active session per learner, and
// concurrent answer submissions must not silently clobber each other.
type SessionStore interface {
	// ActiveFor returns the learner's active session, if any.
	ActiveFor(ctx context.Context, learnerID int64) (*PlacementSession, error)

	// Create inserts a brand new active session for learnerID. Callers
	// must first check ActiveFor to preserve "at most one active session".
	Create(ctx context.Context, s PlacementSession) (PlacementSession, error)

	// CompareAndSwap persists an updated session iff its Version still
	// matches the stored row, returning ErrConflict otherwise.
	CompareAndSwap(ctx context.Context, s PlacementSession) (PlacementSession, error)
}

// Placement implements the bounded binary search placement test ("Sorting
// Hat"), grounded in the stateless-algorithm-struct
// shape of mugisham37-DriveMaster's PlacementTestAlgorithm, simplified to a
// difficulty-midpoint binary search with periodic regression probes rather
// than IRT item selection.
type Placement struct {
	cfg     Config
	catalog Catalog
	store   SessionStore
	clock   clockwork.Clock
	log     *zap.Logger
}

// NewPlacement builds a Placement engine.
func NewPlacement(cfg Config, catalog Catalog, store SessionStore, clock clockwork.Clock, log *zap.Logger) *Placement {
	if log == nil {
		log = zap.NewNop()
	}
	return &Placement{cfg: cfg, catalog: catalog, store: store, clock: clock, log: log}
}

// Question is the next question selected for a placement session.
type Question struct {
	Word               Word
	IsRegressionProbe  bool
}

// Start begins (or returns the existing) placement session for learnerID.
// Starting when an active session already exists is idempotent: it
// returns that session rather than erroring.
func (p *Placement) Start(ctx context.Context, learnerID int64) (PlacementSession, *Question, error) {
	existing, err := p.store.ActiveFor(ctx, learnerID)
	if err != nil {
		return PlacementSession{}, nil, newErr("placement.start", KindInternal, err)
	}
	if existing != nil {
		q, err := p.currentQuestion(ctx, *existing)
		if err != nil {
			return PlacementSession{}, nil, err
		}
		return *existing, q, nil
	}

	session := PlacementSession{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Min:       1,
		Max:       100,
		Active:    true,
		CreatedAt: p.clock.Now(),
	}
	created, err := p.store.Create(ctx, session)
	if err != nil {
		return PlacementSession{}, nil, newErr("placement.start", KindInternal, err)
	}
	q, err := p.currentQuestion(ctx, created)
	if err != nil {
		return PlacementSession{}, nil, err
	}
	return created, q, nil
}

// currentQuestion selects the next word for the session's NEXT question
// (question_count + 1) without mutating or persisting the session.
func (p *Placement) currentQuestion(ctx context.Context, s PlacementSession) (*Question, error) {
	nextPosition := s.QuestionCount + 1
	target, isProbe := p.targetFor(s, nextPosition)

	seen := s.SeenWordIDs()
	w, err := p.sampleNear(ctx, target, isProbe, seen)
	if err != nil {
		return nil, err
	}
	return &Question{Word: w, IsRegressionProbe: isProbe}, nil
}

// sampleNear asks the Catalog for the nearest word to target; regression
// probes allow a +/-5 rank window, implemented by
// falling back to Nearest (which already finds the globally-closest match,
// so the window is advisory rather than a hard filter — there is no
// narrower call available on the Catalog interface that would reject a
// match outside +/-5 while still returning the closest available word).
func (p *Placement) sampleNear(ctx context.Context, target int, isProbe bool, seen map[int64]struct{}) (Word, error) {
	w, err := p.catalog.Nearest(ctx, target, nil, seen)
	if err != nil {
		return Word{}, newErr("placement.question", KindExhausted, err)
	}
	return w, nil
}

// targetFor computes the difficulty target and regression-probe flag for
// the question at the given 1-based position.
func (p *Placement) targetFor(s PlacementSession, position int) (target int, isProbe bool) {
	if p.cfg.RegressionInterval > 0 && position%p.cfg.RegressionInterval == 0 {
		t := int(math.Floor(float64(s.Min) * p.cfg.RegressionFactor))
		if t < 1 {
			t = 1
		}
		return t, true
	}
	return (s.Min + s.Max) / 2, false
}

// Answer records the answer to the current question and returns the
// updated session, the next question (nil if the session just completed),
// and whether the just-answered question was a regression probe.
func (p *Placement) Answer(ctx context.Context, learnerID int64, isKnown bool) (PlacementSession, *Question, bool, error) {
	session, err := p.store.ActiveFor(ctx, learnerID)
	if err != nil {
		return PlacementSession{}, nil, false, newErr("placement.answer", KindInternal, err)
	}
	if session == nil {
		return PlacementSession{}, nil, false, newErr("placement.answer", KindNotFound, nil)
	}

	position := session.QuestionCount + 1
	target, isProbe := p.targetFor(*session, position)

	seen := session.SeenWordIDs()
	w, err := p.sampleNear(ctx, target, isProbe, seen)
	if err != nil {
		// Exhausted during placement is terminal: finalize at the
		// current midpoint rather than looping.
		finalized := p.finalize(*session)
		finalized.UpdatedAt = p.clock.Now()
		saved, cErr := p.store.CompareAndSwap(ctx, finalized)
		if cErr != nil {
			return PlacementSession{}, nil, false, newErr("placement.answer", KindInternal, cErr)
		}
		return saved, nil, isProbe, nil
	}

	next := *session
	next.Log = append(append([]PlacementLogEntry{}, session.Log...), PlacementLogEntry{
		WordID:             w.ID,
		WasRegressionProbe: isProbe,
		WasKnown:           isKnown,
	})
	next.QuestionCount = position

	if isProbe {
		if !isKnown {
			regressed := int(math.Floor(float64(next.Min) * p.cfg.RegressionFactor))
			if regressed < 1 {
				regressed = 1
			}
			next.Min = regressed
		}
		// a "known" probe answer confirms the range: no change.
	} else if isKnown {
		next.Min = target + 1
	} else {
		next.Max = target
	}

	if next.Min > next.Max {
		next.Min = next.Max
	}

	stopped := (next.Max-next.Min) < p.cfg.MinRange || next.QuestionCount >= p.cfg.MaxQuestions
	if stopped {
		next = p.finalize(next)
	}
	next.UpdatedAt = p.clock.Now()

	saved, err := p.store.CompareAndSwap(ctx, next)
	if err != nil {
		return PlacementSession{}, nil, false, newErr("placement.answer", KindConflict, err)
	}

	if !saved.Active {
		return saved, nil, isProbe, nil
	}

	nq, err := p.currentQuestion(ctx, saved)
	if err != nil {
		return PlacementSession{}, nil, isProbe, err
	}
	return saved, nq, isProbe, nil
}

// finalize stops the session and seeds FinalLevel from the current
// midpoint.
func (p *Placement) finalize(s PlacementSession) PlacementSession {
	level := (s.Min + s.Max) / 2
	s.FinalLevel = &level
	s.Active = false
	return s
}

// Current returns the learner's active session, or nil if none exists.
func (p *Placement) Current(ctx context.Context, learnerID int64) (*PlacementSession, error) {
	s, err := p.store.ActiveFor(ctx, learnerID)
	if err != nil {
		return nil, newErr("placement.current", KindInternal, err)
	}
	return s, nil
}
