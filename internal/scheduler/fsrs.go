// Package scheduler implements the spaced-repetition review policy.
//
// The concrete model is FSRS v6: a 21-weight memory model with a power
// forgetting curve, per-rating initial stability, difficulty with linear
// damping and mean reversion, and separate stability curves for recall and
// forgetting. The policy is stateless; a single instance is safe for
// concurrent use. Interval fuzzing is deliberately not applied so that
// identical inputs always produce identical schedules.
package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mlopez/flashdeck/internal/models"
)

var (
	ErrInvalidRating  = errors.New("scheduler: invalid rating")
	ErrInvalidWeights = errors.New("scheduler: weights out of bounds")
	ErrInvalidConfig  = errors.New("scheduler: invalid config")
)

// Config configures an FSRS policy. Zero values select defaults.
type Config struct {
	Weights          [21]float64     // zero array → DefaultWeights
	DesiredRetention float64         // zero → 0.9
	LearningSteps    []time.Duration // nil → [1m, 10m]
	RelearningSteps  []time.Duration // nil → [10m]
	MaximumInterval  int             // zero → 36500 days
}

// FSRS is the review transition function. All fields are fixed at
// construction; NextSchedule never mutates them.
type FSRS struct {
	w                [21]float64
	decay            float64 // -w[20]
	factor           float64 // 0.9^(1/decay) - 1
	desiredRetention float64
	learningSteps    []time.Duration
	relearningSteps  []time.Duration
	maximumInterval  int
}

// New builds an FSRS policy from cfg, filling defaults and validating.
func New(cfg Config) (*FSRS, error) {
	w := cfg.Weights
	if w == [21]float64{} {
		w = DefaultWeights
	}
	if err := ValidateWeights(w); err != nil {
		return nil, err
	}

	dr := cfg.DesiredRetention
	if dr == 0 {
		dr = 0.9
	}
	if dr < 0 || dr > 1 {
		return nil, fmt.Errorf("%w: desired retention %f outside (0, 1]", ErrInvalidConfig, dr)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("%w: maximum interval %d must be positive", ErrInvalidConfig, maxIvl)
	}

	ls := cfg.LearningSteps
	if ls == nil {
		ls = []time.Duration{time.Minute, 10 * time.Minute}
	}
	rs := cfg.RelearningSteps
	if rs == nil {
		rs = []time.Duration{10 * time.Minute}
	}

	decay := -w[20]
	return &FSRS{
		w:                w,
		decay:            decay,
		factor:           math.Pow(0.9, 1.0/decay) - 1.0,
		desiredRetention: dr,
		learningSteps:    ls,
		relearningSteps:  rs,
		maximumInterval:  maxIvl,
	}, nil
}

// NextSchedule applies one review to prev and returns the resulting schedule.
// prev may be the synthesized zero state (State == StateNew) for a card's
// first review. The input is not mutated.
func (f *FSRS) NextSchedule(prev models.ReviewSchedule, rating models.Rating, now time.Time) (models.ReviewSchedule, error) {
	if !rating.IsValid() {
		return models.ReviewSchedule{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	next := prev

	var elapsed float64
	if prev.LastReview != nil {
		elapsed = now.Sub(*prev.LastReview).Hours() / 24.0
		if elapsed < 0 {
			elapsed = 0
		}
	}

	f.updateMemory(&next, rating, elapsed)

	if next.State == models.StateNew {
		// First review: the card enters the learning phase at step 0.
		next.State = models.StateLearning
		next.Step = 0
	}

	var interval time.Duration
	switch next.State {
	case models.StateLearning:
		interval = f.stepTransition(&next, rating, f.learningSteps)
	case models.StateRelearning:
		interval = f.stepTransition(&next, rating, f.relearningSteps)
	default:
		interval = f.reviewTransition(&next, rating)
	}

	next.Reps = prev.Reps + 1
	next.Lapses = prev.Lapses
	if rating == models.RatingAgain {
		next.Lapses = prev.Lapses + 1
	}
	next.ElapsedDays = int(elapsed)
	next.ScheduledDays = int(interval.Hours() / 24.0)
	next.Due = now.Add(interval)
	reviewed := now
	next.LastReview = &reviewed
	next.LastRating = rating
	next.UpdatedAt = now

	return next, nil
}

// updateMemory updates stability and difficulty for the review.
func (f *FSRS) updateMemory(s *models.ReviewSchedule, rating models.Rating, elapsed float64) {
	if s.State == models.StateNew || s.Stability == 0 {
		s.Stability = f.initStability(rating)
		s.Difficulty = f.initDifficulty(rating, true)
		return
	}

	if elapsed < 1 {
		// Same-day review: short-term stability update.
		s.Stability = f.shortTermStability(s.Stability, rating)
	} else {
		r := f.retrievability(elapsed, s.Stability)
		if rating == models.RatingAgain {
			s.Stability = f.forgetStability(s.Difficulty, s.Stability, r)
		} else {
			s.Stability = f.recallStability(s.Difficulty, s.Stability, r, rating)
		}
	}
	s.Difficulty = f.nextDifficulty(s.Difficulty, rating)
}

// stepTransition handles Learning and Relearning. Again restarts the steps,
// Good advances one step, Easy (or running off the end) graduates to Review.
func (f *FSRS) stepTransition(s *models.ReviewSchedule, rating models.Rating, steps []time.Duration) time.Duration {
	step := s.Step
	if len(steps) == 0 || (step >= len(steps) && rating != models.RatingAgain) {
		return f.graduate(s)
	}
	if step >= len(steps) {
		step = len(steps) - 1
	}

	switch rating {
	case models.RatingAgain:
		s.Step = 0
		return steps[0]

	case models.RatingHard:
		if step == 0 && len(steps) == 1 {
			return time.Duration(float64(steps[0]) * 1.5)
		}
		if step == 0 && len(steps) >= 2 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[step]

	case models.RatingGood:
		next := step + 1
		if next >= len(steps) {
			return f.graduate(s)
		}
		s.Step = next
		return steps[next]

	default: // Easy
		return f.graduate(s)
	}
}

// reviewTransition handles the Review state. Again demotes to Relearning;
// any success reschedules by the stability-derived interval.
func (f *FSRS) reviewTransition(s *models.ReviewSchedule, rating models.Rating) time.Duration {
	if rating == models.RatingAgain && len(f.relearningSteps) > 0 {
		s.State = models.StateRelearning
		s.Step = 0
		return f.relearningSteps[0]
	}
	s.Step = 0
	return f.intervalDuration(s.Stability)
}

// graduate moves a card into the long-term Review cycle.
func (f *FSRS) graduate(s *models.ReviewSchedule) time.Duration {
	s.State = models.StateReview
	s.Step = 0
	return f.intervalDuration(s.Stability)
}

func (f *FSRS) intervalDuration(stability float64) time.Duration {
	return time.Duration(f.nextInterval(stability)) * 24 * time.Hour
}

// retrievability computes R(t, S) = (1 + factor * t / S) ^ decay.
func (f *FSRS) retrievability(elapsed, stability float64) float64 {
	return math.Pow(1+f.factor*elapsed/stability, f.decay)
}

// initStability returns S₀(G) = clamp_s(w[G-1]).
func (f *FSRS) initStability(rating models.Rating) float64 {
	return clampStability(f.w[rating-1])
}

// initDifficulty returns D₀(G) = w[4] - e^(w[5]*(G-1)) + 1.
func (f *FSRS) initDifficulty(rating models.Rating, clamp bool) float64 {
	d := f.w[4] - math.Exp(f.w[5]*float64(rating-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextInterval returns round(S/factor * (retention^(1/decay) - 1)) days,
// clamped to [1, maximumInterval].
func (f *FSRS) nextInterval(stability float64) int {
	ivl := stability / f.factor * (math.Pow(f.desiredRetention, 1.0/f.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > f.maximumInterval {
		days = f.maximumInterval
	}
	return days
}

// shortTermStability updates stability for a same-day review.
func (f *FSRS) shortTermStability(stability float64, rating models.Rating) float64 {
	inc := math.Exp(f.w[17]*(float64(rating)-3+f.w[18])) * math.Pow(stability, -f.w[19])
	if rating == models.RatingGood || rating == models.RatingEasy {
		inc = math.Max(inc, 1.0)
	}
	return clampStability(stability * inc)
}

// nextDifficulty applies linear damping then mean reversion toward D₀(Easy).
func (f *FSRS) nextDifficulty(difficulty float64, rating models.Rating) float64 {
	deltaD := -f.w[6] * (float64(rating) - 3)
	damped := difficulty + (10-difficulty)*deltaD/9
	target := f.initDifficulty(models.RatingEasy, false)
	return clampDifficulty(f.w[7]*target + (1-f.w[7])*damped)
}

// recallStability computes stability growth after Hard/Good/Easy.
func (f *FSRS) recallStability(d, s, r float64, rating models.Rating) float64 {
	hardPenalty := 1.0
	if rating == models.RatingHard {
		hardPenalty = f.w[15]
	}
	easyBonus := 1.0
	if rating == models.RatingEasy {
		easyBonus = f.w[16]
	}
	return s * (1 + math.Exp(f.w[8])*
		(11-d)*
		math.Pow(s, -f.w[9])*
		(math.Exp((1-r)*f.w[10])-1)*
		hardPenalty*easyBonus)
}

// forgetStability computes post-lapse stability, bounded by the short-term
// stability the card would have after the same-day penalty.
func (f *FSRS) forgetStability(d, s, r float64) float64 {
	long := f.w[11] *
		math.Pow(d, -f.w[12]) *
		(math.Pow(s+1, f.w[13]) - 1) *
		math.Exp((1-r)*f.w[14])
	short := s / math.Exp(f.w[17]*f.w[18])
	return math.Min(long, short)
}

func clampStability(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
