package antidetect

import (
	mathrand "math/rand"
	"time"
)

// BehaviorProfile holds the timing parameters used to simulate human
// browsing on a session. Immutable per session lifetime.
type BehaviorProfile struct {
	ScrollSpeedMin float64       `json:"scroll_speed_min"` // viewport heights per second
	ScrollSpeedMax float64       `json:"scroll_speed_max"`
	MouseSpeedMin  float64       `json:"mouse_speed_min"` // px per second
	MouseSpeedMax  float64       `json:"mouse_speed_max"`
	ClickDelayMin  time.Duration `json:"click_delay_min"`
	ClickDelayMax  time.Duration `json:"click_delay_max"`

	PauseProbability       float64 `json:"pause_probability"`
	HesitationProbability  float64 `json:"hesitation_probability"`
	ExplorationProbability float64 `json:"exploration_probability"`
}

// DefaultBehaviorProfile mirrors the median human profile. Used as the
// entropy-unavailable fallback.
func DefaultBehaviorProfile() BehaviorProfile {
	return BehaviorProfile{
		ScrollSpeedMin:         0.5,
		ScrollSpeedMax:         2.0,
		MouseSpeedMin:          100,
		MouseSpeedMax:          300,
		ClickDelayMin:          100 * time.Millisecond,
		ClickDelayMax:          500 * time.Millisecond,
		PauseProbability:       0.15,
		HesitationProbability:  0.25,
		ExplorationProbability: 0.10,
	}
}

// generateBehavior varies the default ranges so no two sessions share the
// same timing signature. Caller holds g.mu.
func (g *Generator) generateBehavior() BehaviorProfile {
	jitter := func(v, spread float64) float64 {
		return v * (1 + (g.rng.Float64()*2-1)*spread)
	}
	base := DefaultBehaviorProfile()
	return BehaviorProfile{
		ScrollSpeedMin:         jitter(base.ScrollSpeedMin, 0.3),
		ScrollSpeedMax:         jitter(base.ScrollSpeedMax, 0.3),
		MouseSpeedMin:          jitter(base.MouseSpeedMin, 0.25),
		MouseSpeedMax:          jitter(base.MouseSpeedMax, 0.25),
		ClickDelayMin:          time.Duration(jitter(float64(base.ClickDelayMin), 0.3)),
		ClickDelayMax:          time.Duration(jitter(float64(base.ClickDelayMax), 0.3)),
		PauseProbability:       clamp01(jitter(base.PauseProbability, 0.4)),
		HesitationProbability:  clamp01(jitter(base.HesitationProbability, 0.4)),
		ExplorationProbability: clamp01(jitter(base.ExplorationProbability, 0.4)),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ScrollStep is one increment of a simulated scroll gesture.
type ScrollStep struct {
	Position int
	Delay    time.Duration
}

// ScrollPattern produces an eased scroll from current to target with
// per-step jitter and occasional pauses: slow start, cruise, slow stop.
// The final step always lands exactly on target.
func (bp BehaviorProfile) ScrollPattern(rng *mathrand.Rand, target, current int) []ScrollStep {
	distance := target - current
	if distance == 0 {
		return nil
	}

	speed := bp.ScrollSpeedMin + rng.Float64()*(bp.ScrollSpeedMax-bp.ScrollSpeedMin)
	total := float64(abs(distance)) / (speed * 100)
	if total < 0.5 {
		total = 0.5
	}
	if total > 3.0 {
		total = 3.0
	}

	stepCount := int(total * 10)
	if stepCount < 5 {
		stepCount = 5
	}

	steps := make([]ScrollStep, 0, stepCount)
	for i := 0; i < stepCount; i++ {
		progress := float64(i) / float64(stepCount-1)

		var ease float64
		switch {
		case progress < 0.3:
			p := progress / 0.3
			ease = p * p
		case progress > 0.7:
			p := (progress - 0.7) / 0.3
			ease = 1 - p*p
		default:
			ease = 1.0
		}

		pos := float64(current) + float64(distance)*ease
		if i < stepCount-1 {
			pos += (rng.Float64() - 0.5) * 5 // hand tremor
		} else {
			pos = float64(target)
		}

		delay := time.Duration(total / float64(stepCount) * float64(time.Second))
		if rng.Float64() < bp.PauseProbability {
			delay = time.Duration(float64(delay) * (1.2 + rng.Float64()*0.6))
		}

		steps = append(steps, ScrollStep{Position: int(pos), Delay: delay})
	}
	return steps
}

// ClickDelay draws a human reaction delay before a click.
func (bp BehaviorProfile) ClickDelay(rng *mathrand.Rand) time.Duration {
	span := bp.ClickDelayMax - bp.ClickDelayMin
	if span <= 0 {
		return bp.ClickDelayMin
	}
	return bp.ClickDelayMin + time.Duration(rng.Int63n(int64(span)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
