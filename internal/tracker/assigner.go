package tracker

import (
	"context"
	"math"
	"sort"

	"github.com/jfsehuanes/thunderfish/internal/monitoring"
	"github.com/jfsehuanes/thunderfish/internal/units"
)

// assignState is the per-trajectory matching state held by the assigner.
// A trajectory is only eligible for new candidates while observed; after
// PrimTimeToleranceMin minutes of absence it transitions to forgotten and
// stays unmatched until a candidate is assigned to it again (which, under
// greedy matching, never happens — the state exists so a forgotten
// trajectory cannot re-anchor on a stale frequency).
type assignState struct {
	observed  bool
	lastFreq  float64
	absentRun int
}

// Assigner performs first-level sorting: the online greedy assignment of
// per-timestep candidate frequencies to trajectories.
type Assigner struct {
	cfg   Config
	arena *Arena
	state map[int]*assignState
	dpm   float64
}

// NewAssigner creates an assigner for an axis of the given length and
// spacing dt (seconds).
func NewAssigner(axisLen int, dt float64, cfg Config) *Assigner {
	return &Assigner{
		cfg:   cfg,
		arena: NewArena(axisLen),
		state: make(map[int]*assignState),
		dpm:   units.StepsPerMinute(dt),
	}
}

// Arena returns the trajectory collection built so far. Any prefix of
// consumed timesteps leaves the arena in a state the downstream stages can
// process.
func (as *Assigner) Arena() *Arena { return as.arena }

// candidateMatch is one trajectory eligible for a candidate frequency.
type candidateMatch struct {
	id     int
	diff   float64
	absent int
}

// Step assigns the candidate frequencies of one timestep. Candidates are
// matched greedily: among observed trajectories within FrequencyTolerance
// whose slot at this step is still empty, the one absent for the shortest
// time wins, with the smaller frequency difference breaking ties. A
// candidate matching no trajectory starts a new one.
func (as *Assigner) Step(step int, candidates []float64) {
	for _, freq := range candidates {
		var matches []candidateMatch
		for id, st := range as.state {
			if !st.observed {
				continue
			}
			diff := math.Abs(st.lastFreq - freq)
			if diff < as.cfg.FrequencyTolerance {
				matches = append(matches, candidateMatch{id: id, diff: diff, absent: st.absentRun})
			}
		}
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].absent != matches[j].absent {
				return matches[i].absent < matches[j].absent
			}
			if matches[i].diff != matches[j].diff {
				return matches[i].diff < matches[j].diff
			}
			return matches[i].id < matches[j].id
		})

		assigned := false
		for _, m := range matches {
			tr := as.arena.Get(m.id)
			if tr.Samples[step].Valid {
				continue // slot already taken by a closer candidate this step
			}
			tr.Set(step, freq)
			st := as.state[m.id]
			st.lastFreq = freq
			st.absentRun = 0
			st.observed = true
			assigned = true
			break
		}
		if !assigned {
			tr := as.arena.Add()
			tr.Set(step, freq)
			as.state[tr.ID] = &assignState{observed: true, lastFreq: freq}
		}
	}

	// Absence bookkeeping. The forgetting check runs before the increment,
	// matching counters accumulated up to the previous step.
	primSteps := as.cfg.PrimTimeToleranceMin * as.dpm
	for id, st := range as.state {
		if float64(st.absentRun) >= primSteps {
			st.observed = false
		}
		if !as.arena.Get(id).Samples[step].Valid {
			st.absentRun++
		}
	}
}

// Prune removes trajectories with fewer than MinTrajectorySamples valid
// samples so far, bounding memory during long assignments. It returns the
// number of trajectories removed.
func (as *Assigner) Prune() int {
	removed := 0
	for _, tr := range as.arena.Live() {
		if tr.ValidCount() < as.cfg.MinTrajectorySamples {
			as.arena.Remove(tr.ID)
			delete(as.state, tr.ID)
			removed++
		}
	}
	return removed
}

// AssignTrajectories runs first-level sorting over the full candidate
// sequence. Every CleanupIntervalMin minutes of elapsed recording (and once
// at the end) short-lived trajectories are pruned. The context is checked
// between timesteps: on cancellation the trajectories assigned so far are
// returned together with ctx.Err(), forming a valid prefix result.
func AssignTrajectories(ctx context.Context, axis TimeAxis, candidates [][]float64, cfg Config) (*Arena, error) {
	as := NewAssigner(len(axis), axis.Dt(), cfg)

	cleanupEvery := units.MinutesToSteps(cfg.CleanupIntervalMin, axis.Dt())
	nextCleanup := cleanupEvery

	for step, cands := range candidates {
		if err := ctx.Err(); err != nil {
			return as.arena, err
		}
		if cleanupEvery > 0 && step == nextCleanup {
			if n := as.Prune(); n > 0 {
				monitoring.Logf("assigner: pruned %d short trajectories at step %d", n, step)
			}
			nextCleanup += cleanupEvery
		}
		as.Step(step, cands)
	}
	as.Prune()

	return as.arena, nil
}
