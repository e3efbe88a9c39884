package tracker

import (
	"container/heap"
	"math"
	"sort"

	"github.com/jfsehuanes/thunderfish/internal/units"
)

// mergeEdge is one cost-matrix entry: merging trajectory row into the
// earlier trajectory col. ver detects stale heap copies after a redirect.
type mergeEdge struct {
	row  int
	col  int
	cost float64
	ver  int
}

type edgeHeap []mergeEdge

func (h edgeHeap) Len() int           { return len(h) }
func (h edgeHeap) Less(i, j int) bool { return h[i].cost < h[j].cost }
func (h edgeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x any)        { *h = append(*h, x.(mergeEdge)) }
func (h *edgeHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// MergeTrajectories re-attaches fragments that likely belong to the same
// physical source. It builds a cost matrix keeping, for each trajectory,
// the cheapest earlier-occurring candidate it could merge into, then
// greedily resolves the matrix lowest cost first. Resolution copies the
// later fragment's samples and rises into the earlier one, redirects
// matrix rows that pointed at the absorbed fragment, and repeats until no
// entry remains. Trajectories left fully empty are removed from the
// arena. It returns the number of merges performed.
//
// Instead of rescanning the whole matrix for its minimum on every
// iteration, the entries live in a min-heap; a per-row version counter
// lazily invalidates heap copies that a redirect has superseded.
func MergeTrajectories(arena *Arena, dt float64, cfg Config) int {
	dpm := units.StepsPerMinute(dt)
	maxGapSteps := cfg.MaxTimeToleranceMin * dpm

	live := arena.Live()
	order := make([]*Trajectory, len(live))
	copy(order, live)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].FirstValid() < order[j].FirstValid()
	})

	best := make(map[int]mergeEdge)
	ver := make(map[int]int)

	for a := len(order) - 1; a >= 0; a-- {
		tr := order[a]
		firstA := tr.FirstValid()

		for b := a - 1; b >= 0; b-- {
			comp := order[b]
			firstB, lastB := comp.FirstValid(), comp.LastValid()

			var ci, cj int
			switch {
			case firstA > firstB && firstA < lastB:
				// A starts inside B's active span.
				ci = compareIndex(tr, firstA)
				cj = lastValidBefore(comp, ci)
				if cj < 0 {
					continue
				}
			case firstA > lastB && float64(firstA-lastB) < maxGapSteps:
				// A starts after B ended, within the time tolerance.
				ci = compareIndex(tr, firstA)
				cj = lastB
			default:
				continue
			}

			diff := math.Abs(tr.Samples[ci].Freq - comp.Samples[cj].Freq)
			if diff > cfg.FrequencyThreshold {
				continue
			}
			if tr.OverlapCount(comp) > cfg.MaxOverlapSamples {
				continue
			}

			cost := diff + cfg.MergeTimeWeight*units.StepsToMinutes(ci-cj, dt)
			if e, ok := best[tr.ID]; !ok || cost < e.cost {
				best[tr.ID] = mergeEdge{row: tr.ID, col: comp.ID, cost: cost, ver: ver[tr.ID]}
			}
		}
	}

	h := make(edgeHeap, 0, len(best))
	for _, e := range best {
		h = append(h, e)
	}
	heap.Init(&h)

	merged := 0
	for h.Len() > 0 {
		e := heap.Pop(&h).(mergeEdge)
		cur, ok := best[e.row]
		if !ok || cur != e {
			continue // superseded by a redirect or a cleared row
		}
		src := arena.Get(e.row)
		dst := arena.Get(e.col)

		// Earlier merges may have grown either side past the overlap cap.
		if src.OverlapCount(dst) > cfg.MaxOverlapSamples {
			delete(best, e.row)
			ver[e.row]++
			continue
		}

		for i, s := range src.Samples {
			if s.Valid {
				dst.Samples[i] = s
			}
		}
		src.ClearFrom(0)
		dst.Rises = append(dst.Rises, src.Rises...)
		src.Rises = nil
		merged++

		delete(best, e.row)
		ver[e.row]++
		for row, re := range best {
			if re.col != e.row {
				continue
			}
			ver[row]++
			re.col = e.col
			re.ver = ver[row]
			best[row] = re
			heap.Push(&h, re)
		}
	}

	sortRises(arena)
	for _, t := range arena.Live() {
		if t.ValidCount() == 0 {
			arena.Remove(t.ID)
		}
	}
	return merged
}

// compareIndex returns the index whose frequency represents the start of
// tr for merge comparison. When tr opens with a rise the settled
// post-excursion value is used instead of the raw excursion height.
func compareIndex(tr *Trajectory, first int) int {
	for _, r := range tr.Rises {
		if r.Start == first {
			return r.End
		}
	}
	return first
}

// lastValidBefore returns the index of the last measured sample of tr
// strictly before idx, or -1.
func lastValidBefore(tr *Trajectory, idx int) int {
	for i := idx - 1; i >= 0; i-- {
		if tr.Samples[i].Valid {
			return i
		}
	}
	return -1
}

// sortRises restores start-index order for rise lists that merging
// concatenated out of order.
func sortRises(arena *Arena) {
	for _, t := range arena.Live() {
		sort.Slice(t.Rises, func(i, j int) bool { return t.Rises[i].Start < t.Rises[j].Start })
	}
}
