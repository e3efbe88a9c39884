package tracker

// Arena owns the trajectory collection. Entries are addressed by stable
// integer id; pruning and merging tombstone an entry instead of shifting
// the remaining ones, so ids held by rise records and the merge cost
// matrix stay valid while the collection is mutated.
type Arena struct {
	axisLen int
	entries []*Trajectory // indexed by id; nil = tombstoned
	live    int
}

// NewArena creates an empty arena for trajectories of the given length.
func NewArena(axisLen int) *Arena {
	return &Arena{axisLen: axisLen}
}

// AxisLen returns the trajectory length all entries share.
func (ar *Arena) AxisLen() int { return ar.axisLen }

// Add creates a new all-absent trajectory and returns it.
func (ar *Arena) Add() *Trajectory {
	t := &Trajectory{
		ID:      len(ar.entries),
		Samples: make([]Sample, ar.axisLen),
	}
	ar.entries = append(ar.entries, t)
	ar.live++
	return t
}

// Restore re-creates an all-absent entry under a previously allocated id,
// growing the id space as needed. If the id is already live its entry is
// returned unchanged. Used when reloading a persisted collection, where
// pruning may have left holes in the id sequence.
func (ar *Arena) Restore(id int) *Trajectory {
	for len(ar.entries) <= id {
		ar.entries = append(ar.entries, nil)
	}
	if ar.entries[id] != nil {
		return ar.entries[id]
	}
	t := &Trajectory{
		ID:      id,
		Samples: make([]Sample, ar.axisLen),
	}
	ar.entries[id] = t
	ar.live++
	return t
}

// Get returns the trajectory with the given id, or nil if it was removed
// or never existed.
func (ar *Arena) Get(id int) *Trajectory {
	if id < 0 || id >= len(ar.entries) {
		return nil
	}
	return ar.entries[id]
}

// Remove tombstones the trajectory with the given id. Removing an absent
// id is a no-op.
func (ar *Arena) Remove(id int) {
	if id < 0 || id >= len(ar.entries) || ar.entries[id] == nil {
		return
	}
	ar.entries[id] = nil
	ar.live--
}

// Len returns the number of live trajectories.
func (ar *Arena) Len() int { return ar.live }

// Live returns the live trajectories in id order. The returned slice is a
// snapshot: callers may remove entries from the arena while iterating it.
func (ar *Arena) Live() []*Trajectory {
	out := make([]*Trajectory, 0, ar.live)
	for _, t := range ar.entries {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
