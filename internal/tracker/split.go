package tracker

// SplitAtRises cuts every trajectory at its detected rise starts so each
// excursion begins a fragment of its own. Rises are processed in reverse
// index order per trajectory, keeping earlier cut indices valid while the
// suffix is carved off. The rise record moves to the new fragment together
// with the suffix samples. Afterwards any fragment, original or new, with
// fewer than MinTrajectorySamples valid samples is pruned together with
// its rises.
//
// It returns the number of fragments created and the number of
// trajectories pruned.
func SplitAtRises(arena *Arena, cfg Config) (created, pruned int) {
	for _, t := range arena.Live() {
		for r := len(t.Rises) - 1; r >= 0; r-- {
			rise := t.Rises[r]
			frag := arena.Add()
			for i := rise.Start; i < len(t.Samples); i++ {
				frag.Samples[i] = t.Samples[i]
			}
			frag.Rises = []Rise{rise}
			t.ClearFrom(rise.Start)
			t.Rises = t.Rises[:r]
			created++
		}
	}

	for _, t := range arena.Live() {
		if t.ValidCount() < cfg.MinTrajectorySamples {
			arena.Remove(t.ID)
			pruned++
		}
	}
	return created, pruned
}
