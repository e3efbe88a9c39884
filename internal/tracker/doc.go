// Package tracker turns per-timestep fundamental-frequency candidates
// into continuous per-fish frequency trajectories.
//
// Responsibilities: greedy online candidate assignment, short-trajectory
// filtering, windowed rise (frequency excursion) detection, splitting
// trajectories at rise starts, and greedy cost-based merging of fragments
// that belong to the same fish.
// Key types: Trajectory, Rise, Arena, Config.
//
// The package is pure computation over materialized arrays. No I/O or
// database code is allowed here; persistence lives in internal/storage.
package tracker
