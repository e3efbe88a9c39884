// Package sqlite persists tracking artifacts per recording: the time
// axis, the trajectory table at a named stage, and the rise structure.
// The three artifacts load independently, so a run can resume from a
// saved first-level sort without redoing extraction and assignment.
package sqlite
