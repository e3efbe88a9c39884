// Package pipeline provides orchestration for the frequency-trajectory
// tracking pipeline.
//
// It sequences the stages of internal/tracker (assignment, occurrence
// filter, rise detection, splitting, merging) into a coherent batch run
// per recording, with validation up front and optional persistence of the
// first-level sort. The pipeline does not own domain logic — it delegates
// to the tracker package.
package pipeline
