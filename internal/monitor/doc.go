// Package monitor renders tracking results for visual inspection: a PNG
// frequency-over-time plot of all trajectories with rise markers, and a
// standalone interactive HTML report.
package monitor
