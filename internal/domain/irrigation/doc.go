// Package irrigation contains the core domain types of the irrigation
// controller: the daily Schedule window of a valve, point-in-time snapshots
// of devices and of the whole controller, and the error taxonomy surfaced to
// the command surfaces.
package irrigation
