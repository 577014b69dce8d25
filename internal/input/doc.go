// Package input turns level-sampled physical inputs (front-panel buttons on
// GPIO lines) into discrete command events. Inputs are sampled as a bitmask
// on a fixed cadence; a bit transitioning from clear to set across
// consecutive samples fires the command bound to that bit. The sampling
// cadence is the only debounce.
package input
