// Package delay provides sample histories for tapped delay effects.
//
// A History stores past input samples in a fixed ring and addresses them by
// "samples ago": At(0) is the most recent Push, At(1) the one before it, and
// so on. Pushing is O(1) and never allocates. Growth happens only through
// EnsureCapacity, which callers run outside the audio callback whenever the
// largest reachable tap offset changes.
package delay
