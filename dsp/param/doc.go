// Package param describes the reverse-gate parameters and carries their
// values from a control thread to the audio thread.
//
// The control side (host automation, UI, MIDI) calls Bank.Set whenever a
// value changes. The audio side calls Bank.Snapshot once at the start of
// every block and applies only the values that changed since the previous
// snapshot. Each parameter lives in its own Slot, a single atomic word plus
// a sequence counter, so neither side ever blocks and several control
// updates between two blocks coalesce into the latest value.
package param
