// Package processor runs one reverse-gate engine per audio channel behind a
// plugin-style interface.
//
// A Processor has two callers. The control side calls SetParameter (or
// SetParameterByName) whenever the host reports a parameter change; values
// are clamped to their declared range and published through lock-free
// slots. The audio side calls ProcessBlock once per host buffer; it picks up
// the latest parameter values at the start of the block and processes every
// channel in place. Prepare, SetBounds, Reset and Render must not run
// concurrently with ProcessBlock.
package processor
