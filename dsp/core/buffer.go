package core

// Zero clears buf. Processors use it to silence channels they do not
// write.
func Zero(buf []float64) {
	clear(buf)
}

// CopyInto copies the overlapping prefix of src into dst and returns its
// length.
func CopyInto(dst, src []float64) int {
	return copy(dst, src)
}
