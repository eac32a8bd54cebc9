package rbl

import (
	"bytes"
	"iter"
	"slices"
)

// Offsets yields, in ascending order, every offset of data where the RBL magic
// occurs. It does not validate what follows the magic.
func Offsets(data []byte) iter.Seq[int] {
	return func(yield func(int) bool) {
		base := 0
		for base <= len(data)-len(Magic) {
			i := bytes.Index(data[base:], Magic)
			if i < 0 {
				return
			}
			if !yield(base + i) {
				return
			}
			base += i + 1
		}
	}
}

// FindOffsets returns all offsets yielded by Offsets.
func FindOffsets(data []byte) []int {
	return slices.Collect(Offsets(data))
}
