// Package scan recovers partition payloads from raw flash bytes when no RBL
// container describes them.
//
// The scanner relies on two properties of BK7231 flash: erased flash reads as
// 0xFF, and code is stored as a chain of 32-byte blocks each followed by a
// CRC-16. It first looks for the erased padding that ends a partition's data,
// then walks the CRC-16 chain from the partition start and keeps every block
// up to the first one that fails validation.
package scan

import (
	"github.com/moffa90/go-bk7231/checksum"
	"github.com/moffa90/go-bk7231/dump"
	"github.com/moffa90/go-bk7231/layout"
)

// ChunkSize is the granularity of the backward padding scan.
const ChunkSize = 16

// Extract runs the pattern scan over the partition called name of layout l.
// It returns a *layout.PartitionNotFoundError for unknown names and a
// *dump.OutOfRangeError when the partition reaches past the end of data.
func Extract(data []byte, l *layout.Layout, name string) ([]byte, error) {
	p, err := l.Lookup(name)
	if err != nil {
		return nil, err
	}

	window, err := dump.FromBytes("", data).Window(p.StartAddress, p.Size)
	if err != nil {
		return nil, err
	}

	return ExtractPartition(window, p)
}

// ExtractPartition runs the pattern scan over window, the raw bytes of p.
//
// Errors are *EndOfPartitionNotFoundError when the window holds no erased
// chunk, and *ChecksumMismatchError when the first unit of the candidate
// region fails validation. A failure of any later unit ends the payload.
func ExtractPartition(window []byte, p layout.Partition) ([]byte, error) {
	end := findPayloadEnd(window)
	if end < 0 {
		return nil, &EndOfPartitionNotFoundError{Partition: p.Name}
	}

	region := window[:end]
	if len(region) == 0 {
		// No padding boundary: walk the chain over the whole window.
		region = window
	}

	payload, bad := checksum.DecodeChain(region)
	if bad == 0 {
		return nil, &ChecksumMismatchError{Partition: p.Name, Unit: 0}
	}
	return payload, nil
}

// findPayloadEnd returns the length of the candidate payload region, or -1
// when no erased chunk exists.
//
// Scanning backward in 16-byte chunks from the end of the window, it first
// skips to the last erased chunk (anything after it, such as an RBL header,
// is ignored). It then continues backward to the first non-erased chunk that
// directly follows an erased one. The region ends two bytes into that chunk,
// covering the checksum stored after the erased block. If no such transition
// exists the region is empty.
func findPayloadEnd(window []byte) int {
	i := len(window) / ChunkSize * ChunkSize
	for i >= ChunkSize && !erased(window[i-ChunkSize:i]) {
		i -= ChunkSize
	}
	if i < ChunkSize {
		return -1
	}

	for ; i >= 2*ChunkSize; i -= ChunkSize {
		if !erased(window[i-ChunkSize:i]) && erased(window[i-2*ChunkSize:i-ChunkSize]) {
			return i - ChunkSize + checksum.Size
		}
	}
	return 0
}

func erased(chunk []byte) bool {
	for _, b := range chunk {
		if b != 0xFF {
			return false
		}
	}
	return true
}
