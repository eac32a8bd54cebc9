package dissect

import (
	"github.com/pkg/errors"

	"github.com/moffa90/go-bk7231/dump"
	"github.com/moffa90/go-bk7231/layout"
	"github.com/moffa90/go-bk7231/rbl"
	"github.com/moffa90/go-bk7231/scan"
)

// Kind classifies dissection errors.
type Kind int

const (
	// KindOther covers I/O and other unexpected failures
	KindOther Kind = iota

	// KindParse is a malformed container header (never returned by Run)
	KindParse

	// KindPartitionNotFound is a partition name missing from the layout
	KindPartitionNotFound

	// KindEndOfPartitionNotFound is a partition without erased padding
	KindEndOfPartitionNotFound

	// KindChecksumMismatch is a partition whose first CRC-16 unit is invalid
	KindChecksumMismatch

	// KindOutOfRange is a partition reaching past the end of the dump
	KindOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindPartitionNotFound:
		return "partition not found"
	case KindEndOfPartitionNotFound:
		return "end of partition not found"
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindOutOfRange:
		return "out of range"
	default:
		return "other"
	}
}

// KindOf returns the kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	var (
		parseErr    *rbl.ParseError
		notFoundErr *layout.PartitionNotFoundError
		endErr      *scan.EndOfPartitionNotFoundError
		mismatchErr *scan.ChecksumMismatchError
		rangeErr    *dump.OutOfRangeError
	)

	switch {
	case err == nil:
		return KindOther
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &notFoundErr):
		return KindPartitionNotFound
	case errors.As(err, &endErr):
		return KindEndOfPartitionNotFound
	case errors.As(err, &mismatchErr):
		return KindChecksumMismatch
	case errors.As(err, &rangeErr):
		return KindOutOfRange
	default:
		return KindOther
	}
}
