package scan

import "fmt"

// EndOfPartitionNotFoundError indicates that a partition holds no erased
// padding to anchor the scan on.
type EndOfPartitionNotFoundError struct {
	Partition string
}

func (e *EndOfPartitionNotFoundError) Error() string {
	return fmt.Sprintf("could not find end of partition %s", e.Partition)
}

// ChecksumMismatchError indicates that the first CRC-16 unit of the scanned
// region is invalid, which means the scan boundary is wrong rather than the
// data having ended.
type ChecksumMismatchError struct {
	Partition string
	Unit      int
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("block CRC-16 check failed at unit %d while analyzing partition %s", e.Unit, e.Partition)
}
