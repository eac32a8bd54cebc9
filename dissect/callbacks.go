package dissect

import "github.com/moffa90/go-bk7231/rbl"

// EventKind identifies a dissection event.
type EventKind int

// Event kinds, in the order they can occur during a run.
const (
	// EventContainerFound: a container parsed with a valid payload
	EventContainerFound EventKind = iota

	// EventContainerRejected: a candidate header offset failed to parse
	EventContainerRejected

	// EventContainerInvalid: a container parsed but its payload is unusable
	EventContainerInvalid

	// EventFallback: a partition is not covered by a container and is
	// pattern scanned
	EventFallback

	// EventPatternScanned: the pattern scan recovered a payload
	EventPatternScanned

	// EventExtracted: artifacts of a payload were written
	EventExtracted
)

// Event describes a step of a dissection run. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind EventKind

	// Offset is the header offset of container events
	Offset int

	// Partition is the partition or container name
	Partition string

	// Address is the partition start address of fallback events
	Address uint32

	// Algorithm is the container encoding
	Algorithm rbl.Algorithm

	// Size is the recovered payload size
	Size int

	// Paths lists written artifacts
	Paths []string

	// Err is the parse failure of EventContainerRejected
	Err error
}

// EventCallback is called synchronously for every event.
// Implementations should return quickly.
type EventCallback func(Event)

// Logger is an optional logging interface that can be provided to the dissector.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
