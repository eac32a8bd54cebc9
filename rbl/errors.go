package rbl

import "fmt"

// ParseError indicates that the bytes at a candidate offset are not a
// well-formed RBL header.
type ParseError struct {
	// Offset is the candidate header offset in the dump
	Offset int

	// Reason describes what is inconsistent
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rbl container at 0x%X: %s", e.Offset, e.Reason)
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	_, ok := err.(*ParseError)
	return ok
}
