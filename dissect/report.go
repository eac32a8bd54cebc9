package dissect

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/moffa90/go-bk7231/rbl"
)

// NewReporter returns an EventCallback printing one human-readable line per
// event to w:
//
//	RBL containers:
//		0x10f9a0: app - [encoding_algorithm=NONE, size=0x10f000]
//			extracted to out
//		0x1f0000: FAILED TO PARSE - invalid magic 52 42 4C 01
//		0x200000: download - INVALID PAYLOAD
//	Missing bootloader RBL container. Using a scan pattern instead
//		0x0: bootloader - [NO RBL, size=0xf600]
//			extracted to out
//
// The returned callback is not safe for concurrent use.
func NewReporter(w io.Writer) EventCallback {
	headerDone := false
	header := func() {
		if !headerDone {
			fmt.Fprintln(w, "RBL containers:")
			headerDone = true
		}
	}

	return func(e Event) {
		switch e.Kind {
		case EventContainerFound:
			header()
			fmt.Fprintf(w, "\t0x%x: %s - [encoding_algorithm=%s, size=0x%x]\n", e.Offset, e.Partition, e.Algorithm, e.Size)
		case EventContainerRejected:
			header()
			fmt.Fprintf(w, "\t0x%x: FAILED TO PARSE - %s\n", e.Offset, reason(e.Err))
		case EventContainerInvalid:
			header()
			fmt.Fprintf(w, "\t0x%x: %s - INVALID PAYLOAD\n", e.Offset, e.Partition)
		case EventFallback:
			fmt.Fprintf(w, "Missing %s RBL container. Using a scan pattern instead\n", e.Partition)
		case EventPatternScanned:
			fmt.Fprintf(w, "\t0x%x: %s - [NO RBL, size=0x%x]\n", e.Address, e.Partition, e.Size)
		case EventExtracted:
			if len(e.Paths) > 0 {
				fmt.Fprintf(w, "\t\textracted to %s\n", filepath.Dir(e.Paths[0]))
			}
		}
	}
}

func reason(err error) string {
	var perr *rbl.ParseError
	if errors.As(err, &perr) {
		return perr.Reason
	}
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
