// Package dissect recovers firmware partitions from BK7231 flash dumps.
//
// # Overview
//
// A Dissector works against one flash layout and runs this pipeline over a
// dump:
//   - Locating RBL container headers and parsing them
//   - Recovering container payloads
//   - Pattern scanning every partition no valid container covers
//   - Decrypting payloads of code partitions
//   - Writing raw and decrypted artifacts
//
// # Basic Usage
//
//	img, err := dump.Open("flash.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer img.Close()
//
//	l, err := layout.Get(layout.DefaultLayout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d := dissect.New(l,
//	    dissect.WithEventCallback(dissect.NewReporter(os.Stdout)),
//	    dissect.WithWriter(artifact.NewDirWriter("out")),
//	)
//	if _, err := d.Run(img); err != nil {
//	    log.Fatal(err)
//	}
//
// # Artifacts
//
// Artifacts are named {dump-stem}_{partition}_{tag}.bin. Container payloads
// use the container version as tag and <version>_decrypted for the decrypted
// variant; pattern scans use pattern_scan and pattern_scan_decrypted.
//
// # Error Handling
//
// Malformed container headers never fail a run: they are reported with
// EventContainerRejected and listed in Result.Rejected. Pattern scan errors
// abort the run. KindOf classifies them:
//   - KindPartitionNotFound: partition name missing from the layout
//   - KindEndOfPartitionNotFound: no erased padding in the partition
//   - KindChecksumMismatch: first CRC-16 unit of the partition is invalid
//   - KindOutOfRange: partition reaches past the end of the dump
//
// # Concurrency
//
// Runs are synchronous. Two runs writing dumps with the same file stem into
// the same directory overwrite each other's artifacts.
package dissect
