// Package artifact names and writes recovered partition payloads.
package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	atomic_file "github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

// Tags of pattern-scan artifacts.
const (
	TagPatternScan          = "pattern_scan"
	TagPatternScanDecrypted = "pattern_scan_decrypted"

	decryptedSuffix = "_decrypted"
)

// DecryptedTag returns the tag of the decrypted variant of a container
// artifact tagged with version.
func DecryptedTag(version string) string {
	return version + decryptedSuffix
}

// Name returns the file name of an artifact:
//
//	{stem}_{partition}_{tag}.bin
//
// Path separators in partition or tag are replaced so the artifact always
// lands in the output directory.
func Name(stem, partition, tag string) string {
	return fmt.Sprintf("%s_%s_%s.bin", stem, sanitize(partition), sanitize(tag))
}

var separators = strings.NewReplacer("/", "_", "\\", "_")

func sanitize(s string) string {
	return separators.Replace(s)
}

// Writer stores artifacts.
type Writer interface {
	// WriteArtifact stores data under name and returns where it went.
	WriteArtifact(name string, data []byte) (string, error)
}

// DirWriter writes artifacts as files into a directory, creating it on
// first use. Each file is replaced atomically.
//
// Artifact names only depend on the dump file stem, so two runs over dumps
// with the same stem into the same directory overwrite each other.
type DirWriter struct {
	Dir string
}

// NewDirWriter returns a DirWriter for dir.
func NewDirWriter(dir string) *DirWriter {
	return &DirWriter{Dir: dir}
}

// WriteArtifact implements Writer.
func (w *DirWriter) WriteArtifact(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	path := filepath.Join(w.Dir, name)
	if err := atomic_file.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
