// Package dump gives read-only access to flash dump images.
//
// Dumps are memory-mapped rather than read into memory. File offsets and
// flash addresses coincide, so a partition is addressed by its absolute
// start address.
package dump

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/tysonmote/gommap"
)

// Image is an immutable flash dump.
type Image struct {
	path string
	data []byte
	mmap gommap.MMap
	file *os.File
}

// Open memory-maps the dump at path. The image must be closed to release the
// mapping; slices returned by Bytes and Window are invalid afterwards.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open dump failed")
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "stat dump failed")
	}

	img := &Image{path: path, file: f}
	if fi.Size() == 0 {
		return img, nil
	}

	img.mmap, err = gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_PRIVATE)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "mmap dump failed")
	}
	img.data = img.mmap
	return img, nil
}

// FromBytes wraps an in-memory dump. path is only used for naming artifacts.
func FromBytes(path string, data []byte) *Image {
	return &Image{path: path, data: data}
}

// Path returns the path the image was opened from.
func (img *Image) Path() string {
	return img.path
}

// Stem returns the file name of the dump without directory and extension.
func (img *Image) Stem() string {
	base := filepath.Base(img.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Len returns the size of the dump in bytes.
func (img *Image) Len() int {
	return len(img.data)
}

// Bytes returns the whole dump. The slice must not be modified.
func (img *Image) Bytes() []byte {
	return img.data
}

// Window returns size bytes starting at the absolute address start.
func (img *Image) Window(start, size uint32) ([]byte, error) {
	end := uint64(start) + uint64(size)
	if end > uint64(len(img.data)) {
		return nil, &OutOfRangeError{Start: start, Size: size, Len: len(img.data)}
	}
	return img.data[start:end], nil
}

// Close releases the mapping and the underlying file.
func (img *Image) Close() error {
	var err error
	if img.mmap != nil {
		err = img.mmap.UnsafeUnmap()
		img.mmap = nil
	}
	img.data = nil
	if img.file != nil {
		if cerr := img.file.Close(); err == nil {
			err = cerr
		}
		img.file = nil
	}
	return err
}

// OutOfRangeError indicates that a window reaches past the end of the dump.
type OutOfRangeError struct {
	Start uint32
	Size  uint32
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("region 0x%X+0x%X exceeds dump length 0x%X", e.Start, e.Size, e.Len)
}
