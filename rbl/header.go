package rbl

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"strings"

	"github.com/pkg/errors"
)

// Header field layout.
const (
	// HeaderSize is the size of an RBL header in bytes
	HeaderSize = 0x60

	// NameSize is the size of the name field
	NameSize = 16

	// VersionSize is the size of the version field
	VersionSize = 24

	// SerialSize is the size of the serial number field
	SerialSize = 24

	offsetAlgorithm   = 4
	offsetTimestamp   = 8
	offsetName        = 12
	offsetVersion     = offsetName + NameSize
	offsetSerial      = offsetVersion + VersionSize
	offsetCRC32       = offsetSerial + SerialSize
	offsetHash        = offsetCRC32 + 4
	offsetRawSize     = offsetHash + 4
	offsetPackageSize = offsetRawSize + 4
	offsetInfoCRC32   = offsetPackageSize + 4
)

// Magic marks the start of an RBL header.
var Magic = []byte("RBL\x00")

// Algorithm is the encoding of an RBL payload: a crypt algorithm in the low
// byte and a compression algorithm in the second byte.
type Algorithm uint32

// Crypt algorithms.
const (
	CryptNone   Algorithm = 0x0000
	CryptXOR    Algorithm = 0x0001
	CryptAES256 Algorithm = 0x0002
)

// Compression algorithms.
const (
	CompressNone    Algorithm = 0x0000
	CompressGzip    Algorithm = 0x0100
	CompressQuickLZ Algorithm = 0x0200
	CompressFastLZ  Algorithm = 0x0300
)

const (
	cryptMask    Algorithm = 0x00FF
	compressMask Algorithm = 0xFF00
)

// Crypt returns the crypt part of a.
func (a Algorithm) Crypt() Algorithm { return a & cryptMask }

// Compression returns the compression part of a.
func (a Algorithm) Compression() Algorithm { return a & compressMask }

// Known reports whether a combines a known crypt and compression algorithm.
func (a Algorithm) Known() bool {
	return a&^(cryptMask|compressMask) == 0 &&
		a.Crypt() <= CryptAES256 &&
		a.Compression() <= CompressFastLZ
}

func (a Algorithm) String() string {
	if !a.Known() {
		return "UNKNOWN"
	}

	var parts []string
	switch a.Crypt() {
	case CryptXOR:
		parts = append(parts, "XOR")
	case CryptAES256:
		parts = append(parts, "AES256")
	}
	switch a.Compression() {
	case CompressGzip:
		parts = append(parts, "GZIP")
	case CompressQuickLZ:
		parts = append(parts, "QUICKLZ")
	case CompressFastLZ:
		parts = append(parts, "FASTLZ")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "+")
}

// Header is a parsed RBL header.
type Header struct {
	// Algorithm is the payload encoding
	Algorithm Algorithm

	// Timestamp is the build time in seconds since the epoch
	Timestamp uint32

	// Name is the name of the partition the payload belongs to
	Name string

	// Version is the firmware version string
	Version string

	// SerialNumber is the product serial number string
	SerialNumber string

	// CRC32 is the CRC-32 of the package bytes
	CRC32 uint32

	// Hash is the hash of the raw (decoded) firmware
	Hash uint32

	// RawSize is the size of the decoded firmware
	RawSize uint32

	// PackageSize is the size of the payload as stored
	PackageSize uint32

	// InfoCRC32 is the CRC-32 over the preceding header bytes
	InfoCRC32 uint32
}

// ParseHeader decodes an RBL header from the first HeaderSize bytes of b.
// It checks the magic, the algorithm, the name and the header CRC; it does not
// look at the payload.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, errors.Errorf("truncated header: got %d bytes, expected %d", len(b), HeaderSize)
	}
	b = b[:HeaderSize]

	if !bytes.Equal(b[:len(Magic)], Magic) {
		return nil, errors.Errorf("invalid magic % X", b[:len(Magic)])
	}

	h := &Header{
		Algorithm:    Algorithm(binary.LittleEndian.Uint32(b[offsetAlgorithm:])),
		Timestamp:    binary.LittleEndian.Uint32(b[offsetTimestamp:]),
		Name:         cString(b[offsetName : offsetName+NameSize]),
		Version:      cString(b[offsetVersion : offsetVersion+VersionSize]),
		SerialNumber: cString(b[offsetSerial : offsetSerial+SerialSize]),
		CRC32:        binary.LittleEndian.Uint32(b[offsetCRC32:]),
		Hash:         binary.LittleEndian.Uint32(b[offsetHash:]),
		RawSize:      binary.LittleEndian.Uint32(b[offsetRawSize:]),
		PackageSize:  binary.LittleEndian.Uint32(b[offsetPackageSize:]),
		InfoCRC32:    binary.LittleEndian.Uint32(b[offsetInfoCRC32:]),
	}

	if !h.Algorithm.Known() {
		return nil, errors.Errorf("unknown encoding algorithm 0x%08X", uint32(h.Algorithm))
	}

	if h.Name == "" || !printable(h.Name) {
		return nil, errors.Errorf("invalid container name %q", h.Name)
	}

	if !printable(h.Version) {
		return nil, errors.Errorf("invalid container version %q", h.Version)
	}

	if crc := crc32.ChecksumIEEE(b[:offsetInfoCRC32]); crc != h.InfoCRC32 {
		return nil, errors.Errorf("header checksum mismatch: got 0x%08X, expected 0x%08X", h.InfoCRC32, crc)
	}

	return h, nil
}

// MarshalBinary encodes h, computing InfoCRC32 from the other fields.
// The stored InfoCRC32 of h is ignored.
func (h *Header) MarshalBinary() ([]byte, error) {
	if len(h.Name) > NameSize {
		return nil, errors.Errorf("name %q longer than %d bytes", h.Name, NameSize)
	}
	if len(h.Version) > VersionSize {
		return nil, errors.Errorf("version %q longer than %d bytes", h.Version, VersionSize)
	}
	if len(h.SerialNumber) > SerialSize {
		return nil, errors.Errorf("serial number %q longer than %d bytes", h.SerialNumber, SerialSize)
	}

	b := make([]byte, HeaderSize)
	copy(b, Magic)
	binary.LittleEndian.PutUint32(b[offsetAlgorithm:], uint32(h.Algorithm))
	binary.LittleEndian.PutUint32(b[offsetTimestamp:], h.Timestamp)
	copy(b[offsetName:], h.Name)
	copy(b[offsetVersion:], h.Version)
	copy(b[offsetSerial:], h.SerialNumber)
	binary.LittleEndian.PutUint32(b[offsetCRC32:], h.CRC32)
	binary.LittleEndian.PutUint32(b[offsetHash:], h.Hash)
	binary.LittleEndian.PutUint32(b[offsetRawSize:], h.RawSize)
	binary.LittleEndian.PutUint32(b[offsetPackageSize:], h.PackageSize)
	binary.LittleEndian.PutUint32(b[offsetInfoCRC32:], crc32.ChecksumIEEE(b[:offsetInfoCRC32]))

	return b, nil
}

// cString returns the bytes of b up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}
