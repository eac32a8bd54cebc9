package rbl

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/moffa90/go-bk7231/checksum"
	"github.com/moffa90/go-bk7231/layout"
)

// Placement tells where a container keeps its payload.
type Placement int

const (
	// Standalone payloads directly follow the header.
	Standalone Placement = iota

	// Trailer payloads are stored as a CRC-16 chain from the start of the
	// partition whose end region holds the header.
	Trailer
)

func (p Placement) String() string {
	switch p {
	case Standalone:
		return "standalone"
	case Trailer:
		return "trailer"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// Container is a parsed RBL container. A nil Payload means the header was
// valid but the payload could not be recovered.
type Container struct {
	// Offset is the header offset in the dump
	Offset int

	// Header is the parsed header
	Header *Header

	// Placement tells where the payload was read from
	Placement Placement

	// Payload holds the payload bytes with any CRC-16 chain stripped
	Payload []byte

	rawHeader []byte
}

// Valid reports whether the container carries a recovered payload.
func (c *Container) Valid() bool {
	return c.Payload != nil
}

// Parse parses the RBL container whose header starts at offset in data.
//
// The layout is used to recognize trailer containers: when the header's name
// is a partition of l that contains offset, the payload is read as a CRC-16
// chain from the partition start. Otherwise the payload follows the header.
// l may be nil, in which case only standalone containers are recognized.
//
// Parse returns a *ParseError when the header is malformed or declares more
// payload than is available. A payload that fails its CRC-16 chain or CRC-32
// check is dropped, leaving Payload nil.
func Parse(data []byte, offset int, l *layout.Layout) (*Container, error) {
	if offset < 0 || offset > len(data) {
		return nil, &ParseError{Offset: offset, Reason: "offset outside of stream"}
	}

	h, err := ParseHeader(data[offset:])
	if err != nil {
		return nil, &ParseError{Offset: offset, Reason: err.Error()}
	}

	c := &Container{
		Offset:    offset,
		Header:    h,
		rawHeader: bytes.Clone(data[offset : offset+HeaderSize]),
	}

	var payload []byte
	if p, ok := trailerPartition(h, offset, l); ok {
		c.Placement = Trailer
		payload, err = readTrailerPayload(data, offset, h, p)
	} else {
		c.Placement = Standalone
		payload, err = readStandalonePayload(data, offset, h)
	}
	if err != nil {
		return nil, err
	}

	if payload != nil && crc32.ChecksumIEEE(payload) == h.CRC32 {
		c.Payload = payload
	}

	return c, nil
}

func trailerPartition(h *Header, offset int, l *layout.Layout) (layout.Partition, bool) {
	if l == nil {
		return layout.Partition{}, false
	}
	p, ok := l.Partition(h.Name)
	if !ok || !p.Contains(offset) {
		return layout.Partition{}, false
	}
	return p, true
}

// readTrailerPayload returns nil without error when the chain does not validate.
func readTrailerPayload(data []byte, offset int, h *Header, p layout.Partition) ([]byte, error) {
	units := (uint64(h.PackageSize) + checksum.BlockSize - 1) / checksum.BlockSize
	start := uint64(p.StartAddress)
	end := start + units*checksum.UnitSize
	if end > uint64(offset) {
		return nil, &ParseError{
			Offset: offset,
			Reason: fmt.Sprintf("declared payload length 0x%X exceeds partition %s", h.PackageSize, p.Name),
		}
	}
	if h.PackageSize == 0 {
		return nil, nil
	}

	blocks, bad := checksum.DecodeChain(data[start:end])
	if bad >= 0 {
		return nil, nil
	}
	return blocks[:h.PackageSize], nil
}

func readStandalonePayload(data []byte, offset int, h *Header) ([]byte, error) {
	start := uint64(offset) + HeaderSize
	end := start + uint64(h.PackageSize)
	if end > uint64(len(data)) {
		return nil, &ParseError{
			Offset: offset,
			Reason: fmt.Sprintf("declared payload length 0x%X exceeds remaining stream (0x%X bytes)",
				h.PackageSize, uint64(len(data))-start),
		}
	}
	if h.PackageSize == 0 {
		return nil, nil
	}
	return bytes.Clone(data[start:end]), nil
}

// Write writes the container to w: the original header followed by the
// payload, or the payload alone when payloadOnly is set. Bytes are written
// verbatim. Writing a container without a payload writes the header only.
func (c *Container) Write(w io.Writer, payloadOnly bool) (int64, error) {
	var total int64
	if !payloadOnly {
		n, err := w.Write(c.rawHeader)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	n, err := w.Write(c.Payload)
	total += int64(n)
	return total, err
}

// Bytes returns what Write would write.
func (c *Container) Bytes(payloadOnly bool) []byte {
	var buf bytes.Buffer
	_, _ = c.Write(&buf, payloadOnly)
	return buf.Bytes()
}
