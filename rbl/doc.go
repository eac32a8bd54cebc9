// Package rbl locates and parses RBL firmware containers inside BK7231 flash
// dumps.
//
// # RBL Container Format
//
// An RBL container wraps a named firmware payload. The header is 96 bytes,
// all integers little-endian:
//
//	[Magic(4)][Algo(4)][Timestamp(4)][Name(16)][Version(24)][SN(24)]
//	[CRC32(4)][Hash(4)][SizeRaw(4)][SizePackage(4)][InfoCRC32(4)]
//
//	Magic       = "RBL\x00"
//	Algo        = crypt algorithm (low byte) | compression (second byte)
//	CRC32       = CRC-32 (IEEE) of the package bytes
//	SizePackage = length of the payload as stored
//	InfoCRC32   = CRC-32 (IEEE) of the first 92 header bytes
//
// Two placements occur in dumps:
//
//   - Trailer: an application partition stores its payload as a CRC-16
//     chain from the partition start and carries the header near its end.
//   - Standalone: an OTA image, where the payload directly follows the header.
//
// # Usage
//
// Walk every candidate header in a dump:
//
//	for off := range rbl.Offsets(data) {
//	    c, err := rbl.Parse(data, off, l)
//	    if err != nil {
//	        log.Printf("0x%x: %v", off, err)
//	        continue
//	    }
//	    fmt.Printf("%s %s %d bytes\n", c.Header.Name, c.Header.Algorithm, len(c.Payload))
//	}
//
// # Error Handling
//
// Offsets is a purely syntactic filter, so false positives are expected.
// Parse rejects them with a *ParseError. A header that parses but whose
// payload fails validation yields a Container with a nil Payload instead of
// an error.
package rbl
