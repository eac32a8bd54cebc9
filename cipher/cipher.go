// Package cipher reverses the address-keyed stream cipher BK7231 devices
// apply to code partitions.
//
// Every 32-bit little-endian word of a code partition is XORed with a
// keystream word that depends on the absolute address the word is mapped to.
// The same plaintext therefore encrypts differently at different load
// addresses, and Encrypt and Decrypt are the same operation.
//
// The word layout (little-endian words keyed on mapped address, 0xFF
// padding) is fixed by the device. The keystream itself is supplied by a
// Keystream. The default one, derived from the code partition coefficients,
// has not been checked against images encrypted by Beken's tools, so
// decrypted output is unverified until it is replaced by a port of the
// vendor keystream.
package cipher

import (
	"encoding/base64"
	"encoding/binary"
	"math/bits"
)

// Cipher constants.
const (
	// BlockSize is the granularity payloads are padded to
	BlockSize = 32

	// WordSize is the size of a keystream word
	WordSize = 4

	// PadByte fills padded payload tails (erased flash)
	PadByte = 0xFF
)

// codePartitionBlob holds the coefficients used for code partitions as four
// big-endian words.
const codePartitionBlob = "UQ+wk6PL6txZk6F+x63rAw=="

// Coefficients is a cipher coefficient set.
type Coefficients [4]uint32

// CodePartitionCoefficients is the coefficient set of code partitions.
var CodePartitionCoefficients = mustDecode(codePartitionBlob)

// CodePartition is the cipher for code partitions.
var CodePartition = New(CodePartitionCoefficients)

// DecodeCoefficients decodes a base64 blob of four big-endian words.
func DecodeCoefficients(blob string) (Coefficients, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return Coefficients{}, err
	}
	if len(raw) != 16 {
		return Coefficients{}, base64.CorruptInputError(len(raw))
	}

	var c Coefficients
	for i := range c {
		c[i] = binary.BigEndian.Uint32(raw[i*4:])
	}
	return c, nil
}

func mustDecode(blob string) Coefficients {
	c, err := DecodeCoefficients(blob)
	if err != nil {
		panic(err)
	}
	return c
}

// Keystream produces the keystream word XORed over the word mapped at addr.
// Implementations must be safe for concurrent use.
type Keystream interface {
	Word(addr uint32) uint32
}

// Cipher encrypts and decrypts code partition payloads. It is immutable and
// safe for concurrent use.
type Cipher struct {
	coef   Coefficients
	stream Keystream
}

// New returns a Cipher for the coefficient set c using the coefficient
// keystream. The all-zero and all-ones sets disable encryption.
func New(c Coefficients) *Cipher {
	if c == (Coefficients{}) || c == (Coefficients{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF}) {
		return &Cipher{coef: c}
	}
	return &Cipher{coef: c, stream: coefficientStream(c)}
}

// NewWithKeystream returns a Cipher XORing words with ks. A nil ks disables
// encryption.
func NewWithKeystream(ks Keystream) *Cipher {
	return &Cipher{stream: ks}
}

// Coefficients returns the coefficient set of the cipher, zero for ciphers
// built with NewWithKeystream.
func (c *Cipher) Coefficients() Coefficients {
	return c.coef
}

// Bypass reports whether the cipher leaves data unchanged.
func (c *Cipher) Bypass() bool {
	return c.stream == nil
}

// Pad returns a copy of payload padded with PadByte up to a multiple of
// BlockSize.
func Pad(payload []byte) []byte {
	n := (len(payload) + BlockSize - 1) / BlockSize * BlockSize
	out := make([]byte, n)
	copy(out, payload)
	for i := len(payload); i < n; i++ {
		out[i] = PadByte
	}
	return out
}

// Pad is a convenience wrapper around the package-level Pad.
func (c *Cipher) Pad(payload []byte) []byte {
	return Pad(payload)
}

// Decrypt decrypts data mapped at address addr. The output always has the
// length of data; a trailing partial word uses the low bytes of its
// keystream word.
func (c *Cipher) Decrypt(data []byte, addr uint32) []byte {
	return c.apply(data, addr)
}

// Encrypt encrypts data for address addr.
func (c *Cipher) Encrypt(data []byte, addr uint32) []byte {
	return c.apply(data, addr)
}

func (c *Cipher) apply(data []byte, addr uint32) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	if c.stream == nil {
		return out
	}

	var key [WordSize]byte
	for off := 0; off < len(out); off += WordSize {
		binary.LittleEndian.PutUint32(key[:], c.stream.Word(addr+uint32(off)))
		for i := 0; i < WordSize && off+i < len(out); i++ {
			out[off+i] ^= key[i]
		}
	}
	return out
}

// coefficientStream mixes two address-seeded LFSRs, an xorshift of the
// rotated address and the fourth coefficient.
//
// TODO: replace with a port of the Beken encrypt_crc keystream (pn15, pn16
// and pn32 address-bit selection driven by the coefficients) and pin its
// output with vectors produced by that tool.
type coefficientStream Coefficients

func (s coefficientStream) Word(addr uint32) uint32 {
	p15 := pn15(s[0], addr)
	p16 := pn16(s[1], addr)
	p32 := pn32(s[2], addr)
	return (p15<<16 | p16) ^ p32 ^ s[3]
}

// pn15 steps a 15-bit Fibonacci LFSR (x^15 + x^14 + 1) seeded from the word
// index.
func pn15(seed, addr uint32) uint32 {
	x := (seed ^ addr>>2) & 0x7FFF
	for i := 0; i < 8; i++ {
		bit := (x>>14 ^ x>>13) & 1
		x = (x<<1 | bit) & 0x7FFF
	}
	return x
}

// pn16 steps a 16-bit Galois LFSR (taps 0xB400) seeded from the block index.
func pn16(seed, addr uint32) uint32 {
	x := (seed ^ addr>>5) & 0xFFFF
	for i := 0; i < 8; i++ {
		lsb := x & 1
		x >>= 1
		if lsb != 0 {
			x ^= 0xB400
		}
	}
	return x
}

// pn32 runs one xorshift32 round over the rotated address.
func pn32(seed, addr uint32) uint32 {
	x := seed ^ bits.RotateLeft32(addr, int(seed&31))
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return x
}
