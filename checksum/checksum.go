// Package checksum implements the CRC-16 block integrity scheme used by the
// BK7231 bootloader.
//
// Code written to flash is split into 32-byte blocks, each followed by a
// big-endian CRC-16/CMS of the block:
//
//	[Block(32)][CRC16(2)][Block(32)][CRC16(2)]...
//
// A block and its checksum together form a 34-byte unit. Chains of units are
// validated one unit at a time.
package checksum

// Checksum algorithm constants.
const (
	// CRC16Polynomial is the CRC-16/CMS polynomial (0x8005)
	CRC16Polynomial = 0x8005

	// CRC16InitialValue is the CRC-16 initial value
	CRC16InitialValue = 0xFFFF

	// CRC16HighBitMask is the high bit mask for CRC-16 calculations
	CRC16HighBitMask = 0x8000

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// Chain layout constants.
const (
	// BlockSize is the number of data bytes covered by one checksum
	BlockSize = 32

	// Size is the size of a stored checksum in bytes
	Size = 2

	// UnitSize is the size of a block followed by its checksum
	UnitSize = BlockSize + Size

	// PadByte fills the unused tail of the last block of a chain
	PadByte = 0xFF
)

// CRC16 computes the CRC-16/CMS checksum of data.
//
// CRC-16/CMS parameters:
//   - Polynomial: CRC16Polynomial
//   - Initial value: CRC16InitialValue
//   - No input or output reflection
//   - No final XOR
func CRC16(data []byte) uint16 {
	var crc uint16 = CRC16InitialValue

	for _, b := range data {
		crc ^= uint16(b) << BitsPerByte
		for i := 0; i < BitsPerByte; i++ {
			if crc&CRC16HighBitMask != 0 {
				crc = (crc << 1) ^ CRC16Polynomial
			} else {
				crc = crc << 1
			}
		}
	}

	return crc
}

// ValidateBlock reports whether sum is the big-endian CRC-16 of block.
// A block that is not exactly BlockSize bytes, or a checksum that is not
// exactly Size bytes, never validates.
func ValidateBlock(block, sum []byte) bool {
	if len(block) != BlockSize || len(sum) != Size {
		return false
	}
	return CRC16(block) == uint16(sum[0])<<8|uint16(sum[1])
}

// ValidateUnit validates a 34-byte unit (block followed by its checksum).
func ValidateUnit(unit []byte) bool {
	if len(unit) != UnitSize {
		return false
	}
	return ValidateBlock(unit[:BlockSize], unit[BlockSize:])
}

// AppendChecksum appends the big-endian CRC-16 of block to dst.
func AppendChecksum(dst, block []byte) []byte {
	crc := CRC16(block)
	return append(dst, byte(crc>>8), byte(crc))
}

// EncodeChain splits data into 32-byte blocks and returns the checksummed
// chain. The last block is padded with PadByte.
func EncodeChain(data []byte) []byte {
	units := (len(data) + BlockSize - 1) / BlockSize
	out := make([]byte, 0, units*UnitSize)

	block := make([]byte, BlockSize)
	for off := 0; off < len(data); off += BlockSize {
		n := copy(block, data[off:])
		for i := n; i < BlockSize; i++ {
			block[i] = PadByte
		}
		out = append(out, block...)
		out = AppendChecksum(out, block)
	}

	return out
}

// DecodeChain validates every unit of chain and returns the concatenated
// blocks. It returns the index of the first unit that fails validation, or -1
// when the whole chain is valid. A trailing partial unit counts as a failure.
func DecodeChain(chain []byte) ([]byte, int) {
	out := make([]byte, 0, len(chain)/UnitSize*BlockSize)

	for i, off := 0, 0; off < len(chain); i, off = i+1, off+UnitSize {
		if len(chain)-off < UnitSize || !ValidateUnit(chain[off:off+UnitSize]) {
			return out, i
		}
		out = append(out, chain[off:off+BlockSize]...)
	}

	return out, -1
}
