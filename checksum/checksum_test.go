package checksum

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialBlock() []byte {
	block := make([]byte, BlockSize)
	for i := range block {
		block[i] = byte(i)
	}
	return block
}

func TestCRC16(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: 0xFFFF,
		},
		{
			name:     "check string",
			data:     []byte("123456789"),
			expected: 0xAEE7, // CRC-16/CMS check value
		},
		{
			name:     "erased block",
			data:     bytes.Repeat([]byte{0xFF}, BlockSize),
			expected: 0x000C,
		},
		{
			name:     "zero block",
			data:     make([]byte, BlockSize),
			expected: 0x8029,
		},
		{
			name:     "sequential block",
			data:     sequentialBlock(),
			expected: 0x259D,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CRC16(tt.data)
			if result != tt.expected {
				t.Errorf("CRC16() = 0x%04X, want 0x%04X", result, tt.expected)
			}
		})
	}
}

func TestValidateBlock(t *testing.T) {
	block := sequentialBlock()

	tests := []struct {
		name  string
		block []byte
		sum   []byte
		want  bool
	}{
		{"valid", block, []byte{0x25, 0x9D}, true},
		{"byte swapped checksum", block, []byte{0x9D, 0x25}, false},
		{"short block", block[:31], []byte{0x25, 0x9D}, false},
		{"short checksum", block, []byte{0x25}, false},
		{"erased unit", bytes.Repeat([]byte{0xFF}, BlockSize), []byte{0xFF, 0xFF}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateBlock(tt.block, tt.sum))
		})
	}
}

// CRC-16/CMS detects every single-bit error within a 34-byte unit, so no
// flip is exempt here.
func TestValidateUnitSingleBitFlips(t *testing.T) {
	unit := AppendChecksum(sequentialBlock(), sequentialBlock())
	require.True(t, ValidateUnit(unit))

	for bit := 0; bit < len(unit)*8; bit++ {
		flipped := bytes.Clone(unit)
		flipped[bit/8] ^= 1 << (bit % 8)
		if ValidateUnit(flipped) {
			t.Fatalf("unit with bit %d flipped still validates", bit)
		}
	}
}

func TestEncodeChain(t *testing.T) {
	data := bytes.Repeat([]byte{0x5A}, 40)

	chain := EncodeChain(data)
	require.Len(t, chain, 2*UnitSize)
	assert.True(t, ValidateUnit(chain[:UnitSize]))
	assert.True(t, ValidateUnit(chain[UnitSize:]))

	// The second block carries 8 data bytes and 24 pad bytes.
	assert.Equal(t, bytes.Repeat([]byte{PadByte}, 24), chain[UnitSize+8:UnitSize+BlockSize])
}

func TestDecodeChain(t *testing.T) {
	data := make([]byte, 3*BlockSize)
	for i := range data {
		data[i] = byte(i * 7)
	}
	chain := EncodeChain(data)

	t.Run("valid chain", func(t *testing.T) {
		got, bad := DecodeChain(chain)
		assert.Equal(t, -1, bad)
		assert.Equal(t, data, got)
	})

	t.Run("corrupted second unit", func(t *testing.T) {
		corrupted := bytes.Clone(chain)
		corrupted[UnitSize+BlockSize] ^= 0x01
		got, bad := DecodeChain(corrupted)
		assert.Equal(t, 1, bad)
		assert.Equal(t, data[:BlockSize], got)
	})

	t.Run("trailing partial unit", func(t *testing.T) {
		got, bad := DecodeChain(chain[:len(chain)-1])
		assert.Equal(t, 2, bad)
		assert.Equal(t, data[:2*BlockSize], got)
	})
}

func BenchmarkCRC16(b *testing.B) {
	data := sequentialBlock()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CRC16(data)
	}
}
