package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		partitions []Partition
		errMsg     string
	}{
		{
			name: "valid",
			partitions: []Partition{
				{Name: "a", StartAddress: 0x0000, Size: 0x1000},
				{Name: "b", StartAddress: 0x1000, Size: 0x1000},
			},
		},
		{
			name: "duplicate name",
			partitions: []Partition{
				{Name: "a", StartAddress: 0x0000, Size: 0x1000},
				{Name: "a", StartAddress: 0x1000, Size: 0x1000},
			},
			errMsg: "duplicate partition",
		},
		{
			name: "overlap",
			partitions: []Partition{
				{Name: "a", StartAddress: 0x0000, Size: 0x1000},
				{Name: "b", StartAddress: 0x0FFF, Size: 0x1000},
			},
			errMsg: "overlaps",
		},
		{
			name:       "missing name",
			partitions: []Partition{{StartAddress: 0x1000, Size: 0x10}},
			errMsg:     "has no name",
		},
		{
			name:       "past address space",
			partitions: []Partition{{Name: "a", StartAddress: 0xFFFFF000, Size: 0x2000}},
			errMsg:     "32-bit address space",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New("test", tt.partitions...)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test", l.Name())
		})
	}
}

func TestLayoutKeepsDeclaredOrder(t *testing.T) {
	l := MustNew("order",
		Partition{Name: "zeta", StartAddress: 0x2000, Size: 0x100},
		Partition{Name: "alpha", StartAddress: 0x0000, Size: 0x100},
		Partition{Name: "mid", StartAddress: 0x1000, Size: 0x100},
	)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, l.Names())

	parts := l.Partitions()
	parts[0].Name = "mutated"
	assert.Equal(t, "zeta", l.Names()[0], "Partitions must return a copy")
}

func TestLookup(t *testing.T) {
	l, err := Get(DefaultLayout)
	require.NoError(t, err)

	app, err := l.Lookup("app")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11000), app.StartAddress)
	assert.Equal(t, uint32(0x10000), app.MappedAddress)
	assert.True(t, app.Code)

	_, err = l.Lookup("nvram")
	var notFound *PartitionNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nvram", notFound.Partition)
	assert.Equal(t, DefaultLayout, notFound.Layout)
}

func TestContaining(t *testing.T) {
	l, err := Get("ota_2")
	require.NoError(t, err)

	p, ok := l.Containing(0x11000)
	require.True(t, ok)
	assert.Equal(t, "app", p.Name)

	p, ok = l.Containing(0x10FFF)
	require.True(t, ok)
	assert.Equal(t, "bootloader", p.Name)

	_, ok = l.Containing(0x200000)
	assert.False(t, ok)
}

// Mapped addresses of code partitions strip the CRC-16 overhead of the
// 34-byte units from the physical address.
func TestBuiltinMappedAddresses(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		l, err := r.Get(name)
		require.NoError(t, err)
		for _, p := range l.Partitions() {
			if !p.Code {
				continue
			}
			assert.Equal(t, uint64(p.StartAddress)*32/34, uint64(p.MappedAddress), "%s/%s", name, p.Name)
		}
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	_, err := NewRegistry().Get("ota_9")
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Contains(t, err.Error(), "ota_1")
}

func TestRegistryLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layouts.yaml")
	content := `layouts:
  tiny:
    partitions:
      - name: boot
        start: 0x0
        size: 0x1000
        mapped: 0x0
        code: true
      - name: app
        start: "0x1100"
        size: 4096
        mapped: 0x1000
        code: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewRegistry()
	require.NoError(t, r.Load(path))

	l, err := r.Get("tiny")
	require.NoError(t, err)
	assert.Equal(t, []string{"boot", "app"}, l.Names())

	app, err := l.Lookup("app")
	require.NoError(t, err)
	assert.Equal(t, Partition{Name: "app", StartAddress: 0x1100, Size: 0x1000, MappedAddress: 0x1000, Code: true}, app)

	// built-ins stay registered
	_, err = r.Get(DefaultLayout)
	assert.NoError(t, err)
}

func TestRegistryLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		err := NewRegistry().Load(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad address", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		content := "layouts:\n  bad:\n    partitions:\n      - name: boot\n        start: nowhere\n        size: 0x10\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		err := NewRegistry().Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid address")
	})
}
