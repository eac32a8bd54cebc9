package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-bk7231/layout"
)

func TestResolveOutput(t *testing.T) {
	cwd := filepath.Join(string(filepath.Separator), "work")

	tests := []struct {
		name    string
		dir     string
		extract bool
		want    output
	}{
		{"default", "", false, output{dir: cwd}},
		{"default extract", "", true, output{dir: cwd, extract: true}},
		{"other dir", "out", false, output{dir: "out", extract: true, implied: true}},
		{"other dir extract", "out", true, output{dir: "out", extract: true}},
		{"cwd spelled out", cwd + string(filepath.Separator), false, output{dir: cwd + string(filepath.Separator)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveOutput(tt.dir, cwd, tt.extract))
		})
	}
}

func TestPrintLayouts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printLayouts(&buf, layout.NewRegistry()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "ota_1 (default)", lines[0])
	assert.Contains(t, lines[1], "bootloader")
	assert.Contains(t, lines[1], "68 KiB")
	assert.Contains(t, lines[1], "code")
	assert.Contains(t, lines[3], "download")
	assert.Contains(t, lines[3], "data")
	assert.Equal(t, "ota_2", lines[4])
}

func TestLoadRegistry(t *testing.T) {
	r, err := loadRegistry("")
	require.NoError(t, err)
	assert.Equal(t, []string{"ota_1", "ota_2"}, r.Names())

	path := filepath.Join(t.TempDir(), "layouts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`layouts:
  tiny:
    partitions:
      - name: app
        start: 0x0
        size: 0x1000
        mapped: 0x0
        code: true
`), 0o644))

	r, err = loadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ota_1", "ota_2", "tiny"}, r.Names())

	_, err = loadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseInto(t *testing.T) {
	closeErr := errors.New("munmap failed")
	failing := closerFunc(func() error { return closeErr })

	t.Run("close error is returned", func(t *testing.T) {
		var err error
		closeInto(failing, &err)
		require.Error(t, err)
		assert.Equal(t, closeErr, errors.Cause(err))
		assert.Equal(t, "close dump: munmap failed", err.Error())
	})

	t.Run("earlier error wins", func(t *testing.T) {
		runErr := errors.New("dissect failed")
		err := runErr
		closeInto(failing, &err)
		assert.Equal(t, runErr, err)
	})

	t.Run("clean close", func(t *testing.T) {
		var err error
		closeInto(closerFunc(func() error { return nil }), &err)
		assert.NoError(t, err)
	})
}
