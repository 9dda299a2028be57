//go:build linux

package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupSubordinateRanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subuid")
	require.NoError(t, os.WriteFile(path, []byte("someoneelse:100000:65536\nbuilder:200000:65536\n"), 0o644))

	ranges, err := LookupSubordinateRanges(path, "builder")
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, 200000, ranges[0].HostStart)
	assert.Equal(t, 0, ranges[0].GuestStart)
	assert.Equal(t, 65536, ranges[0].Length)
}

func TestLookupSubordinateRangesMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subuid")
	require.NoError(t, os.WriteFile(path, []byte("someoneelse:100000:65536\n"), 0o644))

	_, err := LookupSubordinateRanges(path, "builder")
	assert.Error(t, err)
}

func TestFormatIDMap(t *testing.T) {
	ranges := []IDRange{{HostStart: 200000, GuestStart: 0, Length: 65536}}
	got := FormatIDMap(1000, ranges)
	assert.Equal(t, "0 1000 1\n1 200000 65536\n", got)
}

func TestEncodeDecodeMounts(t *testing.T) {
	mounts := []Mount{
		{Host: "/host/recipe", Guest: "/recipe", ReadOnly: true},
		{Host: "/host/build", Guest: "/build", ReadOnly: false},
	}
	encoded := encodeMounts(mounts)
	decoded := decodeMounts(encoded)
	assert.Equal(t, mounts, decoded)
}

func TestDecodeMountsEmpty(t *testing.T) {
	assert.Nil(t, decodeMounts(""))
}

func TestExecErrorMessages(t *testing.T) {
	codeErr := &ExecError{Code: 7}
	assert.Contains(t, codeErr.Error(), "7")
}
