package collect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMkdirAll(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, mode))
	require.NoError(t, os.Chmod(path, mode))
}

func TestWalkStripsUsrPrefix(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "usr", "bin"), 0o755)
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "bin", "hello"), []byte("hi"), 0o755))

	infos, err := Walk(root)
	require.NoError(t, err)

	var found bool
	for _, pi := range infos {
		if pi.TargetPath == "bin/hello" {
			found = true
			assert.True(t, pi.UnderUsr)
			assert.Equal(t, EntryRegular, pi.Layout.Kind)
		}
	}
	assert.True(t, found, "expected bin/hello in walk results")
}

func TestWalkElidesDefaultModeDirectories(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "usr", "bin"), 0o755)
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "bin", "hello"), []byte("hi"), 0o755))

	infos, err := Walk(root)
	require.NoError(t, err)

	for _, pi := range infos {
		assert.NotEqual(t, "bin", pi.TargetPath, "default-mode non-empty directory must not be emitted")
	}
}

func TestWalkEmitsNonDefaultModeDirectory(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "usr", "lib"), 0o700)
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "lib", "x"), []byte("x"), 0o644))

	infos, err := Walk(root)
	require.NoError(t, err)

	var found bool
	for _, pi := range infos {
		if pi.TargetPath == "lib" {
			found = true
			assert.Equal(t, EntryDirectory, pi.Layout.Kind)
		}
	}
	assert.True(t, found, "non-default-mode directory must be emitted even with children")
}

func TestWalkEmitsEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "usr", "share", "empty"), 0o755)

	infos, err := Walk(root)
	require.NoError(t, err)

	var found bool
	for _, pi := range infos {
		if pi.TargetPath == "share/empty" {
			found = true
			assert.Equal(t, EntryDirectory, pi.Layout.Kind)
		}
	}
	assert.True(t, found, "empty directory must be emitted even at default mode")
}

func TestWalkRecordsSymlinkWithoutDereferencing(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "usr", "lib"), 0o755)
	require.NoError(t, os.Symlink("libfoo.so.1", filepath.Join(root, "usr", "lib", "libfoo.so")))

	infos, err := Walk(root)
	require.NoError(t, err)

	var found bool
	for _, pi := range infos {
		if pi.TargetPath == "lib/libfoo.so" {
			found = true
			assert.Equal(t, EntrySymlink, pi.Layout.Kind)
			assert.Equal(t, "libfoo.so.1", pi.Layout.Source)
		}
	}
	assert.True(t, found)
}

func TestWalkFlagsPathsOutsideUsr(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "etc"), 0o755)
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "foo.conf"), []byte("x"), 0o644))

	infos, err := Walk(root)
	require.NoError(t, err)

	var found bool
	for _, pi := range infos {
		if pi.TargetPath == "etc/foo.conf" {
			found = true
			assert.False(t, pi.UnderUsr)
		}
	}
	assert.True(t, found)
}

func TestWalkRegularFileDigestMatchesContent(t *testing.T) {
	root := t.TempDir()
	mustMkdirAll(t, filepath.Join(root, "usr", "share"), 0o755)
	content := []byte("deterministic content for hashing")
	require.NoError(t, os.WriteFile(filepath.Join(root, "usr", "share", "f"), content, 0o644))

	infos, err := Walk(root)
	require.NoError(t, err)

	var digest [16]byte
	for _, pi := range infos {
		if pi.TargetPath == "share/f" {
			digest = pi.Layout.Digest
		}
	}
	assert.NotZero(t, digest)
}
