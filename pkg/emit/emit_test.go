package emit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpent-go/boulder/pkg/bucket"
	"github.com/serpent-go/boulder/pkg/capability"
	"github.com/serpent-go/boulder/pkg/collect"
	"github.com/serpent-go/boulder/pkg/recipe"
	"github.com/serpent-go/boulder/pkg/stone"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestEmitPackageWritesReadableStone(t *testing.T) {
	tmp := t.TempDir()
	hostFile := writeTempFile(t, tmp, "hello", "hello world")

	b := &bucket.Bucket{
		Name:    "hello",
		Summary: "a greeting",
		Paths: []collect.PathInfo{
			{
				HostPath:   hostFile,
				TargetPath: "bin/hello",
				UnderUsr:   true,
				Size:       int64(len("hello world")),
				Layout: collect.Layout{
					Kind: collect.EntryRegular,
					Mode: 0o100755,
				},
			},
		},
	}
	b.Providers.Insert(capability.Capability{Kind: capability.Binary, Name: "hello"})

	r := &recipe.Recipe{Name: "hello", Version: "1.0", Release: 1, Homepage: "https://example.org", Licenses: []string{"MIT"}}
	p := NewPackage(r, "x86_64", b)

	outDir := filepath.Join(tmp, "out")
	filename, err := EmitPackage(outDir, p, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello-1.0-1-1-x86_64.stone", filename)

	f, err := os.Open(filepath.Join(outDir, filename))
	require.NoError(t, err)
	defer f.Close()

	reader, err := stone.Read(f)
	require.NoError(t, err)
	assert.Equal(t, stone.FileTypeBinary, reader.Header.FileType)

	metaPayload, ok := reader.Find(stone.PayloadMeta)
	require.True(t, ok)
	metaRecs, err := reader.DecodeMeta()
	require.NoError(t, err)
	_ = metaPayload

	var sawName, sawProvider bool
	for _, rec := range metaRecs {
		if rec.Tag == stone.TagName {
			assert.Equal(t, "hello", rec.String)
			sawName = true
		}
		if rec.Tag == stone.TagProvider {
			assert.Equal(t, "hello", rec.Dep.Name)
			sawProvider = true
		}
	}
	assert.True(t, sawName)
	assert.True(t, sawProvider)

	layoutRecs, err := reader.DecodeLayout()
	require.NoError(t, err)
	require.Len(t, layoutRecs, 1)
	assert.Equal(t, "bin/hello", layoutRecs[0].Target)

	var buf bytes.Buffer
	require.NoError(t, reader.ExtractContent(&buf))
	assert.Equal(t, "hello world", buf.String())
}

func TestScrubSelfDepsRemovesSatisfiedDependency(t *testing.T) {
	b := &bucket.Bucket{Name: "hello"}
	b.Dependencies.Insert(capability.Capability{Kind: capability.SharedLibrary, Name: "libfoo.so.1(x86_64)"})
	b.Dependencies.Insert(capability.Capability{Kind: capability.Binary, Name: "unrelated"})

	p := Package{Name: "hello", Bucket: b}
	allProviders := []capability.Capability{
		{Kind: capability.SharedLibrary, Name: "libfoo.so.1(x86_64)"},
	}

	deps := ScrubSelfDeps(p, allProviders)
	require.Len(t, deps, 1)
	assert.Equal(t, "unrelated", deps[0].Name)
}

func TestNewManifestBuildsDependsAndFiles(t *testing.T) {
	b := &bucket.Bucket{
		Name:    "hello",
		RunDeps: []string{"glibc"},
		Paths: []collect.PathInfo{
			{TargetPath: "bin/hello"},
		},
	}
	b.Providers.Insert(capability.Capability{Kind: capability.Binary, Name: "hello"})
	b.Dependencies.Insert(capability.Capability{Kind: capability.SharedLibrary, Name: "libc.so.6(x86_64)"})

	p := Package{Name: "hello", Bucket: b}
	m := NewManifest("hello", "1.0", 1, []Package{p}, []string{"gcc"})

	assert.Equal(t, "0.2", m.ManifestVersion)
	pkg, ok := m.Packages["hello"]
	require.True(t, ok)
	assert.Contains(t, pkg.Depends, "glibc")
	assert.Contains(t, pkg.Depends, "shared-library(libc.so.6(x86_64))")
	assert.Contains(t, pkg.Provides, "binary(hello)")
	assert.Equal(t, []string{"/usr/bin/hello"}, pkg.Files)
	assert.Equal(t, []string{"gcc"}, pkg.BuildDepends)
}

