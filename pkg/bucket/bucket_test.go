package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpent-go/boulder/pkg/collect"
	"github.com/serpent-go/boulder/pkg/recipe"
)

func samplePaths() []collect.PathInfo {
	return []collect.PathInfo{
		{TargetPath: "bin/hello"},
		{TargetPath: "lib/libfoo.so.1"},
		{TargetPath: "share/doc/hello/README"},
	}
}

func TestAssignMatchesGlobRules(t *testing.T) {
	r := &recipe.Recipe{
		Name: "hello", Version: "1.0", Release: 1,
		PackageOrder: []string{"hello", "hello-devel"},
		Packages: map[string]recipe.PackageTemplate{
			"hello": {
				Name: "%name",
				Paths: []recipe.GlobRule{
					{Pattern: "bin/*", Package: "hello"},
				},
			},
			"hello-devel": {
				Name: "%name-devel",
				Paths: []recipe.GlobRule{
					{Pattern: "lib/*.so*", Package: "hello-devel"},
				},
			},
		},
	}

	buckets, orphaned := Assign(r, samplePaths())
	require.Contains(t, buckets, "hello")
	require.Contains(t, buckets, "hello-devel")
	assert.Len(t, buckets["hello"].Paths, 1)
	assert.Len(t, buckets["hello-devel"].Paths, 1)
	assert.Len(t, orphaned, 1, "doc path matches no rule and has no catch-all")
}

func TestAssignLaterRuleWins(t *testing.T) {
	r := &recipe.Recipe{
		Name: "hello", Version: "1.0", Release: 1,
		PackageOrder: []string{"base", "override"},
		Packages: map[string]recipe.PackageTemplate{
			"base": {
				Name:  "base",
				Paths: []recipe.GlobRule{{Pattern: "bin/*", Package: "base"}},
			},
			"override": {
				Name:  "override",
				Paths: []recipe.GlobRule{{Pattern: "bin/hello", Package: "override"}},
			},
		},
	}

	buckets, _ := Assign(r, []collect.PathInfo{{TargetPath: "bin/hello"}})
	require.Contains(t, buckets, "override")
	assert.NotContains(t, buckets, "base")
}

func TestAssignCatchAllOwnsUnmatched(t *testing.T) {
	r := &recipe.Recipe{
		Name: "hello", Version: "1.0", Release: 1,
		PackageOrder: []string{"hello"},
		Packages: map[string]recipe.PackageTemplate{
			"hello": {
				Name:  "hello",
				Paths: []recipe.GlobRule{{Pattern: "*", Package: "hello"}},
			},
		},
	}

	buckets, orphaned := Assign(r, []collect.PathInfo{{TargetPath: "share/doc/hello/README"}})
	assert.Empty(t, orphaned)
	require.Contains(t, buckets, "hello")
}

func TestMergeTemplatesUnionsRunDepsAndPaths(t *testing.T) {
	r := &recipe.Recipe{
		Name: "foo", Version: "2.0", Release: 3,
		PackageOrder: []string{"t1", "t2"},
		Packages: map[string]recipe.PackageTemplate{
			"t1": {
				Name:    "foo-devel",
				RunDeps: []string{"foo"},
				Paths:   []recipe.GlobRule{{Pattern: "include/*", Package: "foo-devel"}},
			},
			"t2": {
				Name:    "foo-devel",
				RunDeps: []string{"pkgconfig"},
				Paths:   []recipe.GlobRule{{Pattern: "lib/*.a", Package: "foo-devel"}},
			},
		},
	}

	merged, _ := mergeTemplates(r, map[string]string{"name": "foo", "version": "2.0", "release": "3"})
	tmpl := merged["foo-devel"]
	require.NotNil(t, tmpl)
	assert.Equal(t, []string{"foo", "pkgconfig"}, tmpl.RunDeps)
	require.Len(t, tmpl.Paths, 2)
	assert.Equal(t, "include/*", tmpl.Paths[0].Pattern)
	assert.Equal(t, "lib/*.a", tmpl.Paths[1].Pattern)
}
