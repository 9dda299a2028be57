package emit

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/serpent-go/boulder/pkg/bucket"
	"github.com/serpent-go/boulder/pkg/recipe"
)

// Result is what Emit produced: the .stone filenames written plus the
// two manifest filenames (spec.md §4.8).
type Result struct {
	PackageFiles       []string
	BinaryManifestFile string
	YAMLManifestFile   string
}

// Emit runs the full emitter stage for one architecture's bucket set:
// one .stone per non-empty bucket, plus the binary and human-readable
// build manifests (spec.md §4.8). Orphaned paths are the caller's
// concern (logged, per §4.7) and are not passed here.
func Emit(outDir string, r *recipe.Recipe, arch string, buckets map[string]*bucket.Bucket) (Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, err
	}

	allProviders := AllProviders(buckets)
	buildDeps := append([]string(nil), r.BuildDeps...)
	buildDeps = append(buildDeps, r.CheckDeps...)

	names := make([]string, 0, len(buckets))
	for name, b := range buckets {
		if len(b.Paths) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var result Result
	var packages []Package
	for _, name := range names {
		b := buckets[name]
		p := NewPackage(r, arch, b)
		deps := ScrubSelfDeps(p, allProviders)

		filename, err := EmitPackage(outDir, p, deps)
		if err != nil {
			return result, err
		}
		result.PackageFiles = append(result.PackageFiles, filename)
		packages = append(packages, p)
	}

	binFile, err := EmitBinaryManifest(outDir, arch, packages, buildDeps)
	if err != nil {
		return result, err
	}
	result.BinaryManifestFile = binFile

	manifest := NewManifest(r.Name, r.Version, r.Release, packages, buildDeps)
	yamlBytes, err := RenderManifestYAML(manifest)
	if err != nil {
		return result, err
	}
	yamlFile := "manifest." + arch + ".yaml"
	if err := os.WriteFile(filepath.Join(outDir, yamlFile), yamlBytes, 0o644); err != nil {
		return result, err
	}
	result.YAMLManifestFile = yamlFile

	return result, nil
}
