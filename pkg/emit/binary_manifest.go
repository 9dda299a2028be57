package emit

import (
	"os"
	"path/filepath"

	"github.com/go-errors/errors"

	"github.com/serpent-go/boulder/pkg/capability"
	"github.com/serpent-go/boulder/pkg/stone"
)

// EmitBinaryManifest writes a single stone archive of FileType
// BuildManifest containing one Meta payload per package: build_release
// is deliberately overridden to 0 so manifests stay reproducible across
// rebuilds, and each payload additionally carries one TagBuildDepends
// record per build dependency (spec.md §4.8 "In parallel, emit a build
// manifest ... in binary form").
func EmitBinaryManifest(outDir, arch string, pkgs []Package, buildDeps []string) (string, error) {
	filename := "manifest." + arch + ".bin"
	outPath := filepath.Join(outDir, filename)

	out, err := os.Create(outPath)
	if err != nil {
		return "", errors.Errorf("emit: create %s: %w", outPath, err)
	}
	defer out.Close()

	w := stone.NewWriter(stone.FileTypeBuildManifest)

	for _, p := range pkgs {
		p.BuildRelease = 0
		recs := p.metaRecords(p.Bucket.Dependencies.Sorted(), p.Bucket.Providers.Sorted())
		for _, dep := range buildDeps {
			recs = append(recs, stone.MetaRecord{
				Tag:  stone.TagBuildDepends,
				Kind: stone.MetaDependency,
				Dep:  capability.Capability{Kind: capability.PackageName, Name: dep},
			})
		}
		if err := w.AddMeta(recs); err != nil {
			return "", err
		}
	}

	if err := w.Finalize(out); err != nil {
		return "", errors.Errorf("emit: finalize %s: %w", outPath, err)
	}
	return filename, nil
}
