// Package emit produces the final .stone package archives and build
// manifests from bucketed, analyzed build output (spec.md §4.8).
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-errors/errors"

	"github.com/serpent-go/boulder/pkg/bucket"
	"github.com/serpent-go/boulder/pkg/capability"
	"github.com/serpent-go/boulder/pkg/collect"
	"github.com/serpent-go/boulder/pkg/recipe"
	"github.com/serpent-go/boulder/pkg/stone"
)

// Package is one bucket ready for emission: its owning bucket plus the
// source-level identity fields a bucket alone doesn't carry.
type Package struct {
	Name          string
	Bucket        *bucket.Bucket
	BuildRelease  uint64 // defaults to 1 (spec.md §4.8); 0 only inside build manifests
	Architecture  string
	SourceVersion string
	SourceRelease int
	SourceID      string
	Homepage      string
	Licenses      []string
}

// Filename returns the package's canonical stone filename (spec.md
// §4.8 "produce {name}-{version}-{release}-{build_release}-{arch}.stone").
func (p Package) Filename() string {
	return fmt.Sprintf("%s-%s-%d-%d-%s.stone", p.Name, p.SourceVersion, p.SourceRelease, p.BuildRelease, p.Architecture)
}

// EmitPackage writes one non-empty bucket's .stone archive into outDir,
// returning the filename written (spec.md §4.8 steps 1-6). deps is the
// dependency list to record in the Meta payload; callers pass the
// result of ScrubSelfDeps so self-satisfying dependencies are already
// removed (spec.md §3, §8).
func EmitPackage(outDir string, p Package, deps []capability.Capability) (string, error) {
	filename := p.Filename()
	outPath := filepath.Join(outDir, filename)

	out, err := os.Create(outPath)
	if err != nil {
		return "", errors.Errorf("emit: create %s: %w", outPath, err)
	}
	defer out.Close()

	w := stone.NewWriter(stone.FileTypeBinary)

	if err := w.AddMeta(p.metaRecords(deps, p.Bucket.Providers.Sorted())); err != nil {
		return "", err
	}

	if err := w.AddLayout(layoutRecords(p.Bucket.Paths)); err != nil {
		return "", err
	}

	files := regularFilesBySizeDescending(p.Bucket.Paths)
	var pledged uint64
	for _, pi := range files {
		pledged += uint64(pi.Size)
	}

	cw, err := w.StartContent(pledged)
	if err != nil {
		return "", err
	}
	for _, pi := range files {
		if err := addFileContent(cw, pi); err != nil {
			return "", err
		}
	}
	if err := w.FinishContent(); err != nil {
		return "", err
	}

	if err := w.Finalize(out); err != nil {
		return "", errors.Errorf("emit: finalize %s: %w", outPath, err)
	}
	return filename, nil
}

func addFileContent(cw *stone.ContentWriter, pi collect.PathInfo) error {
	f, err := os.Open(pi.HostPath)
	if err != nil {
		return errors.Errorf("emit: open %s: %w", pi.HostPath, err)
	}
	defer f.Close()
	_, err = cw.AddContent(f)
	return err
}

func regularFilesBySizeDescending(paths []collect.PathInfo) []collect.PathInfo {
	var files []collect.PathInfo
	for _, pi := range paths {
		if pi.Layout.Kind == collect.EntryRegular {
			files = append(files, pi)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	return files
}

func layoutRecords(paths []collect.PathInfo) []stone.LayoutRecord {
	recs := make([]stone.LayoutRecord, 0, len(paths))
	for _, pi := range paths {
		recs = append(recs, stone.LayoutRecord{
			UID:      pi.Layout.UID,
			GID:      pi.Layout.GID,
			Mode:     pi.Layout.Mode,
			FileType: entryKindToLayoutFileType(pi.Layout.Kind),
			Digest:   pi.Layout.Digest,
			Source:   pi.Layout.Source,
			Target:   pi.TargetPath,
		})
	}
	return recs
}

func entryKindToLayoutFileType(k collect.EntryKind) stone.LayoutFileType {
	switch k {
	case collect.EntryRegular:
		return stone.LayoutRegular
	case collect.EntrySymlink:
		return stone.LayoutSymlink
	case collect.EntryDirectory:
		return stone.LayoutDirectory
	case collect.EntryCharacterDevice:
		return stone.LayoutCharacterDevice
	case collect.EntryBlockDevice:
		return stone.LayoutBlockDevice
	case collect.EntryFifo:
		return stone.LayoutFifo
	case collect.EntrySocket:
		return stone.LayoutSocket
	default:
		return stone.LayoutRegular
	}
}

// metaRecords builds the Meta payload for p: name, version, source
// release, build release, architecture, summary, description, source
// name, homepage, licenses (sorted), dependencies (sorted by string
// form), providers (sorted) (spec.md §4.8 step 3). deps has already
// been scrubbed of self-satisfying entries by the caller when building
// for final package emission; build manifests pass the raw dependency
// set plus their own build-depends records appended separately.
func (p Package) metaRecords(deps, provides []capability.Capability) []stone.MetaRecord {
	licenses := append([]string(nil), p.Licenses...)
	sort.Strings(licenses)

	recs := []stone.MetaRecord{
		{Tag: stone.TagName, Kind: stone.MetaString, String: p.Name},
		{Tag: stone.TagVersion, Kind: stone.MetaString, String: p.SourceVersion},
		{Tag: stone.TagRelease, Kind: stone.MetaUint64, Uint64: uint64(p.SourceRelease)},
		{Tag: stone.TagBuildRelease, Kind: stone.MetaUint64, Uint64: p.BuildRelease},
		{Tag: stone.TagArchitecture, Kind: stone.MetaString, String: p.Architecture},
		{Tag: stone.TagSummary, Kind: stone.MetaString, String: p.Bucket.Summary},
		{Tag: stone.TagDescription, Kind: stone.MetaString, String: p.Bucket.Description},
		{Tag: stone.TagSourceID, Kind: stone.MetaString, String: p.SourceID},
		{Tag: stone.TagHomepage, Kind: stone.MetaString, String: p.Homepage},
	}
	for _, l := range licenses {
		recs = append(recs, stone.MetaRecord{Tag: stone.TagLicense, Kind: stone.MetaString, String: l})
	}
	for _, d := range deps {
		recs = append(recs, stone.MetaRecord{Tag: stone.TagDependency, Kind: stone.MetaDependency, Dep: d})
	}
	for _, pr := range provides {
		recs = append(recs, stone.MetaRecord{Tag: stone.TagProvider, Kind: stone.MetaProvider, Dep: pr})
	}
	return recs
}

// ScrubSelfDeps removes from p's dependency set anything also provided
// either by p itself or by any of its siblings in the same recipe
// (spec.md §3, §8's "self-satisfying dependency" end-to-end scenario).
func ScrubSelfDeps(p Package, allProviders []capability.Capability) []capability.Capability {
	deps := p.Bucket.Dependencies.Sorted()
	return capability.Scrub(deps, allProviders)
}

// AllProviders flattens every bucket's providers, used to build the
// cross-package provider set ScrubSelfDeps needs.
func AllProviders(buckets map[string]*bucket.Bucket) []capability.Capability {
	var out []capability.Capability
	for _, b := range buckets {
		out = append(out, b.Providers.Items()...)
	}
	return out
}

// NewPackage constructs a Package for bucket b, applying defaults
// (build_release 1, per spec.md §4.8) from recipe r.
func NewPackage(r *recipe.Recipe, arch string, b *bucket.Bucket) Package {
	return Package{
		Name:          b.Name,
		Bucket:        b,
		BuildRelease:  1,
		Architecture:  arch,
		SourceVersion: r.Version,
		SourceRelease: r.Release,
		SourceID:      r.Name,
		Homepage:      r.Homepage,
		Licenses:      r.Licenses,
	}
}
