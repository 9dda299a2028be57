package emit

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/goccy/go-yaml"
)

// ManifestPackage is one package's entry in the human-readable build
// manifest (spec.md §4.8 "In parallel, emit a build manifest").
type ManifestPackage struct {
	Name         string   `json:"name"`
	BuildDepends []string `json:"build-depends,omitempty"`
	Depends      []string `json:"depends,omitempty"`
	Provides     []string `json:"provides,omitempty"`
	Files        []string `json:"files,omitempty"`
}

// Manifest is the full human-readable build manifest document: manifest
// version, per-package dependencies/providers/file list, and source
// identity (spec.md §4.8).
type Manifest struct {
	ManifestVersion string                     `json:"manifest-version"`
	SourceName      string                     `json:"source-name"`
	SourceVersion   string                     `json:"source-version"`
	SourceRelease   string                     `json:"source-release"`
	Packages        map[string]ManifestPackage `json:"packages"`
}

// manifestVersion is stamped into every rendered manifest. It predates
// the binary stone format and is versioned independently of it.
const manifestVersion = "0.2"

// NewManifest builds the human-readable manifest for one architecture's
// package set: each package's dependency list unions its analysis-
// derived dependencies with its template's declared run dependencies
// (spec.md §4.8).
func NewManifest(sourceName, sourceVersion string, sourceRelease int, pkgs []Package, buildDeps []string) Manifest {
	packages := make(map[string]ManifestPackage, len(pkgs))
	sortedBuildDeps := append([]string(nil), buildDeps...)
	sort.Strings(sortedBuildDeps)

	for _, p := range pkgs {
		depends := append([]string(nil), p.Bucket.RunDeps...)
		for _, d := range p.Bucket.Dependencies.Sorted() {
			depends = append(depends, d.String())
		}
		sort.Strings(depends)
		depends = dedupSorted(depends)

		var provides []string
		for _, pr := range p.Bucket.Providers.Sorted() {
			provides = append(provides, pr.String())
		}

		files := make([]string, 0, len(p.Bucket.Paths))
		for _, pi := range p.Bucket.Paths {
			files = append(files, "/usr/"+pi.TargetPath)
		}
		sort.Strings(files)

		packages[p.Name] = ManifestPackage{
			Name:         p.Name,
			BuildDepends: sortedBuildDeps,
			Depends:      depends,
			Provides:     provides,
			Files:        files,
		}
	}

	return Manifest{
		ManifestVersion: manifestVersion,
		SourceName:      sourceName,
		SourceVersion:   sourceVersion,
		SourceRelease:   strconv.Itoa(sourceRelease),
		Packages:        packages,
	}
}

func dedupSorted(s []string) []string {
	out := s[:0]
	var last string
	for i, v := range s {
		if i > 0 && v == last {
			continue
		}
		out = append(out, v)
		last = v
	}
	return out
}

// RenderManifestYAML renders m as pretty-printed YAML via a json→yaml
// mirror: marshal to JSON first to fix field order via struct tags,
// then re-marshal that structure as YAML, rather than hand-writing a
// YAML emitter.
func RenderManifestYAML(m Manifest) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	var mirror yaml.MapSlice
	if err := yaml.Unmarshal(data, &mirror); err != nil {
		return nil, err
	}
	return yaml.MarshalWithOptions(mirror, yaml.Indent(2))
}
