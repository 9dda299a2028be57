package recipe

import "path/filepath"

// Mapping is a (host_path, guest_path) pair: spec.md §3's Paths
// invariant is host_path = rootfs_host ⊕ guest_path whenever the guest
// path is also visible on the host through the container mount set.
type Mapping struct {
	Host  string
	Guest string
}

// Paths maps every logical location named in spec.md §3 for one job.
// Grounded on original_source/crates/boulder/src/job.rs's Paths/PathMapping.
type Paths struct {
	id         string
	hostRoot   string
	guestRoot  string
	recipeDir  string
}

// NewPaths constructs the canonical path set for a recipe id rooted at
// hostRoot (boulder's cache dir) with the container mounted at guestRoot.
func NewPaths(id, recipeDir, hostRoot, guestRoot string) *Paths {
	return &Paths{id: id, hostRoot: hostRoot, guestRoot: guestRoot, recipeDir: recipeDir}
}

func (p *Paths) Rootfs() Mapping {
	return Mapping{Host: filepath.Join(p.hostRoot, "root", p.id), Guest: "/"}
}

func (p *Paths) Artefacts() Mapping {
	return Mapping{
		Host:  filepath.Join(p.hostRoot, "artefacts", p.id),
		Guest: filepath.Join(p.guestRoot, "artefacts"),
	}
}

func (p *Paths) Build() Mapping {
	return Mapping{
		Host:  filepath.Join(p.hostRoot, "build", p.id),
		Guest: filepath.Join(p.guestRoot, "build"),
	}
}

func (p *Paths) Ccache() Mapping {
	return Mapping{
		Host:  filepath.Join(p.hostRoot, "ccache"),
		Guest: filepath.Join(p.guestRoot, "ccache"),
	}
}

func (p *Paths) Upstreams() Mapping {
	return Mapping{
		Host:  filepath.Join(p.hostRoot, "upstreams"),
		Guest: filepath.Join(p.guestRoot, "sourcedir"),
	}
}

func (p *Paths) Recipe() Mapping {
	return Mapping{Host: p.recipeDir, Guest: filepath.Join(p.guestRoot, "recipe")}
}

// Install is the guest-visible install root populated during the Install
// phase and later walked by the collector (spec.md §4.5).
func (p *Paths) Install() Mapping {
	return Mapping{
		Host:  filepath.Join(p.GuestHostPath(filepath.Join(p.guestRoot, "install"))),
		Guest: filepath.Join(p.guestRoot, "install"),
	}
}

// GuestHostPath returns where a guest path lives on the host, by
// resolving it relative to the rootfs mount root.
func (p *Paths) GuestHostPath(guestPath string) string {
	rel, err := filepath.Rel("/", guestPath)
	if err != nil {
		rel = guestPath
	}
	return filepath.Join(p.Rootfs().Host, rel)
}
