// Package collect walks a build's install root and produces the
// PathInfo records later consumed by the analysis chain and bucketer
// (spec.md §4.5).
package collect

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-errors/errors"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/serpent-go/boulder/pkg/stone"
)

// EntryKind discriminates the layout-entry variants of spec.md §3.
type EntryKind uint8

const (
	EntryRegular EntryKind = iota
	EntrySymlink
	EntryDirectory
	EntryCharacterDevice
	EntryBlockDevice
	EntryFifo
	EntrySocket
)

// defaultDirMode is the directory mode implied by its descendants and
// therefore not emitted as an explicit layout record, per spec.md §4.5.
const defaultDirMode = 0o040755

// Layout is one filesystem entry to recreate, mirroring
// pkg/stone.LayoutRecord but keyed by in-progress collection state
// rather than the wire encoding.
type Layout struct {
	Kind   EntryKind
	Digest stone.Digest128 // EntryRegular: XXH3-128 of the file's bytes.
	Source string          // EntrySymlink: the link's target text.
	UID    uint32
	GID    uint32
	Mode   uint32
}

// PathInfo is one collected entry: its host path, normalized target
// path, layout, size, and (once bucketed) owning package name.
type PathInfo struct {
	HostPath      string
	TargetPath    string
	UnderUsr      bool
	Layout        Layout
	Size          int64
	OwningPackage string
}

// Walk depth-first traverses installRoot and returns one PathInfo per
// entry, applying the directory-elision and /usr/-stripping rules of
// spec.md §4.5. Regular files are hashed with XXH3-128; the hashing
// itself is fanned out across a worker pool bounded by logical-CPU
// count once the tree walk completes (spec.md §5, "Content hashing"):
// each hash is a CPU-bound task that never suspends, and result order
// is irrelevant since every entry keeps its own slot.
func Walk(installRoot string) ([]PathInfo, error) {
	var infos []PathInfo
	var regulars []int

	err := filepath.WalkDir(installRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == installRoot {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.Errorf("collect: stat %s: %w", path, err)
		}

		rel, err := filepath.Rel(installRoot, path)
		if err != nil {
			return err
		}
		targetPath := filepath.ToSlash(rel)
		underUsr := targetPath == "usr" || strings.HasPrefix(targetPath, "usr/")
		strippedPath := targetPath
		switch {
		case targetPath == "usr":
			strippedPath = ""
		case underUsr:
			strippedPath = strings.TrimPrefix(targetPath, "usr/")
		}

		pi := PathInfo{
			HostPath:   path,
			TargetPath: strippedPath,
			UnderUsr:   underUsr,
			Size:       info.Size(),
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return errors.Errorf("collect: readlink %s: %w", path, err)
			}
			pi.Layout = Layout{Kind: EntrySymlink, Source: target, Mode: uint32(info.Mode().Perm())}

		case info.IsDir():
			hasChildren, err := dirHasChildren(path)
			if err != nil {
				return err
			}
			mode := uint32(info.Mode().Perm()) | uint32(0o040000)
			if hasChildren && mode == defaultDirMode {
				return nil // implied by descendants; not emitted.
			}
			pi.Layout = Layout{Kind: EntryDirectory, Mode: mode}

		case info.Mode()&os.ModeCharDevice != 0 && info.Mode()&os.ModeDevice != 0:
			pi.Layout = Layout{Kind: EntryCharacterDevice, Mode: uint32(info.Mode().Perm())}

		case info.Mode()&os.ModeDevice != 0:
			pi.Layout = Layout{Kind: EntryBlockDevice, Mode: uint32(info.Mode().Perm())}

		case info.Mode()&os.ModeNamedPipe != 0:
			pi.Layout = Layout{Kind: EntryFifo, Mode: uint32(info.Mode().Perm())}

		case info.Mode()&os.ModeSocket != 0:
			pi.Layout = Layout{Kind: EntrySocket, Mode: uint32(info.Mode().Perm())}

		default:
			pi.Layout = Layout{Kind: EntryRegular, Mode: uint32(info.Mode().Perm())}
			regulars = append(regulars, len(infos))
		}

		infos = append(infos, pi)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := hashRegulars(infos, regulars); err != nil {
		return nil, err
	}
	return infos, nil
}

// hashRegulars computes the XXH3-128 digest of every regular file
// named by the regulars indices into infos, bounded to runtime.NumCPU()
// concurrent hashes. Each goroutine owns a distinct slice index, so no
// synchronization beyond the errgroup is needed.
func hashRegulars(infos []PathInfo, regulars []int) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	for _, idx := range regulars {
		idx := idx
		g.Go(func() error {
			digest, err := hashFile(infos[idx].HostPath)
			if err != nil {
				return err
			}
			infos[idx].Layout.Digest = digest
			return nil
		})
	}
	return g.Wait()
}

func dirHasChildren(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, errors.Errorf("collect: readdir %s: %w", path, err)
	}
	return len(entries) > 0, nil
}

func hashFile(path string) (stone.Digest128, error) {
	f, err := os.Open(path)
	if err != nil {
		return stone.Digest128{}, errors.Errorf("collect: open %s: %w", path, err)
	}
	defer f.Close()

	hasher := xxh3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return stone.Digest128{}, errors.Errorf("collect: hash %s: %w", path, err)
	}
	sum := hasher.Sum128()
	return stone.DigestFromHiLo(sum.Hi, sum.Lo), nil
}
