// Package stone implements the length-delimited, payload-oriented
// binary archive format of spec.md §4.1: an agnostic 32-byte header
// followed by N typed payloads, each framed by a 32-byte header and
// optionally Zstd-compressed. All multi-byte fields are big-endian.
package stone

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the 4-byte archive signature.
var Magic = [4]byte{0x00, 'm', 'o', 's'}

// integrityPattern is the fixed 21-byte pattern embedded in the V1
// header data block, used to detect corruption before trusting the
// rest of the header (spec.md §4.1).
var integrityPattern = [21]byte{0, 0, 1, 0, 0, 2, 0, 0, 3, 0, 0, 4, 0, 0, 5, 0, 0, 6, 0, 0, 7}

// Version is the outer header's version tag.
type Version uint32

const VersionV1 Version = 1

// FileType is the V1 header's file-type discriminant.
type FileType uint8

const (
	FileTypeBinary        FileType = 1
	FileTypeDelta         FileType = 2
	FileTypeRepository    FileType = 3
	FileTypeBuildManifest FileType = 4
)

// Header is the decoded agnostic + V1 header.
type Header struct {
	Version     Version
	NumPayloads uint16
	FileType    FileType
}

// Errors returned by header decoding (spec.md §4.1).
var (
	ErrInvalidMagic     = fmt.Errorf("stone: invalid magic")
	ErrUnknownVersion   = fmt.Errorf("stone: unknown version")
	ErrCorruptIntegrity = fmt.Errorf("stone: corrupt integrity pattern")
)

// EncodeHeader writes the 32-byte agnostic header for a V1 archive.
func EncodeHeader(w io.Writer, h Header) error {
	var buf [32]byte
	copy(buf[0:4], Magic[:])
	binary.BigEndian.PutUint16(buf[4:6], h.NumPayloads)
	copy(buf[6:27], integrityPattern[:])
	buf[27] = byte(h.FileType)
	binary.BigEndian.PutUint32(buf[28:32], uint32(VersionV1))
	_, err := w.Write(buf[:])
	return err
}

// DecodeHeader reads and validates the 32-byte agnostic header.
func DecodeHeader(r io.Reader) (Header, error) {
	var buf [32]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("stone: read header: %w", err)
	}

	var magic [4]byte
	copy(magic[:], buf[0:4])
	if magic != Magic {
		return Header{}, ErrInvalidMagic
	}

	version := Version(binary.BigEndian.Uint32(buf[28:32]))
	if version != VersionV1 {
		return Header{}, ErrUnknownVersion
	}

	var pattern [21]byte
	copy(pattern[:], buf[6:27])
	if pattern != integrityPattern {
		return Header{}, ErrCorruptIntegrity
	}

	return Header{
		Version:     version,
		NumPayloads: binary.BigEndian.Uint16(buf[4:6]),
		FileType:    FileType(buf[27]),
	}, nil
}
