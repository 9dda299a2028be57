package stone

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/serpent-go/boulder/pkg/capability"
)

// MetaValueKind tags the kind-dependent payload following a meta
// record's (tag, kind) header (spec.md §4.1).
type MetaValueKind uint8

const (
	MetaInt8 MetaValueKind = iota + 1
	MetaUint8
	MetaInt16
	MetaUint16
	MetaInt32
	MetaUint32
	MetaInt64
	MetaUint64
	MetaString
	MetaDependency
	MetaProvider
)

// MetaTag identifies which logical field a meta record carries.
type MetaTag uint16

const (
	TagName MetaTag = iota + 1
	TagVersion
	TagRelease
	TagBuildRelease
	TagArchitecture
	TagSummary
	TagDescription
	TagSourceID
	TagHomepage
	TagLicense
	TagDependency
	TagProvider
	// TagBuildDepends appears only in build-manifest payloads (spec.md
	// §4.8 "build manifest ... containing build dependencies").
	TagBuildDepends
)

// MetaRecord is one decoded meta record: tag, kind, and exactly one of
// the typed fields below populated according to Kind.
type MetaRecord struct {
	Tag  MetaTag
	Kind MetaValueKind

	Int64  int64
	Uint64 uint64
	String string
	Dep    capability.Capability // valid when Kind is MetaDependency/MetaProvider
}

func depKindByte(k capability.Kind) uint8 { return uint8(k) }

func capKindFromByte(b uint8) capability.Kind { return capability.Kind(b) }

// EncodeMetaRecord writes one meta record to w.
func EncodeMetaRecord(w io.Writer, rec MetaRecord) error {
	var head [3]byte
	binary.BigEndian.PutUint16(head[0:2], uint16(rec.Tag))
	head[2] = byte(rec.Kind)
	if _, err := w.Write(head[:]); err != nil {
		return err
	}

	switch rec.Kind {
	case MetaInt8, MetaUint8:
		_, err := w.Write([]byte{byte(rec.Uint64)})
		return err
	case MetaInt16, MetaUint16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(rec.Uint64))
		_, err := w.Write(b[:])
		return err
	case MetaInt32, MetaUint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(rec.Uint64))
		_, err := w.Write(b[:])
		return err
	case MetaInt64, MetaUint64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], rec.Uint64)
		_, err := w.Write(b[:])
		return err
	case MetaString:
		return writeLengthPrefixedString(w, rec.String)
	case MetaDependency, MetaProvider:
		if _, err := w.Write([]byte{depKindByte(rec.Dep.Kind)}); err != nil {
			return err
		}
		return writeLengthPrefixedString(w, rec.Dep.Name)
	default:
		return fmt.Errorf("stone: unknown meta value kind %d", rec.Kind)
	}
}

// DecodeMetaRecord reads one meta record from r.
func DecodeMetaRecord(r io.Reader) (MetaRecord, error) {
	var head [3]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return MetaRecord{}, err
	}
	rec := MetaRecord{
		Tag:  MetaTag(binary.BigEndian.Uint16(head[0:2])),
		Kind: MetaValueKind(head[2]),
	}

	switch rec.Kind {
	case MetaInt8, MetaUint8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return rec, err
		}
		rec.Uint64 = uint64(b[0])
	case MetaInt16, MetaUint16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return rec, err
		}
		rec.Uint64 = uint64(binary.BigEndian.Uint16(b[:]))
	case MetaInt32, MetaUint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return rec, err
		}
		rec.Uint64 = uint64(binary.BigEndian.Uint32(b[:]))
	case MetaInt64, MetaUint64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return rec, err
		}
		rec.Uint64 = binary.BigEndian.Uint64(b[:])
	case MetaString:
		s, err := readLengthPrefixedString(r)
		if err != nil {
			return rec, err
		}
		rec.String = s
	case MetaDependency, MetaProvider:
		var kindByte [1]byte
		if _, err := io.ReadFull(r, kindByte[:]); err != nil {
			return rec, err
		}
		name, err := readLengthPrefixedString(r)
		if err != nil {
			return rec, err
		}
		rec.Dep = capability.Capability{Kind: capKindFromByte(kindByte[0]), Name: name}
	default:
		return rec, fmt.Errorf("stone: unknown meta value kind %d", rec.Kind)
	}

	return rec, nil
}

func writeLengthPrefixedString(w io.Writer, s string) error {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readLengthPrefixedString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
