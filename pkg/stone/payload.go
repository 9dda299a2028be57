package stone

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PayloadKind identifies the recognized payload kinds of spec.md §4.1.
type PayloadKind uint8

const (
	PayloadMeta       PayloadKind = 1
	PayloadLayout     PayloadKind = 2
	PayloadIndex      PayloadKind = 3
	PayloadAttributes PayloadKind = 4
	PayloadContent    PayloadKind = 5
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadMeta:
		return "meta"
	case PayloadLayout:
		return "layout"
	case PayloadIndex:
		return "index"
	case PayloadAttributes:
		return "attributes"
	case PayloadContent:
		return "content"
	default:
		return "unknown"
	}
}

// Compression identifies how a payload's body bytes are stored.
type Compression uint8

const (
	CompressionNone Compression = 1
	CompressionZstd Compression = 2
)

// PayloadHeader is the 32-byte fixed frame preceding every payload body.
type PayloadHeader struct {
	StoredSize  uint64
	PlainSize   uint64
	Checksum    [8]byte
	NumRecords  uint32
	PayloadVers uint16
	Kind        PayloadKind
	Compression Compression
}

func EncodePayloadHeader(w io.Writer, h PayloadHeader) error {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[0:8], h.StoredSize)
	binary.BigEndian.PutUint64(buf[8:16], h.PlainSize)
	copy(buf[16:24], h.Checksum[:])
	binary.BigEndian.PutUint32(buf[24:28], h.NumRecords)
	binary.BigEndian.PutUint16(buf[28:30], h.PayloadVers)
	buf[30] = byte(h.Kind)
	buf[31] = byte(h.Compression)
	_, err := w.Write(buf[:])
	return err
}

func DecodePayloadHeader(r io.Reader) (PayloadHeader, error) {
	var buf [32]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return PayloadHeader{}, fmt.Errorf("stone: read payload header: %w", err)
	}
	h := PayloadHeader{
		StoredSize:  binary.BigEndian.Uint64(buf[0:8]),
		PlainSize:   binary.BigEndian.Uint64(buf[8:16]),
		NumRecords:  binary.BigEndian.Uint32(buf[24:28]),
		PayloadVers: binary.BigEndian.Uint16(buf[28:30]),
		Kind:        PayloadKind(buf[30]),
		Compression: Compression(buf[31]),
	}
	copy(h.Checksum[:], buf[16:24])
	return h, nil
}
