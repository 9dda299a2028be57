package stone

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
)

// ErrChecksumMismatch is returned when a payload's stored checksum
// doesn't match its actual bytes, per spec.md §8's corruption-detection
// scenario.
var ErrChecksumMismatch = fmt.Errorf("stone: payload checksum mismatch")

// ErrUnexpectedEOF is returned when an archive is truncated mid-payload.
var ErrUnexpectedEOF = fmt.Errorf("stone: unexpected end of archive")

// Payload is one decoded payload: its header and verified, still-stored
// (possibly Zstd-compressed) body bytes.
type Payload struct {
	Header PayloadHeader
	Body   []byte
}

// Reader decodes a stone archive read fully into memory. Archives are
// package-sized (spec.md's "binary" and "delta" file types), so reading
// them whole is the idiomatic trade-off over incremental streaming.
type Reader struct {
	Header   Header
	Payloads []Payload
}

// Read decodes the outer header and every payload from r, verifying
// each payload's checksum against its stored bytes before returning.
func Read(r io.Reader) (*Reader, error) {
	hdr, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}

	out := &Reader{Header: hdr}
	for i := 0; i < int(hdr.NumPayloads); i++ {
		ph, err := DecodePayloadHeader(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrUnexpectedEOF
			}
			return nil, err
		}

		body := make([]byte, ph.StoredSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, ErrUnexpectedEOF
		}

		sum := xxh3.Hash(body)
		var checksum [8]byte
		putUint64BE(checksum[:], sum)
		if checksum != ph.Checksum {
			return nil, ErrChecksumMismatch
		}

		out.Payloads = append(out.Payloads, Payload{Header: ph, Body: body})
	}
	return out, nil
}

// Find returns the first payload of the given kind, if present.
func (r *Reader) Find(kind PayloadKind) (Payload, bool) {
	for _, p := range r.Payloads {
		if p.Header.Kind == kind {
			return p, true
		}
	}
	return Payload{}, false
}

// DecodeMeta decodes a Meta payload's records.
func (r *Reader) DecodeMeta() ([]MetaRecord, error) {
	p, ok := r.Find(PayloadMeta)
	if !ok {
		return nil, nil
	}
	reader := bytes.NewReader(p.Body)
	recs := make([]MetaRecord, 0, p.Header.NumRecords)
	for i := uint32(0); i < p.Header.NumRecords; i++ {
		rec, err := DecodeMetaRecord(reader)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// DecodeLayout decodes a Layout payload's records.
func (r *Reader) DecodeLayout() ([]LayoutRecord, error) {
	p, ok := r.Find(PayloadLayout)
	if !ok {
		return nil, nil
	}
	reader := bytes.NewReader(p.Body)
	recs := make([]LayoutRecord, 0, p.Header.NumRecords)
	for i := uint32(0); i < p.Header.NumRecords; i++ {
		rec, err := DecodeLayoutRecord(reader)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// DecodeIndex decodes an Index payload's records.
func (r *Reader) DecodeIndex() ([]IndexRecord, error) {
	p, ok := r.Find(PayloadIndex)
	if !ok {
		return nil, nil
	}
	reader := bytes.NewReader(p.Body)
	recs := make([]IndexRecord, 0, p.Header.NumRecords)
	for i := uint32(0); i < p.Header.NumRecords; i++ {
		rec, err := DecodeIndexRecord(reader)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ExtractContent decompresses the Content payload (if Zstd-compressed)
// into w, or copies it verbatim when stored uncompressed.
func (r *Reader) ExtractContent(w io.Writer) error {
	p, ok := r.Find(PayloadContent)
	if !ok {
		return nil
	}
	if p.Header.Compression == CompressionZstd {
		return UnpackContent(bytes.NewReader(p.Body), w)
	}
	_, err := w.Write(p.Body)
	return err
}
