package stone

import (
	"bytes"
	"io"

	"github.com/zeebo/xxh3"
)

// payload is a fully-built payload awaiting emission: header plus the
// already-encoded body (stored uncompressed for non-content kinds).
type payload struct {
	header PayloadHeader
	body   []byte
}

// Writer assembles a stone archive in memory, then emits it as a single
// framed stream on Finalize. Meta, Layout and Attributes payloads are
// built from in-memory record slices; Content is streamed separately
// through the ContentWriter returned by StartContent and attached with
// FinishContent.
type Writer struct {
	fileType FileType
	payloads []payload

	content     *ContentWriter
	contentBuf  *bytes.Buffer
	haveContent bool
}

// NewWriter starts a new archive of the given file type (spec.md §4.1).
func NewWriter(fileType FileType) *Writer {
	return &Writer{fileType: fileType}
}

// AddMeta encodes recs as a Meta payload.
func (w *Writer) AddMeta(recs []MetaRecord) error {
	var buf bytes.Buffer
	for _, rec := range recs {
		if err := EncodeMetaRecord(&buf, rec); err != nil {
			return err
		}
	}
	return w.addPayload(PayloadMeta, uint32(len(recs)), buf.Bytes())
}

// AddLayout encodes recs as a Layout payload.
func (w *Writer) AddLayout(recs []LayoutRecord) error {
	var buf bytes.Buffer
	for _, rec := range recs {
		if err := EncodeLayoutRecord(&buf, rec); err != nil {
			return err
		}
	}
	return w.addPayload(PayloadLayout, uint32(len(recs)), buf.Bytes())
}

// AddAttributes encodes raw key/value attribute bytes as an Attributes
// payload. The spec leaves this payload's record format
// implementation-defined beyond "length-prefixed blobs"; callers supply
// pre-encoded blobs.
func (w *Writer) AddAttributes(blobs [][]byte) error {
	var buf bytes.Buffer
	for _, b := range blobs {
		if err := writeLengthPrefixedString(&buf, string(b)); err != nil {
			return err
		}
	}
	return w.addPayload(PayloadAttributes, uint32(len(blobs)), buf.Bytes())
}

func (w *Writer) addPayload(kind PayloadKind, numRecords uint32, plain []byte) error {
	sum := xxh3.Hash(plain)
	var checksum [8]byte
	putUint64BE(checksum[:], sum)

	w.payloads = append(w.payloads, payload{
		header: PayloadHeader{
			StoredSize:  uint64(len(plain)),
			PlainSize:   uint64(len(plain)),
			Checksum:    checksum,
			NumRecords:  numRecords,
			PayloadVers: 1,
			Kind:        kind,
			Compression: CompressionNone,
		},
		body: plain,
	})
	return nil
}

// StartContent returns a ContentWriter the caller streams file bytes
// through via AddContent. pledgedSize is an optional total-bytes hint.
func (w *Writer) StartContent(pledgedSize uint64) (*ContentWriter, error) {
	w.contentBuf = &bytes.Buffer{}
	cw, err := NewContentWriter(w.contentBuf, pledgedSize)
	if err != nil {
		return nil, err
	}
	w.content = cw
	w.haveContent = true
	return cw, nil
}

// FinishContent closes the content stream, synthesizes the Index
// payload from its tracked ranges, and appends both Index and Content
// payloads in that order (spec.md §4.1 step 4).
func (w *Writer) FinishContent() error {
	if !w.haveContent {
		return nil
	}
	if err := w.content.Close(); err != nil {
		return err
	}

	var indexBuf bytes.Buffer
	records := w.content.Index()
	for _, rec := range records {
		if err := EncodeIndexRecord(&indexBuf, rec); err != nil {
			return err
		}
	}
	if err := ValidateIndex(records, w.content.PlainSize()); err != nil {
		return err
	}
	if err := w.addPayload(PayloadIndex, uint32(len(records)), indexBuf.Bytes()); err != nil {
		return err
	}

	stored := w.contentBuf.Bytes()
	sum := xxh3.Hash(stored)
	var checksum [8]byte
	putUint64BE(checksum[:], sum)

	w.payloads = append(w.payloads, payload{
		header: PayloadHeader{
			StoredSize:  uint64(len(stored)),
			PlainSize:   w.content.PlainSize(),
			Checksum:    checksum,
			NumRecords:  uint32(len(records)),
			PayloadVers: 1,
			Kind:        PayloadContent,
			Compression: CompressionZstd,
		},
		body: stored,
	})
	return nil
}

// Finalize writes the completed archive: outer header, then each
// payload's header and body in insertion order (spec.md §4.1 step 5).
func (w *Writer) Finalize(out io.Writer) error {
	if err := EncodeHeader(out, Header{
		Version:     VersionV1,
		NumPayloads: uint16(len(w.payloads)),
		FileType:    w.fileType,
	}); err != nil {
		return err
	}
	for _, p := range w.payloads {
		if err := EncodePayloadHeader(out, p.header); err != nil {
			return err
		}
		if _, err := out.Write(p.body); err != nil {
			return err
		}
	}
	return nil
}

func putUint64BE(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}
