package stone

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

// maxWindowLog bounds the Zstd window size used for content payloads.
// The original format specifies window log 31 (2GiB); klauspost/compress
// caps practical encoder memory well below that, so this repo uses a
// 128MiB window (log 27) — large enough for any single package's
// content blob while keeping encoder memory bounded.
const maxWindowLog = 27

// ContentWriter accumulates file bytes into one continuous Zstd stream
// and records per-file (start, end, digest) ranges for the paired Index
// payload, per spec.md §4.1 "Content payload writing".
type ContentWriter struct {
	enc    *zstd.Encoder
	offset uint64
	index  []IndexRecord
}

// NewContentWriter wraps scratch (a fresh, truncated scratch file) in a
// streaming Zstd encoder. pledgedSize, when known, lets Zstd pick a
// window no larger than necessary.
func NewContentWriter(scratch io.Writer, pledgedSize uint64) (*ContentWriter, error) {
	windowSize := 1 << maxWindowLog
	if pledgedSize > 0 && pledgedSize < uint64(windowSize) {
		windowSize = int(nextPowerOfTwo(pledgedSize))
	}

	enc, err := zstd.NewWriter(scratch,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithWindowSize(windowSize),
	)
	if err != nil {
		return nil, err
	}
	return &ContentWriter{enc: enc}, nil
}

func nextPowerOfTwo(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	if p < 1024 {
		p = 1024
	}
	return p
}

// AddContent streams r's bytes into the content blob, hashing them with
// XXH3-128 and recording the resulting index entry.
func (c *ContentWriter) AddContent(r io.Reader) (IndexRecord, error) {
	hasher := xxh3.New()
	start := c.offset

	n, err := io.Copy(io.MultiWriter(c.enc, hasher), r)
	if err != nil {
		return IndexRecord{}, err
	}

	c.offset += uint64(n)
	sum := hasher.Sum128()
	rec := IndexRecord{
		Start:  start,
		End:    c.offset,
		Digest: DigestFromHiLo(sum.Hi, sum.Lo),
	}
	c.index = append(c.index, rec)
	return rec, nil
}

// Index returns the accumulated index entries in insertion order.
func (c *ContentWriter) Index() []IndexRecord { return c.index }

// PlainSize returns the total uncompressed bytes streamed so far.
func (c *ContentWriter) PlainSize() uint64 { return c.offset }

// Close flushes the final Zstd frame.
func (c *ContentWriter) Close() error { return c.enc.Close() }

// UnpackContent opens a content payload's stored bytes, decompresses
// them and streams the result into w. Callers use the paired Index
// payload to split the output into per-file chunks keyed by digest.
func UnpackContent(stored io.Reader, w io.Writer) error {
	dec, err := zstd.NewReader(stored, zstd.WithDecoderMaxWindow(1<<maxWindowLog))
	if err != nil {
		return err
	}
	defer dec.Close()
	_, err = io.Copy(w, dec)
	return err
}
