package stone

import (
	"encoding/binary"
	"fmt"
	"io"
)

// IndexRecord is one (start, end, digest) content-range entry. Ranges
// must be non-overlapping and cover the content payload monotonically
// (spec.md §4.1).
type IndexRecord struct {
	Start  uint64
	End    uint64
	Digest Digest128
}

func EncodeIndexRecord(w io.Writer, rec IndexRecord) error {
	if rec.End <= rec.Start {
		return fmt.Errorf("stone: index record end (%d) must exceed start (%d)", rec.End, rec.Start)
	}
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[0:8], rec.Start)
	binary.BigEndian.PutUint64(buf[8:16], rec.End)
	copy(buf[16:32], rec.Digest[:])
	_, err := w.Write(buf[:])
	return err
}

func DecodeIndexRecord(r io.Reader) (IndexRecord, error) {
	var buf [32]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return IndexRecord{}, err
	}
	rec := IndexRecord{
		Start: binary.BigEndian.Uint64(buf[0:8]),
		End:   binary.BigEndian.Uint64(buf[8:16]),
	}
	copy(rec.Digest[:], buf[16:32])
	if rec.End <= rec.Start {
		return rec, fmt.Errorf("stone: index record end (%d) must exceed start (%d)", rec.End, rec.Start)
	}
	return rec, nil
}

// ValidateIndex checks the §8 invariant that ranges are non-overlapping
// and strictly monotonic, and that their sum equals plainSize.
func ValidateIndex(records []IndexRecord, plainSize uint64) error {
	var prevEnd uint64
	var total uint64
	for i, rec := range records {
		if rec.Start < prevEnd {
			return fmt.Errorf("stone: index record %d overlaps previous range", i)
		}
		total += rec.End - rec.Start
		prevEnd = rec.End
	}
	if total != plainSize {
		return fmt.Errorf("stone: index ranges sum to %d, expected plain_size %d", total, plainSize)
	}
	return nil
}
