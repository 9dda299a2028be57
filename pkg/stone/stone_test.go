package stone

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpent-go/boulder/pkg/capability"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, Header{Version: VersionV1, NumPayloads: 3, FileType: FileTypeBinary}))

	got, err := DecodeHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, Header{Version: VersionV1, NumPayloads: 3, FileType: FileTypeBinary}, got)
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, 32)
	copy(buf, []byte{'x', 'x', 'x', 'x'})
	_, err := DecodeHeader(bytes.NewReader(buf))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestMetaRecordRoundTrip(t *testing.T) {
	cases := []MetaRecord{
		{Tag: TagName, Kind: MetaString, String: "zlib"},
		{Tag: TagBuildRelease, Kind: MetaUint16, Uint64: 1},
		{Tag: TagDependency, Kind: MetaDependency, Dep: capability.Capability{Kind: capability.SharedLibrary, Name: "libz.so.1"}},
		{Tag: TagProvider, Kind: MetaProvider, Dep: capability.Capability{Kind: capability.PkgConfig, Name: "zlib"}},
	}

	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, EncodeMetaRecord(&buf, c))
		got, err := DecodeMetaRecord(&buf)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestLayoutRecordRoundTrip(t *testing.T) {
	digest := DigestFromHiLo(0x1122334455667788, 0x99aabbccddeeff00)

	regular := LayoutRecord{UID: 0, GID: 0, Mode: 0o644, FileType: LayoutRegular, Digest: digest, Target: "usr/lib/libz.so.1.3"}
	var buf bytes.Buffer
	require.NoError(t, EncodeLayoutRecord(&buf, regular))
	got, err := DecodeLayoutRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, regular, got)

	symlink := LayoutRecord{Mode: 0o777, FileType: LayoutSymlink, Source: "libz.so.1.3", Target: "usr/lib/libz.so"}
	buf.Reset()
	require.NoError(t, EncodeLayoutRecord(&buf, symlink))
	got, err = DecodeLayoutRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, symlink, got)
}

func TestIndexRecordRejectsNonMonotonic(t *testing.T) {
	err := EncodeIndexRecord(&bytes.Buffer{}, IndexRecord{Start: 10, End: 10})
	assert.Error(t, err)
}

func TestValidateIndexDetectsOverlap(t *testing.T) {
	recs := []IndexRecord{{Start: 0, End: 10}, {Start: 5, End: 15}}
	err := ValidateIndex(recs, 15)
	assert.Error(t, err)
}

func TestValidateIndexDetectsSizeMismatch(t *testing.T) {
	recs := []IndexRecord{{Start: 0, End: 10}, {Start: 10, End: 20}}
	err := ValidateIndex(recs, 15)
	assert.Error(t, err)
}

func TestValidateIndexAccepts(t *testing.T) {
	recs := []IndexRecord{{Start: 0, End: 10}, {Start: 10, End: 20}}
	assert.NoError(t, ValidateIndex(recs, 20))
}

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(FileTypeBinary)
	require.NoError(t, w.AddMeta([]MetaRecord{
		{Tag: TagName, Kind: MetaString, String: "zlib"},
		{Tag: TagVersion, Kind: MetaString, String: "1.3"},
	}))

	cw, err := w.StartContent(0)
	require.NoError(t, err)

	fileA := "the quick brown fox jumps over the lazy dog"
	fileB := strings.Repeat("compressible filler text ", 64)

	recA, err := cw.AddContent(strings.NewReader(fileA))
	require.NoError(t, err)
	recB, err := cw.AddContent(strings.NewReader(fileB))
	require.NoError(t, err)

	require.NoError(t, w.FinishContent())
	require.NoError(t, w.AddLayout([]LayoutRecord{
		{Mode: 0o644, FileType: LayoutRegular, Digest: recA.Digest, Target: "usr/share/a.txt"},
		{Mode: 0o644, FileType: LayoutRegular, Digest: recB.Digest, Target: "usr/share/b.txt"},
	}))

	var archive bytes.Buffer
	require.NoError(t, w.Finalize(&archive))

	rd, err := Read(&archive)
	require.NoError(t, err)
	assert.Equal(t, uint16(4), rd.Header.NumPayloads)

	meta, err := rd.DecodeMeta()
	require.NoError(t, err)
	require.Len(t, meta, 2)
	assert.Equal(t, "zlib", meta[0].String)

	layout, err := rd.DecodeLayout()
	require.NoError(t, err)
	require.Len(t, layout, 2)

	index, err := rd.DecodeIndex()
	require.NoError(t, err)
	require.NoError(t, ValidateIndex(index, index[len(index)-1].End))

	var unpacked bytes.Buffer
	require.NoError(t, rd.ExtractContent(&unpacked))
	assert.Equal(t, fileA+fileB, unpacked.String())
}

func TestReaderDetectsChecksumCorruption(t *testing.T) {
	w := NewWriter(FileTypeBinary)
	require.NoError(t, w.AddMeta([]MetaRecord{{Tag: TagName, Kind: MetaString, String: "zlib"}}))

	var archive bytes.Buffer
	require.NoError(t, w.Finalize(&archive))

	corrupt := archive.Bytes()
	// Flip every bit of the last byte, inside the meta payload's body.
	corrupt[len(corrupt)-1] ^= 0xff

	_, err := Read(bytes.NewReader(corrupt))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestReaderDetectsTruncation(t *testing.T) {
	w := NewWriter(FileTypeBinary)
	require.NoError(t, w.AddMeta([]MetaRecord{{Tag: TagName, Kind: MetaString, String: "zlib"}}))

	var archive bytes.Buffer
	require.NoError(t, w.Finalize(&archive))

	truncated := archive.Bytes()[:len(archive.Bytes())-4]
	_, err := Read(bytes.NewReader(truncated))
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}
