package index

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyline93/pagemap/internal/page"
)

var testParams = page.Params{
	DeviceID:   7,
	ShowImages: true,
	FontSize:   12,
	FontFamily: "serif",
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	idx := newSampleIndex(t)
	pages := idx.Finalize()
	sig := testParams.Signature()

	var buf bytes.Buffer
	require.NoError(t, idx.Encode(&buf, sig))
	assert.Equal(t, headerSize+4+len(sampleRecords)*entrySize+checksumSize, buf.Len())
	assert.Equal(t, byte(Version), buf.Bytes()[0])

	loaded := New()
	require.NoError(t, loaded.Decode(bytes.NewReader(buf.Bytes()), sig))
	assert.Equal(t, idx.Records(), loaded.Records())
	assert.Equal(t, pages, loaded.PageCount())
	assert.True(t, loaded.Final())
	require.NoError(t, loaded.Verify())

	// encoding the loaded index yields the same file
	var again bytes.Buffer
	require.NoError(t, loaded.Encode(&again, sig))
	assert.Equal(t, buf.Bytes(), again.Bytes())
}

func TestDecodeRejects(t *testing.T) {
	idx := newSampleIndex(t)
	sig := testParams.Signature()

	var buf bytes.Buffer
	require.NoError(t, idx.Encode(&buf, sig))
	valid := buf.Bytes()

	t.Run("signature", func(t *testing.T) {
		other := testParams
		other.FontSize++
		err := New().Decode(bytes.NewReader(valid), other.Signature())
		assert.ErrorIs(t, err, ErrSignature)
	})

	t.Run("version", func(t *testing.T) {
		data := bytes.Clone(valid)
		data[0] = Version + 1
		err := New().Decode(bytes.NewReader(data), sig)
		assert.ErrorIs(t, err, ErrVersion)
	})

	t.Run("checksum", func(t *testing.T) {
		data := bytes.Clone(valid)
		data[headerSize+6]++
		err := New().Decode(bytes.NewReader(data), sig)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("truncated", func(t *testing.T) {
		err := New().Decode(bytes.NewReader(valid[:10]), sig)
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		err := New().Decode(bytes.NewReader(nil), sig)
		assert.Error(t, err)
	})
}

func TestDecodeFailureKeepsIndex(t *testing.T) {
	idx := newSampleIndex(t)
	before := idx.Records()

	err := idx.Decode(bytes.NewReader([]byte{Version}), testParams.Signature())
	require.Error(t, err)
	assert.Equal(t, before, idx.Records())
}

func TestEncodeRejectsLargeSections(t *testing.T) {
	idx := New()
	idx.Insert(page.ID{Section: 1 << 16, Offset: 0}, 10)

	var buf bytes.Buffer
	assert.Error(t, idx.Encode(&buf, testParams.Signature()))
}

func TestReadReturnsSignature(t *testing.T) {
	idx := newSampleIndex(t)
	sig := testParams.Signature()

	var buf bytes.Buffer
	require.NoError(t, idx.Encode(&buf, sig))

	loaded, got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	assert.Equal(t, 4, loaded.PageCount())
}
