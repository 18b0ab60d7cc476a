package index

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/skyline93/pagemap/internal/page"
)

// Version is the format version of encoded page indexes.
const Version = 2

// MaxSections is the number of sections an encoded index can address.
const MaxSections = math.MaxInt16 + 1

var (
	// ErrVersion is returned when decoding an index of another format version.
	ErrVersion = errors.New("unsupported page index version")
	// ErrSignature is returned when decoding an index that was computed with
	// different format parameters.
	ErrSignature = errors.New("page index format signature mismatch")
	// ErrChecksum is returned when the encoded index is corrupted.
	ErrChecksum = errors.New("page index checksum mismatch")
)

var byteOrder = binary.LittleEndian

type fileHeader struct {
	Version   uint8
	Signature page.Signature
}

type fileEntry struct {
	Section int16
	Offset  int32
	Size    int32
}

const (
	headerSize   = 1 + 4 + 1 + 1 + 1 + 2 + 1 + 8
	entrySize    = 2 + 4 + 4
	checksumSize = 8
)

// Encode writes all entries of the index together with the signature of the
// format parameters they were computed with.
func (idx *Index) Encode(w io.Writer, sig page.Signature) error {
	var buf bytes.Buffer
	buf.Grow(headerSize + 4 + idx.m.len()*entrySize + checksumSize)

	err := binary.Write(&buf, byteOrder, fileHeader{Version: Version, Signature: sig})
	if err != nil {
		return errors.Wrap(err, "write header")
	}

	if uint64(idx.m.len()) > math.MaxUint32 {
		return errors.Errorf("too many entries: %d", idx.m.len())
	}
	err = binary.Write(&buf, byteOrder, uint32(idx.m.len()))
	if err != nil {
		return errors.Wrap(err, "write entry count")
	}

	for _, e := range idx.m.entries {
		if e.id.Section > math.MaxInt16 || e.id.Offset > math.MaxInt32 {
			return errors.Errorf("page %v does not fit the index format", e.id)
		}
		fe := fileEntry{
			Section: int16(e.id.Section),
			Offset:  int32(e.id.Offset),
			Size:    e.info.Size,
		}
		if err := binary.Write(&buf, byteOrder, fe); err != nil {
			return errors.Wrap(err, "write entry")
		}
	}

	buf.Write(byteOrder.AppendUint64(nil, xxhash.Sum64(buf.Bytes())))

	_, err = w.Write(buf.Bytes())
	return errors.Wrap(err, "Write")
}

// Decode replaces the contents of the index with the entries read from r.
// The encoded signature must match sig. Pages are renumbered in the order
// they were stored and the index is final afterwards.
//
// On error the index is left unchanged.
func (idx *Index) Decode(r io.Reader, sig page.Signature) error {
	loaded, got, err := Read(r)
	if err != nil {
		return err
	}
	if got != sig {
		return errors.WithStack(ErrSignature)
	}

	*idx = *loaded
	return nil
}

// Read decodes an index and the signature it was stored with.
func Read(r io.Reader) (*Index, page.Signature, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, page.Signature{}, errors.Wrap(err, "ReadAll")
	}

	if len(data) < 1 {
		return nil, page.Signature{}, errors.Wrap(io.ErrUnexpectedEOF, "read version")
	}
	if data[0] != Version {
		return nil, page.Signature{}, errors.Wrapf(ErrVersion, "got version %d, want %d", data[0], Version)
	}
	if len(data) < headerSize+4+checksumSize {
		return nil, page.Signature{}, errors.Wrap(io.ErrUnexpectedEOF, "read header")
	}

	body, sum := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	if xxhash.Sum64(body) != byteOrder.Uint64(sum) {
		return nil, page.Signature{}, errors.WithStack(ErrChecksum)
	}

	rd := bytes.NewReader(body)
	var hdr fileHeader
	if err := binary.Read(rd, byteOrder, &hdr); err != nil {
		return nil, page.Signature{}, errors.Wrap(err, "read header")
	}

	var n uint32
	if err := binary.Read(rd, byteOrder, &n); err != nil {
		return nil, page.Signature{}, errors.Wrap(err, "read entry count")
	}
	if int64(rd.Len()) != int64(n)*entrySize {
		return nil, page.Signature{}, errors.Errorf("invalid index length: %d entries, %d bytes", n, rd.Len())
	}

	loaded := New()
	loaded.m.entries = make([]indexEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		var fe fileEntry
		if err := binary.Read(rd, byteOrder, &fe); err != nil {
			return nil, page.Signature{}, errors.Wrap(err, "read entry")
		}
		id := page.ID{Section: int(fe.Section), Offset: int(fe.Offset)}
		if fe.Section < 0 || fe.Offset < 0 {
			return nil, page.Signature{}, errors.Errorf("invalid page %v", id)
		}
		if last := loaded.m.len() - 1; last >= 0 && !loaded.m.entries[last].id.Less(id) {
			return nil, page.Signature{}, errors.Errorf("page %v out of order", id)
		}
		loaded.m.entries = append(loaded.m.entries, indexEntry{
			id:   id,
			info: page.Info{Size: fe.Size, Number: page.Unnumbered},
		})
	}

	loaded.Finalize()
	if err := loaded.Verify(); err != nil {
		return nil, page.Signature{}, err
	}

	return loaded, hdr.Signature, nil
}
