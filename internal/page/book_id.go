package page

import (
	"encoding/hex"
	"fmt"

	"github.com/minio/sha256-simd"
)

// bookIDSize contains the size of a BookID, in bytes.
const bookIDSize = sha256.Size

// BookID names the cached page index of one document.
type BookID [bookIDSize]byte

// NewBookID returns the BookID for the identity string of a document, e.g. its
// absolute path or catalog key.
func NewBookID(identity string) BookID {
	return sha256.Sum256([]byte(identity))
}

// ParseBookID converts the given string to a BookID.
func ParseBookID(s string) (BookID, error) {
	if len(s) != hex.EncodedLen(bookIDSize) {
		return BookID{}, fmt.Errorf("invalid length for book ID: %q", s)
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return BookID{}, fmt.Errorf("invalid book ID: %s", err)
	}

	id := BookID{}
	copy(id[:], b)

	return id, nil
}

const shortStr = 4

// Str returns the shortened string version of id.
func (id BookID) Str() string {
	if id.IsNull() {
		return "[null]"
	}
	return hex.EncodeToString(id[:shortStr])
}

func (id BookID) String() string {
	return hex.EncodeToString(id[:])
}

// IsNull returns true iff id only consists of null bytes.
func (id BookID) IsNull() bool {
	var nullID BookID

	return id == nullID
}

// BookIDSet is a set of BookIDs.
type BookIDSet map[BookID]struct{}

// NewBookIDSet returns a new set containing ids.
func NewBookIDSet(ids ...BookID) BookIDSet {
	s := make(BookIDSet, len(ids))
	for _, id := range ids {
		s.Insert(id)
	}
	return s
}

// Has returns true iff id is contained in the set.
func (s BookIDSet) Has(id BookID) bool {
	_, ok := s[id]
	return ok
}

// Insert adds id to the set.
func (s BookIDSet) Insert(id BookID) {
	s[id] = struct{}{}
}
