package page

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Orientation of the display while laying out pages.
type Orientation uint8

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	}
	return "invalid"
}

// ParseOrientation parses the names returned by Orientation.String.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "", "portrait":
		return Portrait, nil
	case "landscape":
		return Landscape, nil
	}
	return Portrait, errors.Errorf("invalid orientation %q", s)
}

// Params are the rendering parameters that influence where page boundaries
// fall. Any change to them invalidates a computed index.
type Params struct {
	DeviceID    uint32
	Orientation Orientation
	ShowTitle   bool
	ShowImages  bool
	FontSize    uint16
	CustomFonts bool
	FontFamily  string
}

// Signature is the fixed-size snapshot of Params stored alongside a page
// index. The font family is folded into FontID.
type Signature struct {
	DeviceID    uint32
	Orientation Orientation
	ShowTitle   bool
	ShowImages  bool
	FontSize    uint16
	CustomFonts bool
	FontID      uint64
}

// Signature returns the signature identifying p.
func (p Params) Signature() Signature {
	return Signature{
		DeviceID:    p.DeviceID,
		Orientation: p.Orientation,
		ShowTitle:   p.ShowTitle,
		ShowImages:  p.ShowImages,
		FontSize:    p.FontSize,
		CustomFonts: p.CustomFonts,
		FontID:      FontID(p.FontFamily),
	}
}

// FontID returns the identity of a font family name.
func FontID(family string) uint64 {
	return xxhash.Sum64String(family)
}
