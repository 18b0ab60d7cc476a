package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDOrder(t *testing.T) {
	a := ID{Section: 0, Offset: 900}
	b := ID{Section: 1, Offset: 0}
	c := ID{Section: 1, Offset: 10}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
	assert.Zero(t, b.Compare(b))
	assert.Equal(t, 1, c.Compare(b))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("3:1024")
	require.NoError(t, err)
	assert.Equal(t, ID{Section: 3, Offset: 1024}, id)
	assert.Equal(t, "3:1024", id.String())

	for _, s := range []string{"", "3", "3:", ":4", "-1:0", "1:x", "1:2:3"} {
		_, err := ParseID(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestInfo(t *testing.T) {
	hidden := Info{Size: -12, Number: Unnumbered}
	assert.False(t, hidden.Displayable())
	assert.Equal(t, 12, hidden.Length())

	shown := Info{Size: 12}
	assert.True(t, shown.Displayable())
	assert.Equal(t, 12, shown.Length())
}

func TestSignatureChangesWithParams(t *testing.T) {
	base := Params{DeviceID: 1, FontSize: 10, FontFamily: "serif"}
	sig := base.Signature()
	assert.Equal(t, sig, base.Signature())

	changes := []func(p *Params){
		func(p *Params) { p.Orientation = Landscape },
		func(p *Params) { p.ShowTitle = true },
		func(p *Params) { p.ShowImages = true },
		func(p *Params) { p.FontSize = 11 },
		func(p *Params) { p.CustomFonts = true },
		func(p *Params) { p.FontFamily = "sans" },
		func(p *Params) { p.DeviceID = 2 },
	}
	for i, change := range changes {
		p := base
		change(&p)
		assert.NotEqual(t, sig, p.Signature(), "change %d", i)
	}
}

func TestBookID(t *testing.T) {
	id := NewBookID("/books/moby-dick")
	assert.False(t, id.IsNull())
	assert.Len(t, id.Str(), 2*shortStr)

	parsed, err := ParseBookID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseBookID("abc")
	assert.Error(t, err)

	set := NewBookIDSet(id)
	assert.True(t, set.Has(id))
	assert.False(t, set.Has(NewBookID("/books/other")))
}

func TestParseOrientation(t *testing.T) {
	for _, o := range []Orientation{Portrait, Landscape} {
		parsed, err := ParseOrientation(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}

	o, err := ParseOrientation("")
	require.NoError(t, err)
	assert.Equal(t, Portrait, o)

	_, err = ParseOrientation("upside-down")
	assert.Error(t, err)
}
