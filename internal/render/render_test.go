package render

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/hexsolver/internal/board"
)

func rgb(hex string) color.RGBA {
	var c color.RGBA
	c.A = 0xff
	for i, p := range []*uint8{&c.R, &c.G, &c.B} {
		var v uint8
		for _, ch := range hex[1+2*i : 3+2*i] {
			v <<= 4
			switch {
			case ch >= '0' && ch <= '9':
				v |= uint8(ch - '0')
			default:
				v |= uint8(ch-'a') + 10
			}
		}
		*p = v
	}
	return c
}

func cell(t *testing.T, name string) board.Cell {
	t.Helper()
	c, err := board.ParseCell(name)
	require.NoError(t, err)
	return c
}

func TestSVGDrawsEveryCell(t *testing.T) {
	pos := board.MustParsePosition("3/1B1/1W1 w")
	opts := DefaultOptions()
	opts.Proof = board.NewBitset(cell(t, "a1"), cell(t, "b1"))
	opts.Mark = cell(t, "c1")
	svg := SVG(pos, opts)

	assert.Equal(t, 9, strings.Count(svg, "<polygon"))
	assert.Equal(t, 2, strings.Count(svg, `fill="`+proofFill+`"`))
	assert.Equal(t, 4, strings.Count(svg, "<line"))
	assert.Equal(t, 1, strings.Count(svg, moveRing))
	// two stones and the ring
	assert.Equal(t, 3, strings.Count(svg, "<circle"))
}

func TestPNG(t *testing.T) {
	pos := board.MustParsePosition("3/1B1/3 w")
	opts := DefaultOptions()
	opts.Proof = board.NewBitset(cell(t, "b1"), cell(t, "b3"))

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, pos, opts))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	l := newLayout(pos.Geometry(), opts.CellSize)
	assert.Equal(t, l.width, img.Bounds().Dx())
	assert.Equal(t, l.height, img.Bounds().Dy())

	at := func(name string) color.RGBA {
		x, y := l.center(cell(t, name))
		return color.RGBAModel.Convert(img.At(int(x), int(y))).(color.RGBA)
	}
	assert.Equal(t, rgb(blackStone), at("b2"))
	assert.Equal(t, rgb(proofFill), at("b1"))
	assert.Equal(t, rgb(emptyFill), at("a3"))
}

func TestLayoutNeighboursAreAdjacent(t *testing.T) {
	l := newLayout(board.MustGeometry(4, 4), 10)
	x0, y0 := l.center(board.NewCell(1, 1))
	for _, c := range []board.Cell{board.NewCell(2, 0), board.NewCell(0, 2), board.NewCell(2, 1), board.NewCell(1, 2)} {
		x, y := l.center(c)
		d2 := (x-x0)*(x-x0) + (y-y0)*(y-y0)
		// neighbouring hexagon centres are sqrt(3)*r apart
		assert.InDelta(t, 300.0, d2, 0.01, c.String())
	}
}
