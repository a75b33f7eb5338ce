// Package render draws positions and their proofs as PNG images.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/hexsolver/internal/board"
)

// Colors used in the drawing.
const (
	background = "#ffffff"
	emptyFill  = "#e8dcc0"
	proofFill  = "#f5c542"
	gridStroke = "#7a6a4f"
	blackStone = "#202020"
	whiteStone = "#fafafa"
	moveRing   = "#d03030"
)

// Options control the drawing.
type Options struct {
	// CellSize is the hexagon radius in pixels.
	CellSize float64
	// Proof cells are shaded.
	Proof board.Bitset
	// Mark is ringed, typically the first move of the principal variation.
	// board.NoCell marks nothing.
	Mark board.Cell
	// Labels draws column letters and row numbers.
	Labels bool
}

// DefaultOptions returns readable settings with no proof.
func DefaultOptions() Options {
	return Options{CellSize: 24, Mark: board.NoCell, Labels: true}
}

// layout maps cells to pixel coordinates.
type layout struct {
	r      float64
	margin float64
	width  int
	height int
}

func newLayout(geo *board.Geometry, r float64) layout {
	margin := 2 * r
	w := margin*2 + math.Sqrt(3)*r*(float64(geo.Width())+float64(geo.Height()-1)/2)
	h := margin*2 + r*(1.5*float64(geo.Height()-1)+2)
	return layout{r: r, margin: margin, width: int(math.Ceil(w)), height: int(math.Ceil(h))}
}

// center returns the centre of a cell. Rows shift right by half a cell so
// that (col+1, row-1) is the upper right neighbour.
func (l layout) center(c board.Cell) (x, y float64) {
	x = l.margin + math.Sqrt(3)*l.r*(float64(c.Col())+float64(c.Row())/2+0.5)
	y = l.margin + l.r + 1.5*l.r*float64(c.Row())
	return x, y
}

func (l layout) hexagon(c board.Cell) string {
	cx, cy := l.center(c)
	pts := make([]string, 6)
	for i := range pts {
		a := math.Pi/6 + float64(i)*math.Pi/3
		pts[i] = fmt.Sprintf("%.2f,%.2f", cx+l.r*math.Cos(a), cy+l.r*math.Sin(a))
	}
	return strings.Join(pts, " ")
}

// SVG returns the drawing of pos as an SVG document.
func SVG(pos *board.Position, opts Options) string {
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultOptions().CellSize
	}
	geo := pos.Geometry()
	l := newLayout(geo, opts.CellSize)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		l.width, l.height, l.width, l.height)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, l.width, l.height, background)

	// Edges: Black owns the top and bottom rows, White the sides.
	last := geo.Height() - 1
	first, end := board.NewCell(0, 0), board.NewCell(geo.Width()-1, 0)
	edgeLine(&sb, l, first, end, 0, -1, blackStone)
	first, end = board.NewCell(0, last), board.NewCell(geo.Width()-1, last)
	edgeLine(&sb, l, first, end, 0, 1, blackStone)
	first, end = board.NewCell(0, 0), board.NewCell(0, last)
	edgeLine(&sb, l, first, end, -1, 0, gridStroke)
	first, end = board.NewCell(geo.Width()-1, 0), board.NewCell(geo.Width()-1, last)
	edgeLine(&sb, l, first, end, 1, 0, gridStroke)

	for cells := geo.Cells(); cells.Any(); {
		c := cells.PopFirst()
		fill := emptyFill
		if opts.Proof.Has(c) {
			fill = proofFill
		}
		fmt.Fprintf(&sb, `<polygon points="%s" fill="%s" stroke="%s" stroke-width="1"/>`,
			l.hexagon(c), fill, gridStroke)

		cx, cy := l.center(c)
		switch pos.ColorAt(c) {
		case board.Black:
			fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`, cx, cy, 0.6*l.r, blackStone)
		case board.White:
			fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="1"/>`,
				cx, cy, 0.6*l.r, whiteStone, blackStone)
		}
		if c == opts.Mark {
			fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="%s" stroke-width="3"/>`,
				cx, cy, 0.75*l.r, moveRing)
		}
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}

// edgeLine draws a thick bar outside the cells from a to b, pushed out by
// (dx, dy) cell radii.
func edgeLine(sb *strings.Builder, l layout, a, b board.Cell, dx, dy float64, stroke string) {
	x1, y1 := l.center(a)
	x2, y2 := l.center(b)
	ox, oy := dx*1.3*l.r, dy*1.3*l.r
	fmt.Fprintf(sb, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f" stroke-linecap="round"/>`,
		x1+ox, y1+oy, x2+ox, y2+oy, stroke, 0.4*l.r)
}

// Image rasterizes pos.
func Image(pos *board.Position, opts Options) (*image.RGBA, error) {
	if opts.CellSize <= 0 {
		opts.CellSize = DefaultOptions().CellSize
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(SVG(pos, opts)))
	if err != nil {
		return nil, fmt.Errorf("parse board svg: %w", err)
	}
	l := newLayout(pos.Geometry(), opts.CellSize)
	icon.SetTarget(0, 0, float64(l.width), float64(l.height))

	rgba := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	scanner := rasterx.NewScannerGV(l.width, l.height, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(l.width, l.height, scanner)
	icon.Draw(raster, 1.0)

	if opts.Labels {
		if err := drawLabels(rgba, pos.Geometry(), l); err != nil {
			return nil, err
		}
	}
	return rgba, nil
}

// PNG writes the rasterized drawing of pos to w.
func PNG(w io.Writer, pos *board.Position, opts Options) error {
	img, err := Image(pos, opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

var (
	labelFace     font.Face
	labelFaceErr  error
	labelFaceOnce sync.Once
)

func loadLabelFace() (font.Face, error) {
	labelFaceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			labelFaceErr = fmt.Errorf("parse label font: %w", err)
			return
		}
		labelFace, labelFaceErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    12,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return labelFace, labelFaceErr
}

// drawLabels writes column letters above the board and row numbers to the
// left of each row.
func drawLabels(dst *image.RGBA, geo *board.Geometry, l layout) error {
	face, err := loadLabelFace()
	if err != nil {
		return err
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(color.RGBA{0x40, 0x40, 0x40, 0xff}), Face: face}
	text := func(s string, x, y float64) {
		width := d.MeasureString(s)
		d.Dot = fixed.Point26_6{
			X: fixed.I(int(x)) - width/2,
			Y: fixed.I(int(y)),
		}
		d.DrawString(s)
	}
	for col := 0; col < geo.Width(); col++ {
		x, y := l.center(board.NewCell(col, 0))
		text(string(rune('a'+col)), x, y-1.9*l.r)
	}
	for row := 0; row < geo.Height(); row++ {
		x, y := l.center(board.NewCell(0, row))
		text(fmt.Sprint(row+1), x-1.9*l.r, y+4)
	}
	return nil
}
