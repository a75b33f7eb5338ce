package board

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePosition parses a position string such as "3/1B1/3 w".
// Rows run from row 1 to the last row; B and W are stones and decimal
// numbers are runs of empty cells. The side to move defaults to the
// color with fewer stones (Black on ties) when omitted.
func ParsePosition(s string) (*Position, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return nil, fmt.Errorf("%w: need rows and optional side to move, got %q", ErrInvalidPosition, s)
	}

	rows := strings.Split(parts[0], "/")
	height := len(rows)
	width := -1
	var black, white Bitset
	for r, row := range rows {
		col := 0
		for i := 0; i < len(row); {
			ch := row[i]
			switch {
			case ch >= '0' && ch <= '9':
				j := i
				for j < len(row) && row[j] >= '0' && row[j] <= '9' {
					j++
				}
				n, _ := strconv.Atoi(row[i:j])
				col += n
				i = j
				continue
			case ch == 'B' || ch == 'b':
				black = black.Set(NewCell(col, r))
			case ch == 'W' || ch == 'w':
				white = white.Set(NewCell(col, r))
			case ch == '.':
			default:
				return nil, fmt.Errorf("%w: invalid character %q in row %d", ErrInvalidPosition, ch, r+1)
			}
			col++
			i++
			if col > MaxSize {
				return nil, fmt.Errorf("%w: too many cells in row %d", ErrInvalidPosition, r+1)
			}
		}
		if width == -1 {
			width = col
		} else if col != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidPosition, r+1, col, width)
		}
	}

	geo, err := NewGeometry(width, height)
	if err != nil {
		return nil, err
	}

	toPlay := Black
	if black.Count() > white.Count() {
		toPlay = White
	}
	if len(parts) == 2 {
		if toPlay, err = ParseColor(parts[1]); err != nil {
			return nil, err
		}
	}
	return FromStones(geo, black, white, toPlay)
}

// MustParsePosition is like ParsePosition but panics on error.
func MustParsePosition(s string) *Position {
	p, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Notation returns the position string accepted by ParsePosition.
func (p *Position) Notation() string {
	var sb strings.Builder
	for r := 0; r < p.geo.height; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		run := 0
		for c := 0; c < p.geo.width; c++ {
			col := p.ColorAt(NewCell(c, r))
			if col == Empty {
				run++
				continue
			}
			if run > 0 {
				sb.WriteString(strconv.Itoa(run))
				run = 0
			}
			sb.WriteByte(col.Char())
		}
		if run > 0 {
			sb.WriteString(strconv.Itoa(run))
		}
	}
	if p.toPlay == Black {
		sb.WriteString(" b")
	} else {
		sb.WriteString(" w")
	}
	return sb.String()
}
