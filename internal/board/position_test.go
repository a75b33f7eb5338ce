package board

import "testing"

func TestPlayUndoRestoresHash(t *testing.T) {
	pos := NewPosition(MustGeometry(5, 5))
	start := pos.Hash()

	moves := []string{"c3", "b2", "d4", "a1"}
	var hashes []uint64
	for _, m := range moves {
		c, err := ParseCell(m)
		if err != nil {
			t.Fatalf("ParseCell(%q): %v", m, err)
		}
		hashes = append(hashes, pos.Hash())
		pos.Play(c)
		if pos.Hash() != pos.ComputeHash() {
			t.Fatalf("incremental hash %016x != computed %016x after %s", pos.Hash(), pos.ComputeHash(), m)
		}
	}
	if pos.NumStones() != 4 || pos.ToPlay() != Black {
		t.Errorf("after 4 moves: stones=%d toPlay=%s", pos.NumStones(), pos.ToPlay())
	}

	for i := len(moves) - 1; i >= 0; i-- {
		pos.Undo()
		if pos.Hash() != hashes[i] {
			t.Errorf("undo %s: hash %016x, want %016x", moves[i], pos.Hash(), hashes[i])
		}
	}
	if pos.Hash() != start || pos.NumStones() != 0 {
		t.Errorf("position not restored: hash=%016x stones=%d", pos.Hash(), pos.NumStones())
	}
}

func TestPlayStonesIsOneAction(t *testing.T) {
	pos := MustParsePosition("3/3/3 b")
	before := pos.Hash()
	pos.PlayStones(White, NewBitset(NewCell(0, 0), NewCell(1, 1), NewCell(2, 2)))

	if pos.ToPlay() != Black {
		t.Errorf("PlayStones changed side to move to %s", pos.ToPlay())
	}
	if got := pos.Stones(White).Count(); got != 3 {
		t.Errorf("white stones = %d, want 3", got)
	}
	if pos.Hash() != pos.ComputeHash() {
		t.Errorf("hash not maintained by PlayStones")
	}
	pos.Undo()
	if pos.Hash() != before || pos.NumStones() != 0 {
		t.Errorf("Undo did not remove the whole fill")
	}
}

func TestSideToMoveChangesHash(t *testing.T) {
	b := MustParsePosition("1B1/3/3 b")
	w := MustParsePosition("1B1/3/3 w")
	if b.Hash() == w.Hash() {
		t.Error("hash ignores side to move")
	}
	small := MustParsePosition("3/3 b")
	big := MustParsePosition("3/3/3 b")
	if small.Hash() == big.Hash() {
		t.Error("hash ignores board size")
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in     string
		width  int
		height int
		black  int
		white  int
		toPlay Color
	}{
		{"1", 1, 1, 0, 0, Black},
		{"3/1B1/3 w", 3, 3, 1, 0, White},
		{"B2/1W1/2B", 3, 3, 2, 1, White},
		{"11/11/11/11/11/11/11/11/11/11/5B5 w", 11, 11, 1, 0, White},
		{"4/4/4 b", 4, 3, 0, 0, Black},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			pos, err := ParsePosition(tt.in)
			if err != nil {
				t.Fatalf("ParsePosition: %v", err)
			}
			g := pos.Geometry()
			if g.Width() != tt.width || g.Height() != tt.height {
				t.Errorf("size %dx%d, want %dx%d", g.Width(), g.Height(), tt.width, tt.height)
			}
			if pos.Stones(Black).Count() != tt.black || pos.Stones(White).Count() != tt.white {
				t.Errorf("stones b=%d w=%d", pos.Stones(Black).Count(), pos.Stones(White).Count())
			}
			if pos.ToPlay() != tt.toPlay {
				t.Errorf("toPlay %s, want %s", pos.ToPlay(), tt.toPlay)
			}
			again, err := ParsePosition(pos.Notation())
			if err != nil || again.Hash() != pos.Hash() {
				t.Errorf("Notation %q does not parse back to the same position", pos.Notation())
			}
		})
	}
}

func TestParsePositionErrors(t *testing.T) {
	for _, in := range []string{"", "3/2 b", "3/3 x", "3/1X1 b", "12 b", "3 b extra"} {
		if _, err := ParsePosition(in); err == nil {
			t.Errorf("ParsePosition(%q) succeeded", in)
		}
	}
}

func TestNeighbors(t *testing.T) {
	g := MustGeometry(3, 3)
	tests := []struct {
		cell string
		want []Cell
	}{
		{"a1", []Cell{NewCell(1, 0), NewCell(0, 1), North, West}},
		{"b2", []Cell{NewCell(1, 0), NewCell(2, 0), NewCell(0, 1), NewCell(2, 1), NewCell(0, 2), NewCell(1, 2)}},
		{"c3", []Cell{NewCell(2, 1), NewCell(1, 2), South, East}},
	}
	for _, tt := range tests {
		c, _ := ParseCell(tt.cell)
		if got := g.Neighbors(c); got != NewBitset(tt.want...) {
			t.Errorf("Neighbors(%s) = %s, want %s", tt.cell, got, NewBitset(tt.want...))
		}
	}
	if g.Neighbors(North).Count() != 3 {
		t.Errorf("north edge touches %d cells, want 3", g.Neighbors(North).Count())
	}
}

func TestConnected(t *testing.T) {
	g := MustGeometry(3, 3)
	column := NewBitset(NewCell(1, 0), NewCell(1, 1), NewCell(1, 2))
	if !g.Connected(column, North, South) {
		t.Error("b1-b2-b3 should connect north and south")
	}
	if g.Connected(column, West, East) {
		t.Error("a single column cannot connect west and east")
	}
	broken := column.Clear(NewCell(1, 1))
	if g.Connected(broken, North, South) {
		t.Error("broken column should not connect")
	}
	one := MustGeometry(1, 1)
	if !one.Connected(NewBitset(NewCell(0, 0)), North, South) || !one.Connected(NewBitset(NewCell(0, 0)), West, East) {
		t.Error("the single cell of a 1x1 board touches all edges")
	}
}

func TestSymmetry(t *testing.T) {
	g := MustGeometry(4, 4)
	for _, c := range g.Cells().Cells() {
		if g.Rotate(g.Rotate(c)) != c {
			t.Fatalf("rotate twice moved %s", c)
		}
		if g.Mirror(g.Mirror(c)) != c {
			t.Fatalf("mirror twice moved %s", c)
		}
		for _, n := range g.Neighbors(c).Cells() {
			if !g.Neighbors(g.Rotate(c)).Has(g.Rotate(n)) {
				t.Errorf("rotation breaks adjacency %s-%s", c, n)
			}
			if !g.Neighbors(g.Mirror(c)).Has(g.Mirror(n)) {
				t.Errorf("mirror breaks adjacency %s-%s", c, n)
			}
		}
	}

	pos := MustParsePosition("B3/4/4/3W b")
	if pos.IsSelfRotation() {
		t.Error("corners of different colors are not self-rotational")
	}
	sym := MustParsePosition("B3/4/4/3B w")
	if !sym.IsSelfRotation() {
		t.Error("corner pair should be self-rotational")
	}
	if sym.Rotated().Hash() != sym.Hash() {
		t.Error("self-rotational position hashes differently when rotated")
	}
	f, ok := pos.Flipped()
	if !ok {
		t.Fatal("square board should flip")
	}
	if f.ToPlay() != White || f.Stones(White).Count() != 1 || f.Stones(Black).Count() != 1 {
		t.Errorf("flipped position has wrong stones or side: %s", f.Notation())
	}
	back, _ := f.Flipped()
	if back.Hash() != pos.Hash() {
		t.Error("flip is not an involution")
	}
}

func TestDistanceFromCenter(t *testing.T) {
	g := MustGeometry(5, 5)
	if d := g.DistanceFromCenter(NewCell(2, 2)); d != 0 {
		t.Errorf("centre distance = %d", d)
	}
	if d := g.DistanceFromCenter(NewCell(3, 1)); d != 1 {
		t.Errorf("adjacent distance = %d", d)
	}
	if d := g.Distance(NewCell(0, 0), NewCell(1, 1)); d != 2 {
		t.Errorf("a1-b2 distance = %d, want 2", d)
	}
}
