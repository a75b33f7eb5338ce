package board

// Zobrist keys. The board size is part of the hash so that positions of
// different sizes never share a table slot.
var (
	zobristStone      [2][NumCells]uint64
	zobristSize       [MaxSize + 1][MaxSize + 1]uint64
	zobristSideToMove uint64
)

func init() {
	// xorshift64* with a fixed seed keeps hashes stable across runs, which
	// the on-disk database relies on.
	state := uint64(0x98F107A2BEEF1234)
	next := func() uint64 {
		state ^= state >> 12
		state ^= state << 25
		state ^= state >> 27
		return state * 0x2545F4914F6CDD1D
	}

	for col := Black; col <= White; col++ {
		for c := 0; c < NumCells; c++ {
			zobristStone[col][c] = next()
		}
	}
	for w := 0; w < MaxSize + 1; w++ {
		for h := 0; h < MaxSize + 1; h++ {
			zobristSize[w][h] = next()
		}
	}
	zobristSideToMove = next()
}
