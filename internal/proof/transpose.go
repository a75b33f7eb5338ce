package proof

import "github.com/hailam/hexsolver/internal/board"

// Transpositions returns up to limit positions, other than pos, with the
// same verdict. The winner's stones stay put and the loser's stones are
// redistributed over the cells outside the proof, which the loser may own
// without changing the outcome. Stone counts and the side to move are
// unchanged.
func Transpositions(pos *board.Position, proof board.Bitset, winner board.Color, limit int) []*board.Position {
	if limit <= 0 {
		return nil
	}
	loser := winner.Other()
	geo := pos.Geometry()
	outside := pos.EmptyCells().AndNot(proof).Or(pos.Stones(loser)).Cells()
	k := pos.Stones(loser).Count()
	if k == 0 || k >= len(outside) {
		return nil
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	var out []*board.Position
	for {
		var ls board.Bitset
		for _, i := range idx {
			ls = ls.Set(outside[i])
		}
		if ls != pos.Stones(loser) {
			var stones [2]board.Bitset
			stones[winner] = pos.Stones(winner)
			stones[loser] = ls
			t, err := board.FromStones(geo, stones[board.Black], stones[board.White], pos.ToPlay())
			if err == nil {
				out = append(out, t)
				if len(out) == limit {
					return out
				}
			}
		}
		if !nextCombination(idx, len(outside)) {
			return out
		}
	}
}

// nextCombination advances idx to the next k-subset of [0, n) in
// lexicographic order.
func nextCombination(idx []int, n int) bool {
	k := len(idx)
	i := k - 1
	for i >= 0 && idx[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	idx[i]++
	for j := i + 1; j < k; j++ {
		idx[j] = idx[j-1] + 1
	}
	return true
}
