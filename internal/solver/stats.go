package solver

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hailam/hexsolver/internal/board"
)

// Stats are the counters of one Solve call.
type Stats struct {
	States            uint64 // states visited
	Terminal          uint64
	Internal          uint64
	Expanded          uint64 // children searched by recursion
	WinningExpanded   uint64
	BranchesToWin     uint64 // children tried up to and including the win
	MovesConsidered   uint64
	Pruned            uint64 // ordered moves skipped by proof intersection
	Decompositions    uint64
	DecompositionsWon uint64
	Shrunk            uint64
	CellsRemoved      uint64
	TTHits            uint64

	// DFPN
	MIDCalls     uint64
	SiblingPrune uint64

	Histogram Histogram
}

// Summary formats the counters on a few lines.
func (s Stats) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "states %s (terminal %s, internal %s), tt hits %s\n",
		humanize.Comma(int64(s.States)), humanize.Comma(int64(s.Terminal)),
		humanize.Comma(int64(s.Internal)), humanize.Comma(int64(s.TTHits)))
	if s.MIDCalls > 0 {
		fmt.Fprintf(&sb, "mid calls %s, sibling prunes %s\n",
			humanize.Comma(int64(s.MIDCalls)), humanize.Comma(int64(s.SiblingPrune)))
		return sb.String()
	}
	fmt.Fprintf(&sb, "expanded %s, pruned %s, decompositions %s (won %s)\n",
		humanize.Comma(int64(s.Expanded)), humanize.Comma(int64(s.Pruned)),
		humanize.Comma(int64(s.Decompositions)), humanize.Comma(int64(s.DecompositionsWon)))
	if s.WinningExpanded > 0 {
		fmt.Fprintf(&sb, "branches to win %.2f\n", float64(s.BranchesToWin)/float64(s.WinningExpanded))
	}
	if s.Shrunk > 0 {
		fmt.Fprintf(&sb, "shrunk %s proofs, %.2f cells each\n",
			humanize.Comma(int64(s.Shrunk)), float64(s.CellsRemoved)/float64(s.Shrunk))
	}
	return sb.String()
}

const histogramSize = board.MaxSize*board.MaxSize + 1

// Histogram counts states by number of stones on the board.
type Histogram struct {
	Terminal [histogramSize]uint64
	Internal [histogramSize]uint64
	Winning  [histogramSize]uint64
}

// String prints the non-empty rows.
func (h *Histogram) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%3s %12s %12s %12s %8s\n", "#", "terminal", "internal", "int. win", "win pct")
	for i := 0; i < histogramSize; i++ {
		if h.Terminal[i] == 0 && h.Internal[i] == 0 {
			continue
		}
		pct := 0.0
		if h.Internal[i] > 0 {
			pct = 100 * float64(h.Winning[i]) / float64(h.Internal[i])
		}
		fmt.Fprintf(&sb, "%3d %12s %12s %12s %7.1f%%\n", i,
			humanize.Comma(int64(h.Terminal[i])), humanize.Comma(int64(h.Internal[i])),
			humanize.Comma(int64(h.Winning[i])), pct)
	}
	return sb.String()
}
