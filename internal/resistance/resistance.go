// Package resistance evaluates Hex positions as electrical circuits.
//
// Each color's groups and the empty cells form a resistor network between
// that color's two edges. The current flowing through a cell measures how
// much both sides rely on it, which makes it a good move ordering key.
package resistance

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hailam/hexsolver/internal/board"
)

// ErrSingular reports a circuit the linear solver could not factor.
var ErrSingular = errors.New("singular conductance matrix")

// leak ties every node weakly to the sink so that pockets cut off from
// both edges keep the matrix positive definite.
const leak = 1e-9

// Conductances between adjacent nodes of one color's circuit.
type Conductances struct {
	EmptyToEmpty float64
	ColorToEmpty float64
}

// DefaultConductances returns the usual values.
func DefaultConductances() Conductances {
	return Conductances{EmptyToEmpty: 1, ColorToEmpty: 2}
}

// Evaluator computes circuit scores.
type Evaluator struct {
	values Conductances
}

// New creates an evaluator with the default conductances.
func New() *Evaluator {
	return &Evaluator{values: DefaultConductances()}
}

// NewWithConductances creates an evaluator with custom conductances.
func NewWithConductances(v Conductances) *Evaluator {
	return &Evaluator{values: v}
}

// Result holds the evaluation of one position.
type Result struct {
	resistance [2]float64
	energy     [2][board.NumCells]float64
}

// Score returns log(R_white / R_black); positive favours Black.
func (r *Result) Score() float64 {
	return math.Log(r.resistance[board.White] / r.resistance[board.Black])
}

// Resistance returns the edge to edge resistance of col's circuit.
func (r *Result) Resistance(col board.Color) float64 {
	return r.resistance[col]
}

// CellScore returns the current through c summed over both circuits.
// With one unit of current injected it never exceeds 4.
func (r *Result) CellScore(c board.Cell) float64 {
	return r.energy[board.Black][c] + r.energy[board.White][c]
}

// Evaluate computes both circuits of pos.
func (e *Evaluator) Evaluate(pos *board.Position) (*Result, error) {
	r := &Result{}
	for col := board.Black; col <= board.White; col++ {
		if err := e.evaluate(pos, col, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// circuit maps cells to nodes: one node per group of col (edges
// included) and one per empty cell.
type circuit struct {
	node  [board.NumCells]int
	cells board.Bitset // cells that take part
	n     int
}

func newCircuit(pos *board.Position, col board.Color) *circuit {
	geo := pos.Geometry()
	e1, e2 := col.Edges()
	own := pos.Stones(col).Set(e1).Set(e2)

	c := &circuit{cells: own.Or(pos.EmptyCells())}
	for i := range c.node {
		c.node[i] = -1
	}
	for s := c.cells; s.Any(); {
		x := s.PopFirst()
		if c.node[x] >= 0 {
			continue
		}
		if own.Has(x) {
			for g := geo.Reachable(own, board.Bitset{}, x); g.Any(); {
				c.node[g.PopFirst()] = c.n
			}
		} else {
			c.node[x] = c.n
		}
		c.n++
	}
	return c
}

func (e *Evaluator) evaluate(pos *board.Position, col board.Color, r *Result) error {
	geo := pos.Geometry()
	e1, e2 := col.Edges()
	own := pos.Stones(col).Set(e1).Set(e2)
	c := newCircuit(pos, col)
	source, sink := c.node[e1], c.node[e2]

	if source == sink {
		// Already connected: no resistance and no current through cells.
		r.resistance[col] = leak
		return nil
	}

	// Matrix indices skip the sink.
	index := func(node int) int {
		if node > sink {
			return node - 1
		}
		return node
	}
	n := c.n - 1
	linked := make([]bool, c.n*c.n)
	cond := make([]float64, c.n*c.n)
	for s := c.cells; s.Any(); {
		x := s.PopFirst()
		for nb := geo.Neighbors(x).And(c.cells); nb.Any(); {
			y := nb.PopFirst()
			a, b := c.node[x], c.node[y]
			if a == b || linked[a*c.n+b] {
				continue
			}
			v := e.values.EmptyToEmpty
			if own.Has(x) || own.Has(y) {
				v = e.values.ColorToEmpty
			}
			linked[a*c.n+b], linked[b*c.n+a] = true, true
			cond[a*c.n+b], cond[b*c.n+a] = v, v
		}
	}

	g := mat.NewSymDense(n, nil)
	sinkG := make([]float64, c.n)
	for a := 0; a < c.n; a++ {
		if a == sink {
			continue
		}
		ia := index(a)
		g.SetSym(ia, ia, g.At(ia, ia)+leak)
		for b := 0; b < c.n; b++ {
			v := cond[a*c.n+b]
			if v == 0 {
				continue
			}
			g.SetSym(ia, ia, g.At(ia, ia)+v)
			if b == sink {
				sinkG[a] = v
			} else if b > a {
				ib := index(b)
				g.SetSym(ia, ib, g.At(ia, ib)-v)
			}
		}
	}

	current := mat.NewVecDense(n, nil)
	current.SetVec(index(source), 1)

	var chol mat.Cholesky
	if ok := chol.Factorize(g); !ok {
		return ErrSingular
	}
	var volts mat.VecDense
	if err := chol.SolveVecTo(&volts, current); err != nil {
		return errors.Join(ErrSingular, err)
	}
	r.resistance[col] = math.Abs(volts.AtVec(index(source)))

	// Current through each node.
	flow := make([]float64, c.n)
	for a := 0; a < c.n; a++ {
		if a == sink {
			continue
		}
		va := volts.AtVec(index(a))
		sum := math.Abs(sinkG[a] * va)
		for b := 0; b < c.n; b++ {
			if b == sink || b == a || cond[a*c.n+b] == 0 {
				continue
			}
			sum += math.Abs(cond[a*c.n+b] * (va - volts.AtVec(index(b))))
		}
		flow[a] = sum
	}
	for s := pos.EmptyCells(); s.Any(); {
		x := s.PopFirst()
		r.energy[col][x] = flow[c.node[x]]
	}
	return nil
}
