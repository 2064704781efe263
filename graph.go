package spreadsheet

import "sync"

// cellKey identifies a cell's position for dependency-graph purposes,
// independent of the $-absolute/relative display flags a CellRef also
// carries — two references to the same sheet/row/column are the same
// node regardless of how they were written in the formula.
type cellKey struct {
	Sheet string
	Row   int
	Col   int
}

func keyOf(r CellRef) cellKey { return cellKey{Sheet: r.Sheet, Row: r.Row, Col: r.Col} }

type dependencyNode struct {
	precedents map[cellKey]struct{}
	dependents map[cellKey]struct{}
	dirty      bool
}

func newDependencyNode() *dependencyNode {
	return &dependencyNode{
		precedents: make(map[cellKey]struct{}),
		dependents: make(map[cellKey]struct{}),
	}
}

// rangeDependency records that dependent's formula reads the rectangle
// Range on Sheet, so any edit landing inside that rectangle must dirty
// dependent even though there is no per-cell edge for every cell in it.
type rangeDependency struct {
	Range     RangeRef
	Dependent cellKey
}

// DependencyGraph tracks precedent/dependent edges between cells across
// the whole workbook, keyed by absolute (sheet, row, column) rather than
// the teacher's worksheet-ID-plus-relative-offset scheme, since this
// evaluator's references are always absolute (reference.go). Calculation
// order and cycle detection follow the teacher's 3-state DFS.
type DependencyGraph struct {
	mu       sync.Mutex
	nodes    map[cellKey]*dependencyNode
	ranges   map[string][]rangeDependency // keyed by sheet name, for dirty propagation
	rangeOf  map[cellKey][]RangeRef       // keyed by dependent, for topological ordering
	volatile map[cellKey]struct{}
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[cellKey]*dependencyNode),
		ranges:   make(map[string][]rangeDependency),
		rangeOf:  make(map[cellKey][]RangeRef),
		volatile: make(map[cellKey]struct{}),
	}
}

func (g *DependencyGraph) getOrCreate(k cellKey) *dependencyNode {
	n, ok := g.nodes[k]
	if !ok {
		n = newDependencyNode()
		g.nodes[k] = n
	}
	return n
}

// AddCellDependency records that dependent's formula reads precedent.
func (g *DependencyGraph) AddCellDependency(dependent, precedent CellRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	dk, pk := keyOf(dependent), keyOf(precedent)
	g.getOrCreate(dk).precedents[pk] = struct{}{}
	g.getOrCreate(pk).dependents[dk] = struct{}{}
}

// AddRangeDependency records that dependent's formula reads every cell in
// rng on sheet (an aggregate function argument such as SUM(A1:A100)).
func (g *DependencyGraph) AddRangeDependency(dependent CellRef, rng RangeRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sheet := rng.Start.Sheet
	dk := keyOf(dependent)
	g.getOrCreate(dk)
	g.ranges[sheet] = append(g.ranges[sheet], rangeDependency{Range: rng, Dependent: dk})
	g.rangeOf[dk] = append(g.rangeOf[dk], rng)
}

// MarkVolatile flags ref as always-dirty (NOW, TODAY, RAND), so every
// Evaluate pass recomputes it regardless of dependency state.
func (g *DependencyGraph) MarkVolatile(ref CellRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.volatile[keyOf(ref)] = struct{}{}
}

// MarkDirty flags ref and every transitive dependent (direct edges and
// range-overlap edges) as needing recalculation.
func (g *DependencyGraph) MarkDirty(ref CellRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markDirtyLocked(keyOf(ref))
}

func (g *DependencyGraph) markDirtyLocked(k cellKey) {
	n, ok := g.nodes[k]
	if ok {
		if n.dirty {
			return
		}
		n.dirty = true
		for dk := range n.dependents {
			g.markDirtyLocked(dk)
		}
	} else {
		n = newDependencyNode()
		n.dirty = true
		g.nodes[k] = n
	}
	for _, rd := range g.ranges[k.Sheet] {
		if rd.Range.InRange(k.Row, k.Col) {
			g.markDirtyLocked(rd.Dependent)
		}
	}
}

// RemoveNode drops ref from the graph entirely, severing its edges in
// both directions. Used when a cell is overwritten or cleared
// (Model.SetUserInput).
func (g *DependencyGraph) RemoveNode(ref CellRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := keyOf(ref)
	n, ok := g.nodes[k]
	if !ok {
		return
	}
	for pk := range n.precedents {
		if pn, ok := g.nodes[pk]; ok {
			delete(pn.dependents, k)
		}
	}
	for dk := range n.dependents {
		if dn, ok := g.nodes[dk]; ok {
			delete(dn.precedents, k)
		}
	}
	delete(g.nodes, k)
	delete(g.volatile, k)
	delete(g.rangeOf, k)
	for sheet, deps := range g.ranges {
		kept := deps[:0]
		for _, rd := range deps {
			if rd.Dependent != k {
				kept = append(kept, rd)
			}
		}
		g.ranges[sheet] = kept
	}
}

const (
	dfsUnvisited = iota
	dfsVisiting
	dfsDone
)

// GetCalculationOrder returns the dirty cells reachable from roots in a
// valid bottom-up evaluation order (precedents before dependents), or a
// circular-reference error if a cycle exists among them.
func (g *DependencyGraph) GetCalculationOrder(roots []CellRef) ([]CellRef, *EvalError) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := make(map[cellKey]int)
	var order []cellKey
	var visit func(k cellKey) *EvalError
	visit = func(k cellKey) *EvalError {
		switch state[k] {
		case dfsDone:
			return nil
		case dfsVisiting:
			return circularReferenceError()
		}
		state[k] = dfsVisiting
		if n, ok := g.nodes[k]; ok {
			for pk := range n.precedents {
				if err := visit(pk); err != nil {
					return err
				}
			}
		}
		// Range-dependency precedents: every known node within a range this
		// cell reads must be visited first, even though there is no direct
		// per-cell edge for it (see AddRangeDependency).
		for _, rng := range g.rangeOf[k] {
			for pk := range g.nodes {
				if pk == k || pk.Sheet != rng.Start.Sheet {
					continue
				}
				if rng.InRange(pk.Row, pk.Col) {
					if err := visit(pk); err != nil {
						return err
					}
				}
			}
		}
		state[k] = dfsDone
		order = append(order, k)
		return nil
	}

	for _, r := range roots {
		if err := visit(keyOf(r)); err != nil {
			return nil, err
		}
	}
	for k := range g.volatile {
		if err := visit(k); err != nil {
			return nil, err
		}
	}

	result := make([]CellRef, 0, len(order))
	for _, k := range order {
		if n := g.nodes[k]; n == nil || n.dirty || g.isVolatile(k) {
			result = append(result, CellRef{Sheet: k.Sheet, Row: k.Row, Col: k.Col})
		}
	}
	return result, nil
}

func (g *DependencyGraph) isVolatile(k cellKey) bool {
	_, ok := g.volatile[k]
	return ok
}

// DirtyCells returns every cell currently marked dirty, used by Model's
// Evaluate to seed GetCalculationOrder.
func (g *DependencyGraph) DirtyCells() []CellRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []CellRef
	for k, n := range g.nodes {
		if n.dirty {
			out = append(out, CellRef{Sheet: k.Sheet, Row: k.Row, Col: k.Col})
		}
	}
	return out
}

// ClearDirty marks every node in the graph clean, called once a
// calculation pass finishes, including one stopped by a cycle.
func (g *DependencyGraph) ClearDirty() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range g.nodes {
		n.dirty = false
	}
}

// GetAffectedCells returns every cell transitively dependent on ref, in
// discovery order (not sorted), used by Model.SetUserInput to know which
// formulas need re-evaluation after a cell changes.
func (g *DependencyGraph) GetAffectedCells(ref CellRef) []CellRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	seen := make(map[cellKey]struct{})
	var walk func(k cellKey)
	var out []CellRef
	walk = func(k cellKey) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, CellRef{Sheet: k.Sheet, Row: k.Row, Col: k.Col})
		if n, ok := g.nodes[k]; ok {
			for dk := range n.dependents {
				walk(dk)
			}
		}
		for _, rd := range g.ranges[k.Sheet] {
			if rd.Range.InRange(k.Row, k.Col) {
				walk(rd.Dependent)
			}
		}
	}
	walk(keyOf(ref))
	if len(out) > 0 {
		out = out[1:] // exclude ref itself
	}
	return out
}
