package spreadsheet

import "strings"

// evalContext is the per-evaluation handle an ASTNode.Eval uses to resolve
// references, ranges, and defined names against a workbook, and to
// dispatch function calls. It carries no dependency-graph bookkeeping:
// edges are discovered once, statically, when a formula is set
// (collectDependencies below), not rediscovered on every evaluation.
type evalContext struct {
	wb    *Workbook
	sheet string // default sheet for an unqualified reference
	clock Clock
	rng   RandomGenerator
}

func (ctx *evalContext) qualify(ref CellRef) CellRef {
	if ref.Sheet == "" {
		ref.Sheet = ctx.sheet
	}
	return ref
}

func (ctx *evalContext) resolveCell(ref CellRef) Value {
	ref = ctx.qualify(ref)
	ws, appErr := ctx.wb.Sheet(ref.Sheet)
	if appErr != nil {
		return ErrorValue(NewEvalError(ErrorRef, ""))
	}
	return cellToValue(ctx.wb, ws.GetCell(ref.Row, ref.Col))
}

// resolveRange flattens rng into a row-major []Value. A range spanning
// more than maxRangeCells (one million) cells is rejected rather than materialized, per
// this engine's resource model (spec.md §5).
const maxRangeCells = 1_000_000

func (ctx *evalContext) resolveRange(rng RangeRef) ([]Value, *EvalError) {
	start, end := rng.Start, rng.End
	if start.Sheet == "" {
		start.Sheet = ctx.sheet
	}
	if end.Sheet == "" {
		end.Sheet = start.Sheet
	}
	ws, appErr := ctx.wb.Sheet(start.Sheet)
	if appErr != nil {
		return nil, NewEvalError(ErrorRef, "")
	}
	minRow, maxRow := start.Row, end.Row
	if minRow > maxRow {
		minRow, maxRow = maxRow, minRow
	}
	minCol, maxCol := start.Col, end.Col
	if minCol > maxCol {
		minCol, maxCol = maxCol, minCol
	}
	if (maxRow-minRow+1)*(maxCol-minCol+1) > maxRangeCells {
		return nil, NewEvalError(ErrorVal, "range too large")
	}
	values := make([]Value, 0, (maxRow-minRow+1)*(maxCol-minCol+1))
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			values = append(values, cellToValue(ctx.wb, ws.GetCell(r, c)))
		}
	}
	return values, nil
}

func (ctx *evalContext) resolveName(name string) Value {
	dn, ok := ctx.wb.DefinedNameLookup(name)
	if !ok {
		return ErrorValue(NewEvalError(ErrorName, ""))
	}
	if dn.Range.Start == dn.Range.End {
		return ctx.resolveCell(dn.Range.Start)
	}
	values, err := ctx.resolveRange(dn.Range)
	if err != nil {
		return ErrorValue(err)
	}
	if len(values) == 0 {
		return ErrorValue(NewEvalError(ErrorRef, ""))
	}
	return values[0]
}

func (ctx *evalContext) callFunction(name string, args []Arg) Value {
	return callBuiltin(ctx, name, args)
}

// cellToValue reads a Cell's current value, resolving shared-string IDs
// against the workbook's StringTable and treating an unevaluated formula
// cell (just entered, not yet recalculated) as empty rather than an
// error, matching Excel's "blank until first calc" behavior.
func cellToValue(wb *Workbook, c Cell) Value {
	switch c.Kind {
	case KindEmpty, KindUnevaluated:
		return NumberValue(0)
	case KindBool:
		return BooleanValueOf(c.BoolValue)
	case KindNumberLiteral:
		return NumberValue(c.NumberValue)
	case KindShared:
		return TextValue(wb.Strings.Get(c.StringID))
	case KindErrorLiteral:
		return ErrorValue(NewEvalError(c.ErrorKind, ""))
	case KindFormulaBool:
		return BooleanValueOf(c.BoolValue)
	case KindFormulaNumber:
		return NumberValue(c.NumberValue)
	case KindFormulaString:
		if c.StringID >= 0 {
			return TextValue(wb.Strings.Get(c.StringID))
		}
		return TextValue(c.Origin)
	case KindFormulaError:
		return ErrorValue(&EvalError{Kind: c.ErrorKind, Origin: c.Origin})
	}
	return NumberValue(0)
}

// volatileFunctions are functions whose result can change without any of
// their arguments changing, so any cell calling one must be recalculated
// on every Evaluate pass (spec.md §4.4).
var volatileFunctions = map[string]bool{
	"NOW": true, "TODAY": true, "RAND": true,
}

// collectDependencies statically walks a formula's AST once, at the time
// it is set (see Model.SetUserInput in model.go), gathering every cell
// and range it reads plus whether it calls a volatile function. This is
// what lets GetCalculationOrder compute a valid bottom-up order before
// any evaluation happens, rather than discovering edges lazily while
// evaluating (which would need a precedent's value before knowing to
// evaluate it first).
func collectDependencies(ast ASTNode) (cells []CellRef, ranges []RangeRef, volatile bool) {
	var walk func(n ASTNode)
	walk = func(n ASTNode) {
		switch t := n.(type) {
		case *ReferenceNode:
			cells = append(cells, t.Ref)
		case *RangeNode:
			ranges = append(ranges, t.Range)
		case *BinaryOpNode:
			walk(t.Left)
			walk(t.Right)
		case *UnaryOpNode:
			walk(t.Operand)
		case *FunctionCallNode:
			if volatileFunctions[strings.ToUpper(t.Name)] {
				volatile = true
			}
			for _, a := range t.Args {
				walk(a)
			}
		}
	}
	walk(ast)
	return cells, ranges, volatile
}
