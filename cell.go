package spreadsheet

import (
	"encoding/json"
	"fmt"
)

// CellKind tags the ten variants of the on-disk Cell shape pinned by
// spec.md §3: t ∈ {empty,b,n,e,s,u,fb,fn,str,fe}. Literal cells (b, n, s,
// e) hold their value directly; formula cells (fb, fn, str, fe) hold a
// shared-formula reference plus the cached result of the last
// calculation, tagged by that result's own kind. "u" is a formula cell
// whose result has not been calculated yet (just entered).
type CellKind string

const (
	KindEmpty           CellKind = "empty"
	KindBool            CellKind = "b"
	KindNumberLiteral   CellKind = "n"
	KindErrorLiteral    CellKind = "e"
	KindShared          CellKind = "s"
	KindUnevaluated     CellKind = "u"
	KindFormulaBool     CellKind = "fb"
	KindFormulaNumber   CellKind = "fn"
	KindFormulaString   CellKind = "str"
	KindFormulaError    CellKind = "fe"
)

// Cell is a single worksheet cell in tagged-union form. Only the fields
// relevant to Kind are meaningful; the rest sit at their zero value. This
// mirrors the teacher's single-struct Cell rather than a Go interface, so
// JSON (de)serialization stays a flat, predictable shape.
type Cell struct {
	Kind CellKind

	BoolValue   bool
	NumberValue float64
	StringID    int // index into the workbook's shared-string table
	ErrorKind   ErrorKind
	// Origin is the "Sheet!A1" address an error result originated from on
	// fe cells (spec.md §7); on a str cell with StringID -1 it holds the
	// inline text result instead.
	Origin string

	// FormulaID indexes the owning worksheet's shared-formula table; set
	// on u, fb, fn, str, fe.
	FormulaID int
}

func EmptyCell() Cell { return Cell{Kind: KindEmpty} }

func NewBoolCell(v bool) Cell { return Cell{Kind: KindBool, BoolValue: v} }

func NewNumberCell(v float64) Cell { return Cell{Kind: KindNumberLiteral, NumberValue: v} }

func NewErrorCell(kind ErrorKind) Cell { return Cell{Kind: KindErrorLiteral, ErrorKind: kind} }

func NewSharedStringCell(stringID int) Cell { return Cell{Kind: KindShared, StringID: stringID} }

func NewUnevaluatedFormulaCell(formulaID int) Cell {
	return Cell{Kind: KindUnevaluated, FormulaID: formulaID}
}

// IsFormula reports whether the cell is one of the formula variants
// (u, fb, fn, str, fe), as opposed to a literal or empty cell.
func (c Cell) IsFormula() bool {
	switch c.Kind {
	case KindUnevaluated, KindFormulaBool, KindFormulaNumber, KindFormulaString, KindFormulaError:
		return true
	}
	return false
}

func (c Cell) IsEmpty() bool { return c.Kind == KindEmpty }

// WithCachedResult returns a copy of c (which must be a formula cell)
// re-tagged to reflect the outcome of the most recent calculation, the
// way the evaluator stores a fresh Value back onto its originating cell.
func (c Cell) WithCachedResult(v Value) Cell {
	out := c
	switch v.Kind {
	case KindBoolean:
		out.Kind = KindFormulaBool
		out.BoolValue = v.Bool
	case KindNumber:
		out.Kind = KindFormulaNumber
		out.NumberValue = v.Num
	case KindText:
		out.Kind = KindFormulaString
		out.StringID = -1 // resolved against the string table by the caller
		out.Origin = v.Text
	case KindError:
		out.Kind = KindFormulaError
		out.ErrorKind = v.Err.Kind
		out.Origin = v.Err.Origin
	}
	return out
}

// cellJSON is the wire shape for Cell, matching spec.md §3's tagged-union
// serde contract with discriminator field "t".
type cellJSON struct {
	T         CellKind  `json:"t"`
	Bool      *bool     `json:"b,omitempty"`
	Number    *float64  `json:"n,omitempty"`
	StringID  *int      `json:"s,omitempty"`
	Error     *string   `json:"e,omitempty"`
	Origin    *string   `json:"o,omitempty"`
	FormulaID *int      `json:"f,omitempty"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	w := cellJSON{T: c.Kind}
	switch c.Kind {
	case KindBool, KindFormulaBool:
		w.Bool = &c.BoolValue
	case KindNumberLiteral, KindFormulaNumber:
		w.Number = &c.NumberValue
	case KindShared:
		w.StringID = &c.StringID
	case KindFormulaString:
		if c.StringID >= 0 {
			w.StringID = &c.StringID
		} else {
			w.Origin = &c.Origin
		}
	case KindErrorLiteral, KindFormulaError:
		s := c.ErrorKind.String()
		w.Error = &s
		if c.Origin != "" {
			w.Origin = &c.Origin
		}
	}
	if c.IsFormula() {
		w.FormulaID = &c.FormulaID
	}
	return json.Marshal(w)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var w cellJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.Kind = w.T
	if w.Bool != nil {
		c.BoolValue = *w.Bool
	}
	if w.Number != nil {
		c.NumberValue = *w.Number
	}
	if w.StringID != nil {
		c.StringID = *w.StringID
	} else {
		c.StringID = -1
	}
	if w.Error != nil {
		kind, ok := ParseErrorKind(*w.Error)
		if !ok {
			return fmt.Errorf("spreadsheet: unknown error kind %q", *w.Error)
		}
		c.ErrorKind = kind
	}
	if w.Origin != nil {
		c.Origin = *w.Origin
	}
	if w.FormulaID != nil {
		c.FormulaID = *w.FormulaID
	}
	return nil
}
