package spreadsheet

import (
	"sort"
	"sync"
)

// SheetState mirrors the three visibility states a worksheet tab can be
// in, a pass-through shape (spec.md's distillation drops UI visibility
// entirely, but the underlying workbook model still needs to carry it
// faithfully for round-tripping).
type SheetState string

const (
	SheetVisible   SheetState = "visible"
	SheetHidden    SheetState = "hidden"
	SheetVeryHidden SheetState = "veryHidden"
)

// ColumnInfo and RowInfo are opaque pass-through metadata: this engine
// never renders or sizes anything, but a faithful model still carries
// what was set so a round-trip doesn't lose it.
type ColumnInfo struct {
	Width  float64
	Hidden bool
}

type RowInfo struct {
	Height float64
	Hidden bool
}

// FrozenPanes records a worksheet's frozen row/column count (0 means no
// freeze on that axis).
type FrozenPanes struct {
	Rows int
	Cols int
}

// Worksheet is one sheet within a Workbook: a sparse cell grid plus the
// per-sheet shared-formula table formulas on it are interned against
// (spec.md §9's "shared formula table" design note).
type Worksheet struct {
	ID    int
	Name  string
	State SheetState

	// sheetData is row -> column -> Cell, sparse in both dimensions
	// (spec.md §3's sheet_data model), replacing the teacher's dense
	// 256x256 chunk storage which assumed near-full sheets.
	sheetData map[int]map[int]Cell
	Formulas  *FormulaTable

	Frozen  FrozenPanes
	Cols    map[int]ColumnInfo
	Rows    map[int]RowInfo
}

func newWorksheet(id int, name string) *Worksheet {
	return &Worksheet{
		ID:        id,
		Name:      name,
		State:     SheetVisible,
		sheetData: make(map[int]map[int]Cell),
		Formulas:  NewFormulaTable(),
		Cols:      make(map[int]ColumnInfo),
		Rows:      make(map[int]RowInfo),
	}
}

func (w *Worksheet) GetCell(row, col int) Cell {
	cols, ok := w.sheetData[row]
	if !ok {
		return EmptyCell()
	}
	c, ok := cols[col]
	if !ok {
		return EmptyCell()
	}
	return c
}

func (w *Worksheet) SetCell(row, col int, c Cell) {
	if c.IsEmpty() {
		w.RemoveCell(row, col)
		return
	}
	cols, ok := w.sheetData[row]
	if !ok {
		cols = make(map[int]Cell)
		w.sheetData[row] = cols
	}
	cols[col] = c
}

func (w *Worksheet) RemoveCell(row, col int) {
	cols, ok := w.sheetData[row]
	if !ok {
		return
	}
	delete(cols, col)
	if len(cols) == 0 {
		delete(w.sheetData, row)
	}
}

// Dimensions returns the smallest rectangle containing every non-empty
// cell, or ok=false for a sheet with no data.
func (w *Worksheet) Dimensions() (minRow, maxRow, minCol, maxCol int, ok bool) {
	first := true
	for row, cols := range w.sheetData {
		for col := range cols {
			if first {
				minRow, maxRow, minCol, maxCol = row, row, col, col
				first = false
				continue
			}
			if row < minRow {
				minRow = row
			}
			if row > maxRow {
				maxRow = row
			}
			if col < minCol {
				minCol = col
			}
			if col > maxCol {
				maxCol = col
			}
		}
	}
	return minRow, maxRow, minCol, maxCol, !first
}

// OccupiedCells returns every non-empty (row, col) in row-major order,
// the deterministic iteration order the evaluator and shift engine rely
// on (spec.md §4.4 "deterministic evaluation order").
func (w *Worksheet) OccupiedCells() []CellRef {
	rows := make([]int, 0, len(w.sheetData))
	for r := range w.sheetData {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	var out []CellRef
	for _, r := range rows {
		cols := make([]int, 0, len(w.sheetData[r]))
		for c := range w.sheetData[r] {
			cols = append(cols, c)
		}
		sort.Ints(cols)
		for _, c := range cols {
			out = append(out, CellRef{Sheet: w.Name, Row: r, Col: c})
		}
	}
	return out
}

// DefinedName is a workbook- or sheet-scoped named reference.
type DefinedName struct {
	Name  string
	Scope string // "" for workbook scope, else a sheet name
	Range RangeRef
}

// Font, Fill, Border, Alignment, and Style are opaque formatting
// pass-through shapes (spec.md's distillation excludes styling/rendering
// as Non-goals, but a faithful workbook model still stores what cell
// formatting a caller attaches, without interpreting it).
type Font struct {
	Name   string
	Size   float64
	Bold   bool
	Italic bool
	Color  string
}

type Fill struct {
	PatternType string
	FgColor     string
	BgColor     string
}

type Border struct {
	Style string
	Color string
}

type Alignment struct {
	Horizontal string
	Vertical   string
	WrapText   bool
}

type Style struct {
	Font      Font
	Fill      Fill
	Border    Border
	Alignment Alignment
	NumberFmt string
}

// Styles is the workbook-wide style table, indexed by the opaque style ID
// Add returns. Neither Cell nor Table carries a style ID.
type Styles struct {
	mu      sync.Mutex
	entries []Style
}

func (s *Styles) Add(style Style) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, style)
	return len(s.entries) - 1
}

func (s *Styles) Get(id int) (Style, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.entries) {
		return Style{}, false
	}
	return s.entries[id], true
}

// Table is an opaque named-range-plus-header pass-through shape (Excel
// "ListObject"); this engine does not interpret structured references,
// it only stores and returns what was set.
type Table struct {
	Name    string
	Sheet   string
	Range   RangeRef
	Columns []string
}

// Metadata is opaque workbook-level provenance, carried through
// unmodified.
type Metadata struct {
	Application string
	AppVersion  string
	Creator     string
	LastModifiedBy string
}

// SheetInfo is the read-only summary of a sheet exposed through the
// external API (spec.md §6), separate from the internal Worksheet so
// callers never get a handle to mutable internal maps.
type SheetInfo struct {
	ID     int
	Name   string
	State  SheetState
	Index  int
	Frozen FrozenPanes
}

// Workbook is the top-level spreadsheet document: an ordered list of
// worksheets, the shared-string table, defined names, the dependency
// graph spanning all sheets, and opaque style/metadata pass-through state.
type Workbook struct {
	mu sync.RWMutex

	sheets      []*Worksheet
	sheetByName map[string]*Worksheet
	nextSheetID int

	Strings      *StringTable
	DefinedNames map[string]*DefinedName
	Graph        *DependencyGraph
	Metadata     Metadata
	Styles       Styles
	Tables       map[string]*Table
}

func NewWorkbook() *Workbook {
	return &Workbook{
		sheetByName:  make(map[string]*Worksheet),
		Strings:      NewStringTable(),
		DefinedNames: make(map[string]*DefinedName),
		Graph:        NewDependencyGraph(),
		Tables:       make(map[string]*Table),
	}
}

func (wb *Workbook) AddSheet(name string) (*Worksheet, *AppError) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if _, exists := wb.sheetByName[name]; exists {
		return nil, NewAppError(CodeAlreadyExists, "sheet %q already exists", name)
	}
	wb.nextSheetID++
	ws := newWorksheet(wb.nextSheetID, name)
	wb.sheets = append(wb.sheets, ws)
	wb.sheetByName[name] = ws
	return ws, nil
}

func (wb *Workbook) Sheet(name string) (*Worksheet, *AppError) {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	ws, ok := wb.sheetByName[name]
	if !ok {
		return nil, NewAppError(CodeNotFound, "sheet %q not found", name)
	}
	return ws, nil
}

func (wb *Workbook) SheetAt(index int) (*Worksheet, *AppError) {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	if index < 0 || index >= len(wb.sheets) {
		return nil, NewAppError(CodeOutOfRange, "sheet index %d out of range", index)
	}
	return wb.sheets[index], nil
}

func (wb *Workbook) RemoveSheet(name string) *AppError {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	ws, ok := wb.sheetByName[name]
	if !ok {
		return NewAppError(CodeNotFound, "sheet %q not found", name)
	}
	for i, s := range wb.sheets {
		if s == ws {
			wb.sheets = append(wb.sheets[:i], wb.sheets[i+1:]...)
			break
		}
	}
	delete(wb.sheetByName, name)
	return nil
}

func (wb *Workbook) RenameSheet(oldName, newName string) *AppError {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	ws, ok := wb.sheetByName[oldName]
	if !ok {
		return NewAppError(CodeNotFound, "sheet %q not found", oldName)
	}
	if _, exists := wb.sheetByName[newName]; exists {
		return NewAppError(CodeAlreadyExists, "sheet %q already exists", newName)
	}
	delete(wb.sheetByName, oldName)
	ws.Name = newName
	wb.sheetByName[newName] = ws
	return nil
}

func (wb *Workbook) SheetNames() []string {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.Name
	}
	return names
}

func (wb *Workbook) SheetInfos() []SheetInfo {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	infos := make([]SheetInfo, len(wb.sheets))
	for i, s := range wb.sheets {
		infos[i] = SheetInfo{ID: s.ID, Name: s.Name, State: s.State, Index: i, Frozen: s.Frozen}
	}
	return infos
}

func (wb *Workbook) SetDefinedName(name, scope string, rng RangeRef) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.DefinedNames[name] = &DefinedName{Name: name, Scope: scope, Range: rng}
}

func (wb *Workbook) DefinedNameLookup(name string) (*DefinedName, bool) {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	dn, ok := wb.DefinedNames[name]
	return dn, ok
}
