package spreadsheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// argumentSeparatorForLocale picks the argument separator recorded on
// Model.ArgumentSeparator: "," for locales whose decimal separator is
// itself "." (the en-US family), and ";" for locales that use "," as
// their decimal separator, since the two can never share a character
// without making "1,5" ambiguous between "one number" and "two
// arguments". ParseFormula does not consult this value: it accepts both
// "," and ";" between function arguments in every locale.
func argumentSeparatorForLocale(locale string) string {
	switch strings.ToLower(locale) {
	case "de", "de-de", "fr", "fr-fr", "es", "es-es", "it", "it-it",
		"pt-br", "nl", "nl-nl", "ru", "ru-ru", "pl", "pl-pl":
		return ";"
	default:
		return ","
	}
}

// Model is the external entry point (spec.md §6): a workbook plus the
// locale, time zone, and identity metadata an embedding application
// needs around it. Its method set wraps the lower-level Workbook,
// evaluator, and shift engine behind a single object, the way the
// teacher's Spreadsheet/RunnableSpreadsheet wraps its own Storage.
type Model struct {
	ID                uuid.UUID
	Locale            string
	ArgumentSeparator string
	TimeZone          *time.Location
	Logger            zerolog.Logger

	wb    *Workbook
	clock Clock
	rng   RandomGenerator
}

// NewEmptyModel builds a fresh one-sheet workbook. locale resolves the
// argument separator (see argumentSeparatorForLocale); tz is an IANA zone
// name resolved via time.LoadLocation, the one ambient concern this
// package intentionally leaves to the standard library rather than a
// third-party zone database, since time.LoadLocation already reads the
// system tzdata and no example in this codebase's dependency pack
// supplies a more capable alternative.
func NewEmptyModel(locale, tz string) (*Model, *AppError) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, NewAppError(CodeInvalidArgument, "unknown time zone %q", tz)
	}
	m := &Model{
		ID:                uuid.New(),
		Locale:            locale,
		ArgumentSeparator: argumentSeparatorForLocale(locale),
		TimeZone:          loc,
		Logger:            NewLogger(),
		wb:                NewWorkbook(),
		clock:             WallClock{},
		rng:               DefaultRandomGenerator{},
	}
	if _, appErr := m.wb.AddSheet("Sheet1"); appErr != nil {
		return nil, appErr
	}
	m.Logger.Debug().Str("model_id", m.ID.String()).Str("locale", locale).Msg("model created")
	return m, nil
}

// NewModelFromWorkbook wraps an already-populated Workbook (e.g. one
// rebuilt from a persisted snapshot) in a Model.
func NewModelFromWorkbook(wb *Workbook, locale, tz string) (*Model, *AppError) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, NewAppError(CodeInvalidArgument, "unknown time zone %q", tz)
	}
	return &Model{
		ID:                uuid.New(),
		Locale:            locale,
		ArgumentSeparator: argumentSeparatorForLocale(locale),
		TimeZone:          loc,
		Logger:            NewLogger(),
		wb:                wb,
		clock:             WallClock{},
		rng:               DefaultRandomGenerator{},
	}, nil
}

// Workbook exposes the underlying Workbook for callers that need direct
// access to sheets, styles, or tables beyond this Model's own API.
func (m *Model) Workbook() *Workbook { return m.wb }

func (m *Model) cellRef(sheet string, row, col int) (CellRef, *AppError) {
	if row < 1 || row > MaxRow || col < 1 || col > MaxColumn {
		return CellRef{}, NewAppError(CodeOutOfRange, "cell (%d,%d) out of range", row, col)
	}
	return CellRef{Sheet: sheet, Row: row, Col: col}, nil
}

// SetUserInput parses input the way a spreadsheet UI would: a leading
// "=" makes it a formula, "TRUE"/"FALSE" (case-insensitive) a boolean, a
// parseable number a number, anything else literal text. An empty string
// clears the cell.
func (m *Model) SetUserInput(sheet string, row, col int, input string) *AppError {
	ref, appErr := m.cellRef(sheet, row, col)
	if appErr != nil {
		return appErr
	}
	ws, appErr := m.wb.Sheet(sheet)
	if appErr != nil {
		return appErr
	}

	affected := m.wb.Graph.GetAffectedCells(ref)
	// Formulas elsewhere that read this cell keep reading it after the
	// overwrite, so their edges are re-added once RemoveNode has run.
	var readers []cellKey
	if n, ok := m.wb.Graph.nodes[keyOf(ref)]; ok {
		for dk := range n.dependents {
			if dk != keyOf(ref) {
				readers = append(readers, dk)
			}
		}
	}
	m.releaseCell(ws, row, col)
	m.wb.Graph.RemoveNode(ref)
	for _, dk := range readers {
		m.wb.Graph.AddCellDependency(CellRef{Sheet: dk.Sheet, Row: dk.Row, Col: dk.Col}, ref)
	}

	if input == "" {
		ws.RemoveCell(row, col)
	} else if strings.HasPrefix(input, "=") {
		formulaID, parseErr := ws.Formulas.Intern(input[1:])
		entry, _ := ws.Formulas.Get(formulaID)
		ws.SetCell(row, col, NewUnevaluatedFormulaCell(formulaID))
		if parseErr != nil {
			m.Logger.Warn().Str("sheet", sheet).Int("row", row).Int("col", col).
				Str("formula", input).Msg("formula parse error")
		} else {
			cells, ranges, volatile := collectDependencies(entry.AST)
			for _, c := range cells {
				m.wb.Graph.AddCellDependency(ref, qualifyRef(c, sheet))
			}
			for _, r := range ranges {
				m.wb.Graph.AddRangeDependency(ref, qualifyRange(r, sheet))
			}
			if volatile {
				m.wb.Graph.MarkVolatile(ref)
			}
		}
	} else {
		ws.SetCell(row, col, literalCell(m.wb, input))
	}

	m.wb.Graph.MarkDirty(ref)
	for _, a := range affected {
		m.wb.Graph.MarkDirty(a)
	}
	return nil
}

func qualifyRef(r CellRef, sheet string) CellRef {
	if r.Sheet == "" {
		r.Sheet = sheet
	}
	return r
}

func qualifyRange(r RangeRef, sheet string) RangeRef {
	r.Start = qualifyRef(r.Start, sheet)
	r.End = qualifyRef(r.End, sheet)
	return r
}

// releaseCell drops a formula cell's reference into its owning
// FormulaTable entry before the cell is overwritten, so shared formulas
// stay correctly refcounted.
func (m *Model) releaseCell(ws *Worksheet, row, col int) {
	c := ws.GetCell(row, col)
	if c.IsFormula() {
		ws.Formulas.Release(c.FormulaID)
	}
	if c.Kind == KindShared && c.StringID >= 0 {
		m.wb.Strings.Release(c.StringID)
	}
}

// literalCell classifies plain (non-formula) user input into a Bool,
// Number, or shared-string Cell.
func literalCell(wb *Workbook, input string) Cell {
	switch strings.ToUpper(input) {
	case "TRUE":
		return NewBoolCell(true)
	case "FALSE":
		return NewBoolCell(false)
	}
	if n, err := strconv.ParseFloat(input, 64); err == nil {
		return NewNumberCell(n)
	}
	id := wb.Strings.Intern(input)
	return NewSharedStringCell(id)
}

// GetCellContent returns a cell's source-level text: "=..." for a
// formula cell (the shared formula's exact text, not a recomputed
// re-serialization), or the literal's display text otherwise.
func (m *Model) GetCellContent(sheet string, row, col int) (string, *AppError) {
	ws, appErr := m.wb.Sheet(sheet)
	if appErr != nil {
		return "", appErr
	}
	c := ws.GetCell(row, col)
	if c.IsEmpty() {
		return "", nil
	}
	if c.IsFormula() {
		entry, ok := ws.Formulas.Get(c.FormulaID)
		if !ok {
			return "", NewAppError(CodeInternal, "dangling formula id %d", c.FormulaID)
		}
		return "=" + entry.Text, nil
	}
	return cellToValue(m.wb, c).AsText(), nil
}

// GetCellValue returns a cell's current computed Value.
func (m *Model) GetCellValue(sheet string, row, col int) (Value, *AppError) {
	ws, appErr := m.wb.Sheet(sheet)
	if appErr != nil {
		return Value{}, appErr
	}
	return cellToValue(m.wb, ws.GetCell(row, col)), nil
}

// Evaluate recalculates every dirty cell (and every volatile cell) in
// dependency-respecting order (spec.md §4.4): precedents are evaluated
// before their dependents, but cells with no dependency between them are
// not visited in row-major or any other fixed order. It is idempotent:
// calling it again with nothing dirty recomputes only volatile cells.
func (m *Model) Evaluate() *AppError {
	roots := m.wb.Graph.DirtyCells()
	order, cycleErr := m.wb.Graph.GetCalculationOrder(roots)
	if cycleErr != nil {
		for _, ref := range roots {
			m.storeResult(ref, ErrorValue(cycleErr))
		}
		m.wb.Graph.ClearDirty()
		return NewAppError(CodeFailedPrecondition, "%s", cycleErr.Error())
	}

	for _, ref := range order {
		ws, appErr := m.wb.Sheet(ref.Sheet)
		if appErr != nil {
			continue
		}
		cell := ws.GetCell(ref.Row, ref.Col)
		if !cell.IsFormula() {
			continue
		}
		entry, ok := ws.Formulas.Get(cell.FormulaID)
		if !ok {
			continue
		}
		ctx := &evalContext{wb: m.wb, sheet: ref.Sheet, clock: m.clock, rng: m.rng}
		m.storeResult(ref, entry.AST.Eval(ctx))
	}
	m.wb.Graph.ClearDirty()
	m.Logger.Debug().Int("cells_evaluated", len(order)).Msg("evaluate complete")
	return nil
}

func (m *Model) storeResult(ref CellRef, val Value) {
	ws, appErr := m.wb.Sheet(ref.Sheet)
	if appErr != nil {
		return
	}
	cell := ws.GetCell(ref.Row, ref.Col)
	if !cell.IsFormula() {
		return
	}
	result := cell.WithCachedResult(val)
	if val.Kind == KindText {
		result.StringID = m.wb.Strings.Intern(val.Text)
		result.Origin = ""
	}
	if val.Kind == KindError && result.Origin == "" {
		result.Origin = ref.String()
	}
	ws.SetCell(ref.Row, ref.Col, result)
}

// rebuildDependencyGraph discards and re-derives the whole dependency
// graph from the formulas currently stored on every sheet. Structural
// edits (shift.go) change cell coordinates wholesale, which would be
// expensive to patch incrementally edge-by-edge; a full rebuild plus a
// full recalculation is simpler and, since it only runs once per edit
// rather than once per formula, is not the bottleneck Evaluate itself
// would be.
func (m *Model) rebuildDependencyGraph() {
	m.wb.Graph = NewDependencyGraph()
	for _, ws := range m.wb.sheets {
		for _, ref := range ws.OccupiedCells() {
			cell := ws.GetCell(ref.Row, ref.Col)
			if !cell.IsFormula() {
				continue
			}
			entry, ok := ws.Formulas.Get(cell.FormulaID)
			if !ok {
				continue
			}
			cells, ranges, volatile := collectDependencies(entry.AST)
			for _, c := range cells {
				m.wb.Graph.AddCellDependency(ref, qualifyRef(c, ws.Name))
			}
			for _, r := range ranges {
				m.wb.Graph.AddRangeDependency(ref, qualifyRange(r, ws.Name))
			}
			if volatile {
				m.wb.Graph.MarkVolatile(ref)
			}
			m.wb.Graph.MarkDirty(ref)
		}
	}
}

// InsertRows inserts count blank rows at row atRow on sheet and shifts
// every formula and cell below accordingly.
func (m *Model) InsertRows(sheet string, atRow, count int) *AppError {
	if err := InsertRowsShiftDown(m.wb, sheet, atRow, count); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// DeleteRows removes count rows starting at atRow on sheet.
func (m *Model) DeleteRows(sheet string, atRow, count int) *AppError {
	if err := DeleteRowsShiftUp(m.wb, sheet, atRow, count); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// InsertColumns inserts count blank columns at column atCol on sheet.
func (m *Model) InsertColumns(sheet string, atCol, count int) *AppError {
	if err := InsertColumnsShiftRight(m.wb, sheet, atCol, count); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// DeleteColumns removes count columns starting at atCol on sheet.
func (m *Model) DeleteColumns(sheet string, atCol, count int) *AppError {
	if err := DeleteColumnsShiftLeft(m.wb, sheet, atCol, count); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// InsertCellsAndShiftRight inserts a width x height rectangle at
// (row, column) on sheet, pushing only the cells within that row band to
// the right (spec.md §4.5/§6) — unlike InsertColumns, sibling rows
// outside the rectangle are left untouched.
func (m *Model) InsertCellsAndShiftRight(sheet string, row, column, width, height int) *AppError {
	if err := InsertCellsAndShiftRight(m.wb, sheet, row, column, width, height); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// DeleteCellsAndShiftLeft removes a width x height rectangle at
// (row, column) on sheet, shifting the remainder of that row band left.
func (m *Model) DeleteCellsAndShiftLeft(sheet string, row, column, width, height int) *AppError {
	if err := DeleteCellsAndShiftLeft(m.wb, sheet, row, column, width, height); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// InsertCellsAndShiftDown is the vertical analogue of
// InsertCellsAndShiftRight, restricted to the given column band.
func (m *Model) InsertCellsAndShiftDown(sheet string, row, column, width, height int) *AppError {
	if err := InsertCellsAndShiftDown(m.wb, sheet, row, column, width, height); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// DeleteCellsAndShiftUp is the vertical analogue of
// DeleteCellsAndShiftLeft, restricted to the given column band.
func (m *Model) DeleteCellsAndShiftUp(sheet string, row, column, width, height int) *AppError {
	if err := DeleteCellsAndShiftUp(m.wb, sheet, row, column, width, height); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

// AddSheet, RemoveSheet, RenameSheet, and ReorderSheets delegate straight
// to the Workbook; a sheet lifecycle change also needs a dependency
// rebuild since removing or renaming a sheet can invalidate or
// re-qualify references throughout the workbook.
func (m *Model) AddSheet(name string) *AppError {
	_, err := m.wb.AddSheet(name)
	return err
}

func (m *Model) RemoveSheet(name string) *AppError {
	if err := m.wb.RemoveSheet(name); err != nil {
		return err
	}
	m.rebuildDependencyGraph()
	return nil
}

func (m *Model) RenameSheet(oldName, newName string) *AppError {
	if err := m.wb.RenameSheet(oldName, newName); err != nil {
		return err
	}
	for _, ws := range m.wb.sheets {
		for id := 0; id < ws.Formulas.Count(); id++ {
			entry, ok := ws.Formulas.Get(id)
			if !ok {
				continue
			}
			renamed := renameSheetInAST(entry.AST, oldName, newName)
			if renamed != entry.AST {
				ws.Formulas.Replace(id, renamed.String(), renamed)
			}
		}
	}
	m.rebuildDependencyGraph()
	return nil
}

func (m *Model) ReorderSheets(order []int) *AppError {
	return ReorderSheets(m.wb, order)
}

func (m *Model) SetDefinedName(name, scope string, rng RangeRef) {
	m.wb.SetDefinedName(name, scope, rng)
}

func (m *Model) SheetInfos() []SheetInfo { return m.wb.SheetInfos() }
