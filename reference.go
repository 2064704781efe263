package spreadsheet

import "strings"

// MaxColumn and MaxRow bound the valid reference coordinate space
// (spec.md §4.3): columns [1, 16384] (XFD), rows [1, 1048576].
const (
	MaxColumn = 16384
	MaxRow    = 1048576
)

// ColumnNumberFromLetters converts a column letter string ("A", "AB", ...)
// to its 1-based column number. Letters are matched case-insensitively.
func ColumnNumberFromLetters(letters string) (int, bool) {
	if letters == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		var v int
		switch {
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 1
		case c >= 'a' && c <= 'z':
			v = int(c-'a') + 1
		default:
			return 0, false
		}
		n = n*26 + v
		if n > MaxColumn {
			return 0, false
		}
	}
	return n, true
}

// ColumnLettersFromNumber is the inverse of ColumnNumberFromLetters,
// producing upper-case letters for n in [1, MaxColumn].
func ColumnLettersFromNumber(n int) string {
	if n < 1 {
		return ""
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}

// CellRef is an absolute-coordinate cell reference with independent
// absolute/relative flags per axis, the shape pinned by
// original_source/base/src/expressions/lexer/test/test_marked_token.rs's
// Reference token (sheet, row, column, absolute_row, absolute_column).
// Row and Column are 1-based. Sheet is empty for an unqualified reference.
type CellRef struct {
	Sheet  string
	Row    int
	Col    int
	AbsRow bool
	AbsCol bool
}

// RangeRef is a pair of CellRefs on the same sheet forming a rectangle.
// Only Start carries the sheet qualifier in source text; both endpoints
// are normalized to the same sheet on construction.
type RangeRef struct {
	Start CellRef
	End   CellRef
}

// InRange reports whether a row/col pair lies within the range's rectangle.
func (r RangeRef) InRange(row, col int) bool {
	minRow, maxRow := r.Start.Row, r.End.Row
	if minRow > maxRow {
		minRow, maxRow = maxRow, minRow
	}
	minCol, maxCol := r.Start.Col, r.End.Col
	if minCol > maxCol {
		minCol, maxCol = maxCol, minCol
	}
	return row >= minRow && row <= maxRow && col >= minCol && col <= maxCol
}

// String renders a CellRef in its canonical A1-style text form, including
// a sheet qualifier when Sheet is non-empty.
func (r CellRef) String() string {
	var b strings.Builder
	if r.Sheet != "" {
		b.WriteString(QuoteSheetName(r.Sheet))
		b.WriteByte('!')
	}
	if r.AbsCol {
		b.WriteByte('$')
	}
	b.WriteString(ColumnLettersFromNumber(r.Col))
	if r.AbsRow {
		b.WriteByte('$')
	}
	b.WriteString(itoa(r.Row))
	return b.String()
}

func (r RangeRef) String() string {
	start := r.Start
	end := r.End
	end.Sheet = "" // sheet qualifier only ever appears once, on the start endpoint
	return start.String() + ":" + end.String()
}

// isPlainIdentifier reports whether a sheet name needs no quoting: starts
// with a letter or underscore and contains only letters, digits,
// underscores (spec.md §4.3).
func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		isDigit := c >= '0' && c <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

// QuoteSheetName renders a sheet name the way it must appear before "!" in
// a formula: bare if it's a plain identifier, else single-quoted with
// embedded quotes doubled.
func QuoteSheetName(name string) string {
	if isPlainIdentifier(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
