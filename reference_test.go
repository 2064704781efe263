package spreadsheet

import "testing"

func TestColumnLetterRoundTrip(t *testing.T) {
	cases := []struct {
		letters string
		number  int
	}{
		{"A", 1}, {"Z", 26}, {"AA", 27}, {"AB", 28}, {"AZ", 52},
		{"BA", 53}, {"XFD", 16384},
	}
	for _, c := range cases {
		n, ok := ColumnNumberFromLetters(c.letters)
		if !ok || n != c.number {
			t.Errorf("ColumnNumberFromLetters(%q) = %d,%v want %d", c.letters, n, ok, c.number)
		}
		letters := ColumnLettersFromNumber(c.number)
		if letters != c.letters {
			t.Errorf("ColumnLettersFromNumber(%d) = %q want %q", c.number, letters, c.letters)
		}
	}
}

func TestColumnNumberFromLettersRejectsOutOfRange(t *testing.T) {
	if _, ok := ColumnNumberFromLetters("XFE"); ok {
		t.Fatal("XFE should be out of range")
	}
	if _, ok := ColumnNumberFromLetters("1A"); ok {
		t.Fatal("1A is not a valid column letter run")
	}
}

func TestCellRefString(t *testing.T) {
	ref := CellRef{Row: 5, Col: 3, AbsRow: true, AbsCol: true}
	if got, want := ref.String(), "$C$5"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	ref2 := CellRef{Sheet: "Sheet 1", Row: 1, Col: 1}
	if got, want := ref2.String(), "'Sheet 1'!A1"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestRangeRefString(t *testing.T) {
	rng := RangeRef{
		Start: CellRef{Sheet: "Data", Row: 1, Col: 1},
		End:   CellRef{Sheet: "Data", Row: 10, Col: 3},
	}
	if got, want := rng.String(), "Data!A1:C10"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestRangeRefInRange(t *testing.T) {
	rng := RangeRef{Start: CellRef{Row: 2, Col: 2}, End: CellRef{Row: 5, Col: 5}}
	if !rng.InRange(3, 3) {
		t.Fatal("expected (3,3) inside range")
	}
	if rng.InRange(1, 1) {
		t.Fatal("expected (1,1) outside range")
	}
}

func TestQuoteSheetName(t *testing.T) {
	if got := QuoteSheetName("Sheet1"); got != "Sheet1" {
		t.Fatalf("QuoteSheetName(Sheet1) = %q", got)
	}
	if got := QuoteSheetName("My Sheet"); got != "'My Sheet'" {
		t.Fatalf("QuoteSheetName(My Sheet) = %q", got)
	}
	if got := QuoteSheetName("It's Mine"); got != "'It''s Mine'" {
		t.Fatalf("QuoteSheetName(It's Mine) = %q", got)
	}
}
