package spreadsheet

import (
	"encoding/json"
	"testing"
)

func TestCellJSONRoundTrip(t *testing.T) {
	cases := []Cell{
		EmptyCell(),
		NewBoolCell(true),
		NewNumberCell(3.5),
		NewErrorCell(ErrorDiv0),
		NewSharedStringCell(7),
		NewUnevaluatedFormulaCell(2),
	}
	for _, c := range cases {
		data, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("Marshal(%+v): %v", c, err)
		}
		var out Cell
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if out.Kind != c.Kind {
			t.Fatalf("round trip kind mismatch: got %v want %v (json=%s)", out.Kind, c.Kind, data)
		}
	}
}

func TestCellWithCachedResult(t *testing.T) {
	base := NewUnevaluatedFormulaCell(1)
	numResult := base.WithCachedResult(NumberValue(42))
	if numResult.Kind != KindFormulaNumber || numResult.NumberValue != 42 {
		t.Fatalf("got %+v", numResult)
	}
	errResult := base.WithCachedResult(ErrorValue(NewEvalError(ErrorDiv0, "")))
	if errResult.Kind != KindFormulaError || errResult.ErrorKind != ErrorDiv0 {
		t.Fatalf("got %+v", errResult)
	}
}

func TestCellIsFormula(t *testing.T) {
	if EmptyCell().IsFormula() {
		t.Fatal("empty cell should not be a formula")
	}
	if !NewUnevaluatedFormulaCell(0).IsFormula() {
		t.Fatal("unevaluated formula cell should report IsFormula")
	}
}
