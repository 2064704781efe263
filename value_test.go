package spreadsheet

import "testing"

func TestValueCoercion(t *testing.T) {
	n, err := TextValue("42").AsNumber()
	if err != nil || n != 42 {
		t.Fatalf("TextValue(42).AsNumber() = %v, %v", n, err)
	}
	if BooleanValueOf(true).AsText() != "TRUE" {
		t.Fatal("boolean AsText mismatch")
	}
	if !TextValue("true").AsBoolean() {
		t.Fatal("text 'true' should coerce to boolean true")
	}
}

func TestEvalBinaryArithmetic(t *testing.T) {
	cases := []struct {
		op       BinaryOp
		a, b     float64
		want     float64
		wantErr  ErrorKind
		hasError bool
	}{
		{OpAdd, 1, 2, 3, 0, false},
		{OpSub, 5, 2, 3, 0, false},
		{OpMul, 3, 4, 12, 0, false},
		{OpDiv, 10, 2, 5, 0, false},
		{OpDiv, 1, 0, 0, ErrorDiv0, true},
		{OpPow, 0, 0, 1, 0, false},
		{OpPow, 2, 3, 8, 0, false},
	}
	for _, c := range cases {
		got := evalBinaryOp(c.op, NumberValue(c.a), NumberValue(c.b))
		if c.hasError {
			if !got.IsError() || got.Err.Kind != c.wantErr {
				t.Errorf("%v(%v,%v) = %+v, want error %v", c.op, c.a, c.b, got, c.wantErr)
			}
			continue
		}
		if got.Kind != KindNumber || got.Num != c.want {
			t.Errorf("%v(%v,%v) = %+v, want %v", c.op, c.a, c.b, got, c.want)
		}
	}
}

func TestEvalBinaryPowerNegativeBaseFractionalExponent(t *testing.T) {
	got := evalBinaryOp(OpPow, NumberValue(-8), NumberValue(0.5))
	if !got.IsError() || got.Err.Kind != ErrorNum {
		t.Fatalf("got %+v, want #NUM!", got)
	}
}

func TestEvalConcat(t *testing.T) {
	got := evalBinaryOp(OpConcat, TextValue("foo"), NumberValue(1))
	if got.Kind != KindText || got.Text != "foo1" {
		t.Fatalf("got %+v", got)
	}
}

func TestCompareValuesCrossKindOrdering(t *testing.T) {
	// Number < Text < Boolean regardless of magnitude.
	if compareValues(NumberValue(1000), TextValue("a")) >= 0 {
		t.Fatal("number should rank below text")
	}
	if compareValues(TextValue("z"), BooleanValueOf(false)) >= 0 {
		t.Fatal("text should rank below boolean")
	}
}

func TestCompareValuesTextCaseInsensitive(t *testing.T) {
	if compareValues(TextValue("ABC"), TextValue("abc")) != 0 {
		t.Fatal("text comparison should be case-insensitive")
	}
}

func TestEvalComparisonOperators(t *testing.T) {
	got := evalBinaryOp(OpLt, NumberValue(1), NumberValue(2))
	if got.Kind != KindBoolean || !got.Bool {
		t.Fatalf("got %+v", got)
	}
}

func TestTypeCode(t *testing.T) {
	if NumberValue(1).TypeCode() != 1 {
		t.Fatal("number type code")
	}
	if TextValue("x").TypeCode() != 2 {
		t.Fatal("text type code")
	}
	if BooleanValueOf(true).TypeCode() != 4 {
		t.Fatal("boolean type code")
	}
	if ErrorValue(NewEvalError(ErrorRef, "")).TypeCode() != 16 {
		t.Fatal("error type code")
	}
}
