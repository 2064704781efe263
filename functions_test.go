package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scalarArg(v Value) Arg { return Arg{Value: v} }

func TestFnSum(t *testing.T) {
	got := fnSum(nil, []Arg{scalarArg(NumberValue(1)), {IsRange: true, Range: []Value{NumberValue(2), NumberValue(3)}}})
	assert.Equal(t, KindNumber, got.Kind)
	assert.Equal(t, float64(6), got.Num)
}

func TestFnIf(t *testing.T) {
	got := fnIf(nil, []Arg{scalarArg(BooleanValueOf(true)), scalarArg(NumberValue(1)), scalarArg(NumberValue(2))})
	assert.Equal(t, float64(1), got.Num)
	got2 := fnIf(nil, []Arg{scalarArg(BooleanValueOf(false)), scalarArg(NumberValue(1)), scalarArg(NumberValue(2))})
	assert.Equal(t, float64(2), got2.Num)
}

func TestFnLeftRightMid(t *testing.T) {
	assert.Equal(t, "he", fnLeft(nil, []Arg{scalarArg(TextValue("hello")), scalarArg(NumberValue(2))}).Text)
	assert.Equal(t, "lo", fnRight(nil, []Arg{scalarArg(TextValue("hello")), scalarArg(NumberValue(2))}).Text)
	assert.Equal(t, "ell", fnMid(nil, []Arg{scalarArg(TextValue("hello")), scalarArg(NumberValue(2)), scalarArg(NumberValue(3))}).Text)
}

func TestFnTypeCodes(t *testing.T) {
	assert.Equal(t, float64(1), fnType(nil, []Arg{scalarArg(NumberValue(1))}).Num)
	assert.Equal(t, float64(2), fnType(nil, []Arg{scalarArg(TextValue("x"))}).Num)
	assert.Equal(t, float64(4), fnType(nil, []Arg{scalarArg(BooleanValueOf(true))}).Num)
	assert.Equal(t, float64(16), fnType(nil, []Arg{scalarArg(ErrorValue(NewEvalError(ErrorRef, "")))}).Num)
}

func TestFnIsErrorIsNumberIsText(t *testing.T) {
	assert.True(t, fnIsError(nil, []Arg{scalarArg(ErrorValue(NewEvalError(ErrorRef, "")))}).Bool)
	assert.True(t, fnIsNumber(nil, []Arg{scalarArg(NumberValue(1))}).Bool)
	assert.True(t, fnIsText(nil, []Arg{scalarArg(TextValue("x"))}).Bool)
}

func TestFnRoundAbsSqrtMod(t *testing.T) {
	assert.Equal(t, 3.14, fnRound(nil, []Arg{scalarArg(NumberValue(3.14159)), scalarArg(NumberValue(2))}).Num)
	assert.Equal(t, float64(5), fnAbs(nil, []Arg{scalarArg(NumberValue(-5))}).Num)
	assert.Equal(t, float64(3), fnSqrt(nil, []Arg{scalarArg(NumberValue(9))}).Num)
	assert.Equal(t, float64(2), fnMod(nil, []Arg{scalarArg(NumberValue(-7)), scalarArg(NumberValue(3))}).Num)
}

func TestFnAndOrNot(t *testing.T) {
	args := []Arg{scalarArg(BooleanValueOf(true)), scalarArg(BooleanValueOf(false))}
	assert.False(t, fnAnd(nil, args).Bool)
	assert.True(t, fnOr(nil, args).Bool)
	assert.False(t, fnNot(nil, []Arg{scalarArg(BooleanValueOf(true))}).Bool)
}

func TestCallBuiltinUnknownFunction(t *testing.T) {
	got := callBuiltin(nil, "NOPE", nil)
	assert.True(t, got.IsError())
	assert.Equal(t, ErrorName, got.Err.Kind)
}
