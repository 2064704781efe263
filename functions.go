package spreadsheet

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Clock and RandomGenerator let NOW/TODAY/RAND be stubbed out in tests
// instead of reading the real wall clock or entropy source, the same
// seam the teacher's builtin.go uses.
type Clock interface {
	Now() time.Time
}

type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

type RandomGenerator interface {
	Float64() float64
}

type DefaultRandomGenerator struct{}

func (DefaultRandomGenerator) Float64() float64 { return rand.Float64() }

// excelEpoch is the Excel/Lotus 1-2-3 serial-date epoch (December 30,
// 1899), used by NOW/TODAY to produce Excel-compatible serial numbers.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func excelSerial(t time.Time) float64 {
	d := t.Sub(excelEpoch)
	return d.Hours() / 24
}

// builtinFunc is a registered function implementation. Argument coercion
// (range flattening, numeric/text coercion) is each function's own
// responsibility since the right behavior differs per function (SUM
// ignores text in ranges; CONCAT stringifies everything).
type builtinFunc func(ctx *evalContext, args []Arg) Value

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"SUM":     fnSum,
		"AVERAGE": fnAverage,
		"COUNT":   fnCount,
		"COUNTA":  fnCountA,
		"MAX":     fnMax,
		"MIN":     fnMin,
		"MEDIAN":  fnMedian,
		"MODE":    fnMode,

		"IF":  fnIf,
		"AND": fnAnd,
		"OR":  fnOr,
		"NOT": fnNot,

		"CONCAT":        fnConcat,
		"CONCATENATE":   fnConcat,
		"LEN":           fnLen,
		"LEFT":          fnLeft,
		"RIGHT":         fnRight,
		"MID":           fnMid,
		"UPPER":         fnUpper,
		"LOWER":         fnLower,
		"TRIM":          fnTrim,

		"ROUND": fnRound,
		"ABS":   fnAbs,
		"SQRT":  fnSqrt,
		"MOD":   fnMod,
		"POWER": fnPower,
		"FLOOR": fnFloor,
		"CEILING": fnCeiling,
		"PI":    fnPI,

		"ISERROR":  fnIsError,
		"ISNUMBER": fnIsNumber,
		"ISTEXT":   fnIsText,
		"TYPE":     fnType,

		"NOW":   fnNow,
		"TODAY": fnToday,
		"RAND":  fnRand,
	}
}

func callBuiltin(ctx *evalContext, name string, args []Arg) Value {
	fn, ok := builtins[strings.ToUpper(name)]
	if !ok {
		return ErrorValue(NewEvalError(ErrorName, ""))
	}
	return fn(ctx, args)
}

// flattenNumeric expands args (scalars and ranges alike) into a flat list
// of numbers, skipping non-numeric cells in a range the way Excel's
// aggregate functions do, but propagating an error from an explicit
// scalar argument.
func flattenNumeric(args []Arg) ([]float64, *EvalError) {
	var out []float64
	for _, a := range args {
		if a.IsRange {
			for _, v := range a.Range {
				if v.IsError() {
					return nil, v.Err
				}
				if v.Kind == KindNumber {
					out = append(out, v.Num)
				}
			}
			continue
		}
		if a.Value.IsError() {
			return nil, a.Value.Err
		}
		n, err := a.Value.AsNumber()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func fnSum(ctx *evalContext, args []Arg) Value {
	nums, err := flattenNumeric(args)
	if err != nil {
		return ErrorValue(err)
	}
	var sum float64
	for _, n := range nums {
		sum += n
	}
	return NumberValue(sum)
}

func fnAverage(ctx *evalContext, args []Arg) Value {
	nums, err := flattenNumeric(args)
	if err != nil {
		return ErrorValue(err)
	}
	if len(nums) == 0 {
		return ErrorValue(NewEvalError(ErrorDiv0, ""))
	}
	var sum float64
	for _, n := range nums {
		sum += n
	}
	return NumberValue(sum / float64(len(nums)))
}

func fnCount(ctx *evalContext, args []Arg) Value {
	count := 0
	for _, a := range args {
		if a.IsRange {
			for _, v := range a.Range {
				if v.Kind == KindNumber {
					count++
				}
			}
			continue
		}
		if a.Value.Kind == KindNumber {
			count++
		}
	}
	return NumberValue(float64(count))
}

func fnCountA(ctx *evalContext, args []Arg) Value {
	count := 0
	for _, a := range args {
		if a.IsRange {
			for _, v := range a.Range {
				if v.Kind != KindNumber || v.Num != 0 {
					count++
				} else {
					count++
				}
			}
			continue
		}
		count++
	}
	return NumberValue(float64(count))
}

func fnMax(ctx *evalContext, args []Arg) Value {
	nums, err := flattenNumeric(args)
	if err != nil {
		return ErrorValue(err)
	}
	if len(nums) == 0 {
		return NumberValue(0)
	}
	max := nums[0]
	for _, n := range nums[1:] {
		if n > max {
			max = n
		}
	}
	return NumberValue(max)
}

func fnMin(ctx *evalContext, args []Arg) Value {
	nums, err := flattenNumeric(args)
	if err != nil {
		return ErrorValue(err)
	}
	if len(nums) == 0 {
		return NumberValue(0)
	}
	min := nums[0]
	for _, n := range nums[1:] {
		if n < min {
			min = n
		}
	}
	return NumberValue(min)
}

func fnMedian(ctx *evalContext, args []Arg) Value {
	nums, err := flattenNumeric(args)
	if err != nil {
		return ErrorValue(err)
	}
	if len(nums) == 0 {
		return ErrorValue(NewEvalError(ErrorNum, ""))
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return NumberValue(sorted[mid])
	}
	return NumberValue((sorted[mid-1] + sorted[mid]) / 2)
}

func fnMode(ctx *evalContext, args []Arg) Value {
	nums, err := flattenNumeric(args)
	if err != nil {
		return ErrorValue(err)
	}
	counts := make(map[float64]int)
	for _, n := range nums {
		counts[n]++
	}
	best, bestCount := 0.0, 0
	// Deterministic tie-break: first value (in argument order) to reach
	// the highest count wins, matching Excel's stable MODE behavior.
	for _, n := range nums {
		if counts[n] > bestCount {
			best, bestCount = n, counts[n]
		}
	}
	if bestCount == 0 {
		return ErrorValue(NewEvalError(ErrorNA, ""))
	}
	return NumberValue(best)
}

func fnIf(ctx *evalContext, args []Arg) Value {
	if len(args) < 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	if args[0].Value.IsError() {
		return args[0].Value
	}
	cond := args[0].Value.AsBoolean()
	if cond {
		if len(args) >= 2 {
			return args[1].Value
		}
		return BooleanValueOf(true)
	}
	if len(args) >= 3 {
		return args[2].Value
	}
	return BooleanValueOf(false)
}

func boolArgs(args []Arg) ([]bool, *EvalError) {
	var out []bool
	for _, a := range args {
		if a.IsRange {
			for _, v := range a.Range {
				if v.IsError() {
					return nil, v.Err
				}
				if v.Kind == KindNumber || v.Kind == KindBoolean {
					out = append(out, v.AsBoolean())
				}
			}
			continue
		}
		if a.Value.IsError() {
			return nil, a.Value.Err
		}
		out = append(out, a.Value.AsBoolean())
	}
	return out, nil
}

func fnAnd(ctx *evalContext, args []Arg) Value {
	bools, err := boolArgs(args)
	if err != nil {
		return ErrorValue(err)
	}
	for _, b := range bools {
		if !b {
			return BooleanValueOf(false)
		}
	}
	return BooleanValueOf(true)
}

func fnOr(ctx *evalContext, args []Arg) Value {
	bools, err := boolArgs(args)
	if err != nil {
		return ErrorValue(err)
	}
	for _, b := range bools {
		if b {
			return BooleanValueOf(true)
		}
	}
	return BooleanValueOf(false)
}

func fnNot(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 || args[0].Value.IsError() {
		if len(args) == 1 {
			return args[0].Value
		}
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	return BooleanValueOf(!args[0].Value.AsBoolean())
}

func textArg(a Arg) (string, *EvalError) {
	if a.Value.IsError() {
		return "", a.Value.Err
	}
	return a.Value.AsText(), nil
}

func fnConcat(ctx *evalContext, args []Arg) Value {
	var sb strings.Builder
	for _, a := range args {
		if a.IsRange {
			for _, v := range a.Range {
				if v.IsError() {
					return ErrorValue(v.Err)
				}
				sb.WriteString(v.AsText())
			}
			continue
		}
		s, err := textArg(a)
		if err != nil {
			return ErrorValue(err)
		}
		sb.WriteString(s)
	}
	return TextValue(sb.String())
}

func fnLen(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	s, err := textArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	return NumberValue(float64(len([]rune(s))))
}

func fnLeft(ctx *evalContext, args []Arg) Value {
	if len(args) < 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	s, err := textArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	n := 1
	if len(args) >= 2 {
		f, err := args[1].Value.AsNumber()
		if err != nil {
			return ErrorValue(err)
		}
		n = int(f)
	}
	r := []rune(s)
	if n < 0 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	if n > len(r) {
		n = len(r)
	}
	return TextValue(string(r[:n]))
}

func fnRight(ctx *evalContext, args []Arg) Value {
	if len(args) < 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	s, err := textArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	n := 1
	if len(args) >= 2 {
		f, err := args[1].Value.AsNumber()
		if err != nil {
			return ErrorValue(err)
		}
		n = int(f)
	}
	r := []rune(s)
	if n < 0 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	if n > len(r) {
		n = len(r)
	}
	return TextValue(string(r[len(r)-n:]))
}

func fnMid(ctx *evalContext, args []Arg) Value {
	if len(args) != 3 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	s, err := textArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	startF, err := args[1].Value.AsNumber()
	if err != nil {
		return ErrorValue(err)
	}
	numF, err := args[2].Value.AsNumber()
	if err != nil {
		return ErrorValue(err)
	}
	start := int(startF)
	num := int(numF)
	r := []rune(s)
	if start < 1 || num < 0 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	if start > len(r) {
		return TextValue("")
	}
	end := start - 1 + num
	if end > len(r) {
		end = len(r)
	}
	return TextValue(string(r[start-1 : end]))
}

func fnUpper(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	s, err := textArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	return TextValue(strings.ToUpper(s))
}

func fnLower(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	s, err := textArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	return TextValue(strings.ToLower(s))
}

func fnTrim(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	s, err := textArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	fields := strings.Fields(s)
	return TextValue(strings.Join(fields, " "))
}

func numArg(a Arg) (float64, *EvalError) {
	if a.Value.IsError() {
		return 0, a.Value.Err
	}
	return a.Value.AsNumber()
}

func fnRound(ctx *evalContext, args []Arg) Value {
	if len(args) != 2 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	n, err := numArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	digitsF, err := numArg(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	mult := math.Pow(10, digitsF)
	return NumberValue(math.Round(n*mult) / mult)
}

func fnAbs(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	n, err := numArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	return NumberValue(math.Abs(n))
}

func fnSqrt(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	n, err := numArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	if n < 0 {
		return ErrorValue(NewEvalError(ErrorNum, ""))
	}
	return NumberValue(math.Sqrt(n))
}

func fnMod(ctx *evalContext, args []Arg) Value {
	if len(args) != 2 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	n, err := numArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	d, err := numArg(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	if d == 0 {
		return ErrorValue(NewEvalError(ErrorDiv0, ""))
	}
	r := math.Mod(n, d)
	if r != 0 && (r < 0) != (d < 0) {
		r += d
	}
	return NumberValue(r)
}

func fnPower(ctx *evalContext, args []Arg) Value {
	if len(args) != 2 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	base, err := numArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	exp, err := numArg(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	return canonicalizeFloat(math.Pow(base, exp))
}

func fnFloor(ctx *evalContext, args []Arg) Value {
	if len(args) != 2 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	n, err := numArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	significance, err := numArg(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	if significance == 0 {
		return ErrorValue(NewEvalError(ErrorDiv0, ""))
	}
	return NumberValue(math.Floor(n/significance) * significance)
}

func fnCeiling(ctx *evalContext, args []Arg) Value {
	if len(args) != 2 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	n, err := numArg(args[0])
	if err != nil {
		return ErrorValue(err)
	}
	significance, err := numArg(args[1])
	if err != nil {
		return ErrorValue(err)
	}
	if significance == 0 {
		return ErrorValue(NewEvalError(ErrorDiv0, ""))
	}
	return NumberValue(math.Ceil(n/significance) * significance)
}

func fnPI(ctx *evalContext, args []Arg) Value { return NumberValue(math.Pi) }

func fnIsError(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	return BooleanValueOf(args[0].Value.IsError())
}

func fnIsNumber(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	return BooleanValueOf(args[0].Value.Kind == KindNumber)
}

func fnIsText(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	return BooleanValueOf(args[0].Value.Kind == KindText)
}

func fnType(ctx *evalContext, args []Arg) Value {
	if len(args) != 1 {
		return ErrorValue(NewEvalError(ErrorVal, ""))
	}
	return NumberValue(args[0].Value.TypeCode())
}

func fnNow(ctx *evalContext, args []Arg) Value {
	clock := ctx.clock
	if clock == nil {
		clock = WallClock{}
	}
	return NumberValue(excelSerial(clock.Now()))
}

func fnToday(ctx *evalContext, args []Arg) Value {
	clock := ctx.clock
	if clock == nil {
		clock = WallClock{}
	}
	t := clock.Now()
	return NumberValue(math.Floor(excelSerial(t)))
}

func fnRand(ctx *evalContext, args []Arg) Value {
	rng := ctx.rng
	if rng == nil {
		rng = DefaultRandomGenerator{}
	}
	return NumberValue(rng.Float64())
}
