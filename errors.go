package spreadsheet

import "fmt"

// ErrorKind is a value-level spreadsheet error, one of the eight kinds
// Excel-compatible formulas can produce.
type ErrorKind uint8

const (
	ErrorDiv0 ErrorKind = iota + 1
	ErrorNA
	ErrorName
	ErrorNum
	ErrorRef
	// ErrorVal is the #VALUE! kind. Named ErrorVal rather than ErrorValue to
	// avoid colliding with the Value-lattice constructor of the same name
	// in value.go.
	ErrorVal
	ErrorError
	ErrorCalc
)

// errorText maps each ErrorKind to its canonical in-cell sentinel string.
var errorText = map[ErrorKind]string{
	ErrorDiv0:  "#DIV/0!",
	ErrorNA:    "#N/A",
	ErrorName:  "#NAME?",
	ErrorNum:   "#NUM!",
	ErrorRef:   "#REF!",
	ErrorVal:   "#VALUE!",
	ErrorError: "#ERROR!",
	ErrorCalc:  "#CALC!",
}

// errorFromText is the reverse of errorText, used by the lexer/parser to
// recognize error literals in formula text.
var errorFromText = func() map[string]ErrorKind {
	m := make(map[string]ErrorKind, len(errorText))
	for k, v := range errorText {
		m[v] = k
	}
	return m
}()

func (k ErrorKind) String() string {
	if s, ok := errorText[k]; ok {
		return s
	}
	return "#ERROR!"
}

// ParseErrorKind resolves a sentinel string such as "#REF!" to its ErrorKind.
func ParseErrorKind(text string) (ErrorKind, bool) {
	k, ok := errorFromText[text]
	return k, ok
}

// EvalError is the value-level error produced during formula evaluation. It
// implements error so it can flow through ordinary Go error returns inside
// the evaluator, but it is also a first-class spreadsheet Value (see
// value.go) that gets stored in a cell rather than aborting calculation.
type EvalError struct {
	Kind    ErrorKind
	Message string
	// Origin is the "SheetName!A1" address where the error originated,
	// carried only by Formula-error cells per the Cell shape in cell.go.
	Origin string
}

func (e *EvalError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

// NewEvalError builds an EvalError, defaulting Message to the kind's
// sentinel text when none is supplied.
func NewEvalError(kind ErrorKind, message string) *EvalError {
	if message == "" {
		message = kind.String()
	}
	return &EvalError{Kind: kind, Message: message}
}

func circularReferenceError() *EvalError {
	return &EvalError{Kind: ErrorError, Message: "circular reference"}
}

// AppErrorCode is a gRPC-style status code for API-level failures, as
// opposed to in-cell EvalError values.
type AppErrorCode int

const (
	CodeOK AppErrorCode = 0
	CodeUnknown AppErrorCode = 2
	CodeInvalidArgument AppErrorCode = 3
	CodeNotFound AppErrorCode = 5
	CodeAlreadyExists AppErrorCode = 6
	CodeFailedPrecondition AppErrorCode = 9
	CodeOutOfRange AppErrorCode = 11
	CodeInternal AppErrorCode = 13
)

// AppError is the API-level error stratum: invalid coordinates, unknown
// sheets, edit conflicts, and structural violations reported back to the
// caller of Model's methods. It is distinct from EvalError, which never
// leaves a cell.
type AppError struct {
	Code    AppErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code AppErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}
