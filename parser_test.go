package spreadsheet

import "testing"

func parseOrFail(t *testing.T, text string) ASTNode {
	t.Helper()
	node, err := ParseFormula(text)
	if err != nil {
		t.Fatalf("ParseFormula(%q) error: %v", text, err)
	}
	return node
}

func TestParsePrecedence(t *testing.T) {
	node := parseOrFail(t, "1+2*3")
	bin, ok := node.(*BinaryOpNode)
	if !ok || bin.Op != OpAdd {
		t.Fatalf("top node = %+v, want addition", node)
	}
	right, ok := bin.Right.(*BinaryOpNode)
	if !ok || right.Op != OpMul {
		t.Fatalf("right node = %+v, want multiplication", bin.Right)
	}
}

func TestParsePowerRightAssociative(t *testing.T) {
	node := parseOrFail(t, "2^3^2")
	top, ok := node.(*BinaryOpNode)
	if !ok || top.Op != OpPow {
		t.Fatalf("top = %+v", node)
	}
	if _, ok := top.Left.(*NumberNode); !ok {
		t.Fatalf("left should be a plain number, got %+v", top.Left)
	}
	right, ok := top.Right.(*BinaryOpNode)
	if !ok || right.Op != OpPow {
		t.Fatalf("right should itself be a power expression, got %+v", top.Right)
	}
}

// TestASTStringRoundTrip is invariant 2 (spec.md §8): re-parsing a
// formula's own String() output reconstructs the same tree shape.
func TestASTStringRoundTrip(t *testing.T) {
	formulas := []string{
		"1+2*3",
		"(1+2)*3",
		"2^3^2",
		"-A1+B2",
		"A1:B3",
		"SUM(A1:A10,5)",
		`"a"&"b"&1`,
		"IF(A1>0,1,-1)",
		"5%+1",
	}
	for _, f := range formulas {
		node := parseOrFail(t, f)
		reparsed, err := ParseFormula(node.String())
		if err != nil {
			t.Fatalf("%q -> %q: reparse error: %v", f, node.String(), err)
		}
		if reparsed.String() != node.String() {
			t.Fatalf("%q -> %q -> %q: not stable", f, node.String(), reparsed.String())
		}
	}
}

func TestParseFunctionCallArgSeparators(t *testing.T) {
	node := parseOrFail(t, "SUM(1,2;3)")
	call, ok := node.(*FunctionCallNode)
	if !ok || call.Name != "SUM" || len(call.Args) != 3 {
		t.Fatalf("node = %+v", node)
	}
}

func TestParseUnexpectedTrailingInput(t *testing.T) {
	if _, err := ParseFormula("1 1"); err == nil {
		t.Fatal("expected a parse error for trailing input")
	}
}

func TestParseRangeAcrossSheets(t *testing.T) {
	node := parseOrFail(t, "Data!A1:B2")
	rng, ok := node.(*RangeNode)
	if !ok {
		t.Fatalf("node = %+v", node)
	}
	if rng.Range.Start.Sheet != "Data" || rng.Range.End.Sheet != "Data" {
		t.Fatalf("range = %+v", rng.Range)
	}
}
