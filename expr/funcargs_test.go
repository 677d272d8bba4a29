package expr

import "testing"

func TestParseFunctionArgs_Empty(t *testing.T) {
	p := ParseFunctionArgs("")
	if p.Shape != ShapeEmpty {
		t.Fatalf("expected ShapeEmpty, got %v", p.Shape)
	}
}

func TestParseFunctionArgs_Positional(t *testing.T) {
	p := ParseFunctionArgs(`$user 5 "hello world" true`)
	if p.Shape != ShapePositional {
		t.Fatalf("expected ShapePositional, got %v", p.Shape)
	}
	if len(p.Positional) != 4 {
		t.Fatalf("expected 4 positional args, got %d: %+v", len(p.Positional), p.Positional)
	}
	if p.Positional[0].Name != "user" {
		t.Errorf("unexpected first arg: %+v", p.Positional[0])
	}
	if p.Positional[2].StringLit != "hello world" {
		t.Errorf("unexpected third arg: %+v", p.Positional[2])
	}
}

func TestParseFunctionArgs_Keyword(t *testing.T) {
	p := ParseFunctionArgs(`name="Bob" age=30 active=true`)
	if p.Shape != ShapeKeyword {
		t.Fatalf("expected ShapeKeyword, got %v", p.Shape)
	}
	if len(p.Keyword) != 3 {
		t.Fatalf("expected 3 keyword args, got %d", len(p.Keyword))
	}
	if p.Keyword[0].Name != "name" || p.Keyword[0].Value.StringLit != "Bob" {
		t.Errorf("unexpected first kwarg: %+v", p.Keyword[0])
	}
	if p.Keyword[1].Name != "age" || p.Keyword[1].Value.IntLit != 30 {
		t.Errorf("unexpected second kwarg: %+v", p.Keyword[1])
	}
}

func TestParseFunctionArgs_LeadingFlags(t *testing.T) {
	p := ParseFunctionArgs(`:sub:args val1 val2`)
	if len(p.Flags) != 2 || p.Flags[0] != "sub" || p.Flags[1] != "args" {
		t.Fatalf("unexpected flags: %+v", p.Flags)
	}
	if p.Shape != ShapePositional || len(p.Positional) != 2 {
		t.Fatalf("unexpected shape/positional: %v %+v", p.Shape, p.Positional)
	}
}

func TestParseFunctionArgs_QuotedEqualsIsNotKeyword(t *testing.T) {
	// A lone quoted string containing '=' should not be misread as keyword form.
	p := ParseFunctionArgs(`"a=b"`)
	if p.Shape != ShapePositional {
		t.Fatalf("expected ShapePositional, got %v", p.Shape)
	}
}
