package segment

import "testing"

func TestCompile_LiteralOnly(t *testing.T) {
	cs := Compile("Hello, World!")
	if len(cs.Tokens) != 1 || cs.Tokens[0].Kind != TokenLiteral {
		t.Fatalf("expected single literal token, got %+v", cs.Tokens)
	}
	if cs.Tokens[0].Literal != "Hello, World!" {
		t.Errorf("unexpected literal: %q", cs.Tokens[0].Literal)
	}
}

func TestCompile_LiteralAndVarRef(t *testing.T) {
	cs := Compile("Hello, {$name}!")
	if len(cs.Tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %+v", len(cs.Tokens), cs.Tokens)
	}
	if cs.Tokens[0].Kind != TokenLiteral || cs.Tokens[0].Literal != "Hello, " {
		t.Errorf("unexpected first token: %+v", cs.Tokens[0])
	}
	if cs.Tokens[1].Kind != TokenVarRef {
		t.Fatalf("expected VarRef token, got %+v", cs.Tokens[1])
	}
	if len(cs.Tokens[1].Alternatives) != 1 || cs.Tokens[1].Alternatives[0].Name != "name" {
		t.Errorf("unexpected alternatives: %+v", cs.Tokens[1].Alternatives)
	}
	if cs.Tokens[2].Kind != TokenLiteral || cs.Tokens[2].Literal != "!" {
		t.Errorf("unexpected third token: %+v", cs.Tokens[2])
	}
}

func TestCompile_FunctionTagStaysLiteral(t *testing.T) {
	cs := Compile("{@bold}hi{/bold}")
	if len(cs.Tokens) != 1 || cs.Tokens[0].Kind != TokenLiteral {
		t.Fatalf("expected function tag to remain literal text, got %+v", cs.Tokens)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	a := Compile("{$x->trim}")
	b := Compile("{$x->trim}")
	if a.Hash != b.Hash {
		t.Fatalf("expected same hash, got %d vs %d", a.Hash, b.Hash)
	}
	if len(a.Tokens) != len(b.Tokens) {
		t.Fatalf("expected structurally equal outputs")
	}
}

func TestCache_ClearRecompiles(t *testing.T) {
	c := NewCache()
	first := c.Compile("{$a}")
	if c.Size() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("expected cache to be empty after Clear, got %d", c.Size())
	}
	second := c.Compile("{$a}")
	if first == second {
		t.Errorf("expected a fresh compile after Clear, got the same pointer")
	}
}

func TestCompile_HasFunctionTags(t *testing.T) {
	if !Compile("{@bold}hi{/bold}").HasFunctionTags {
		t.Error("expected function tag marker to be detected")
	}
	if Compile("Hello, {$name}!").HasFunctionTags {
		t.Error("expected no function tag marker")
	}
}

func TestCompile_TextReassemblesOriginal(t *testing.T) {
	cs := Compile("Hello, {$name}!")
	if got := cs.Text(); got != "Hello, {$name}!" {
		t.Errorf("expected reassembled text to match original, got %q", got)
	}
}

func TestCompile_UnterminatedTagIsLiteral(t *testing.T) {
	cs := Compile("price: {$amount")
	if len(cs.Tokens) != 1 || cs.Tokens[0].Kind != TokenLiteral {
		t.Fatalf("expected unterminated tag to remain literal, got %+v", cs.Tokens)
	}
}
