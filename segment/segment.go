// Package segment implements CompiledSegment (spec.md §4.3): a
// pre-tokenized, content-hash-memoized representation of one literal
// text run, scanned once for "{$...}" variable-tag occurrences so that
// rendering does no further regex work.
//
// The compiler's node-by-node structure is grounded on teacher's
// compiler.Compiler.compileNode switch (compiler/compiler.go); the
// content-hash cache is grounded on teacher's engine.TemplateCache
// (engine/cache.go), with cespare/xxhash/v2 replacing the teacher's
// crypto/md5 Checksum.
package segment

import (
	"github.com/codingersid/blocktemplate/expr"
)

// TokenKind distinguishes the two token shapes a CompiledSegment holds.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenVarRef
)

// Token is one entry of a CompiledSegment's token list.
type Token struct {
	Kind TokenKind

	Literal string // TokenLiteral

	Alternatives []expr.VarExpression // TokenVarRef
	Raw          string               // TokenVarRef: original "{$...}" text, for reassembly around function tags
}

// CompiledSegment is the immutable, ordered token list produced by
// compiling one literal text run (spec.md §4.3).
type CompiledSegment struct {
	Hash   uint64
	Tokens []Token

	// HasFunctionTags reports whether the original content contains a
	// "{@" occurrence. When false, rendering can resolve each VarRef
	// token's precompiled Alternatives directly and skip the
	// function-tag pass entirely (spec.md §4.6 step 1 is then a no-op).
	// When true, the renderer must reconstruct the original text (via
	// Raw) and run both passes dynamically, because a function tag's
	// output may introduce new variable tags not present at compile
	// time (spec.md §4.6's interleaving rule).
	HasFunctionTags bool
}

// Text reassembles the original literal run this CompiledSegment was
// compiled from, for renderers that need to re-scan it dynamically
// (segments containing function tags).
func (c *CompiledSegment) Text() string {
	var b []byte
	for _, t := range c.Tokens {
		if t.Kind == TokenLiteral {
			b = append(b, t.Literal...)
		} else {
			b = append(b, t.Raw...)
		}
	}
	return string(b)
}

// compile scans content for "{$...}" occurrences, emitting Literal
// tokens for the text between them and VarRef tokens for each tag's
// parsed alternatives (spec.md §4.3 steps 2-4). Function tags ("{@...}")
// and their closers ("{/...}") are left untouched inside Literal tokens;
// they are resolved later, during render (spec.md §4.6).
func compile(content string) *CompiledSegment {
	var tokens []Token
	var literalStart int

	i := 0
	for i < len(content) {
		if !hasPrefixAt(content, i, "{$") {
			i++
			continue
		}

		close, ok := findTagClose(content, i+2)
		if !ok {
			i++
			continue
		}

		if i > literalStart {
			tokens = append(tokens, Token{Kind: TokenLiteral, Literal: content[literalStart:i]})
		}

		interior := content[i+1 : close] // keeps leading '$', drops braces
		tokens = append(tokens, Token{Kind: TokenVarRef, Alternatives: expr.ParseTag(interior), Raw: content[i : close+1]})

		i = close + 1
		literalStart = i
	}

	if literalStart < len(content) {
		tokens = append(tokens, Token{Kind: TokenLiteral, Literal: content[literalStart:]})
	}

	return &CompiledSegment{Hash: hashContent(content), Tokens: tokens, HasFunctionTags: hasFunctionTagMarker(content)}
}

// hasFunctionTagMarker reports whether content contains a "{@" opening
// function-tag marker anywhere (a cheap pre-check; false positives from
// "{@" inside a quoted variable-tag argument are harmless — they only
// cost an extra dynamic re-scan at render time).
func hasFunctionTagMarker(content string) bool {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '{' && content[i+1] == '@' {
			return true
		}
	}
	return false
}

// FindTagClose is the exported form of findTagClose, reused by package
// entity to dynamically re-scan text produced by a function-tag
// substitution for "{$...}" occurrences that were not present at
// compile time (spec.md §4.6's interleaving rule).
func FindTagClose(s string, i int) (int, bool) { return findTagClose(s, i) }

// findTagClose scans from i (just past "{$") for the matching '}',
// skipping over balanced single/double-quoted substrings so a literal
// '}' inside a quoted path segment or modifier argument does not
// terminate the tag early.
func findTagClose(s string, i int) (int, bool) {
	inString := false
	var quote byte
	escaped := false

	for ; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == quote {
				inString = false
			}
			continue
		}
		switch c {
		case '\'', '"':
			inString = true
			quote = c
		case '}':
			return i, true
		case '\n':
			return 0, false // variable tags do not span lines
		}
	}
	return 0, false
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return i+len(prefix) <= len(s) && s[i:i+len(prefix)] == prefix
}
