// Package filter implements spec.md §4.3's mini-language: a hand-written
// recursive-descent lexer and parser (preferred over a grammar
// generator per spec.md §9's design note) that compiles a FILTER
// expression into a single predicate closure over a decoded record, so
// the expression is parsed once per query rather than once per entry —
// the same "configure once, apply many times" shape as the teacher's
// columnar encoders.
package filter

import (
	"fmt"
	"strings"

	"github.com/arloliu/tsengine/errs"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokWord   // unquoted literal run (numbers, bare words, true/false/null)
	tokString // double-quoted literal, already unescaped
	tokOp     // = != > >= < <=
	tokLParen
	tokRParen
	tokComma
	tokAnd
	tokOr
)

type token struct {
	kind tokenKind
	text string
}

// lex tokenizes a FILTER expression. Operator matching is first-longest
// per spec.md §4.3: "<=" before "<", ">=" before ">", "!=" before "=".
func lex(expr string) ([]token, error) {
	var toks []token
	r := []rune(expr)
	i := 0
	n := len(r)

	for i < n {
		c := r[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '"':
			lit, consumed, err := lexQuoted(r[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, lit})
			i += consumed
		case isOpRune(c):
			op, consumed := lexOp(r[i:])
			if op == "" {
				return nil, fmt.Errorf("%w: %q", errs.ErrFilterParse, string(r[i:]))
			}
			toks = append(toks, token{tokOp, op})
			i += consumed
		default:
			word, consumed := lexWord(r[i:])
			if word == "" {
				return nil, fmt.Errorf("%w: unexpected character %q", errs.ErrFilterParse, string(c))
			}
			switch strings.ToUpper(word) {
			case "AND":
				toks = append(toks, token{tokAnd, word})
			case "OR":
				toks = append(toks, token{tokOr, word})
			default:
				kind := tokWord
				if isIdent(word) {
					kind = tokIdent
				}
				toks = append(toks, token{kind, word})
			}
			i += consumed
		}
	}

	toks = append(toks, token{tokEOF, ""})

	return toks, nil
}

func isOpRune(c rune) bool {
	return c == '=' || c == '!' || c == '>' || c == '<'
}

// lexOp matches the longest operator starting at r, per the
// first-longest rule.
func lexOp(r []rune) (string, int) {
	two := ""
	if len(r) >= 2 {
		two = string(r[:2])
	}
	switch two {
	case "!=", ">=", "<=":
		return two, 2
	}

	switch r[0] {
	case '=', '>', '<':
		return string(r[0]), 1
	default:
		return "", 0
	}
}

func lexWord(r []rune) (string, int) {
	i := 0
	for i < len(r) && !isBoundary(r[i]) {
		i++
	}

	return string(r[:i]), i
}

func isBoundary(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' ||
		c == '(' || c == ')' || c == ',' || isOpRune(c) || c == '"'
}

// lexQuoted scans a double-quoted literal starting at r[0]=='"',
// unescaping doubled quotes ("" -> ") per spec.md §4.3's list grammar.
func lexQuoted(r []rune) (string, int, error) {
	var sb strings.Builder
	i := 1
	for i < len(r) {
		if r[i] == '"' {
			if i+1 < len(r) && r[i+1] == '"' {
				sb.WriteRune('"')
				i += 2
				continue
			}

			return sb.String(), i + 1, nil
		}
		sb.WriteRune(r[i])
		i++
	}

	return "", 0, fmt.Errorf("%w: unterminated quoted string", errs.ErrFilterParse)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	c := rune(s[0])
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return false
	}
	for _, c := range s[1:] {
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}

	return true
}
