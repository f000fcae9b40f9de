package filter

import (
	"fmt"

	"github.com/arloliu/tsengine/errs"
)

type compareOp int

const (
	opEq compareOp = iota
	opNe
	opGt
	opGe
	opLt
	opLe
)

// cond is one parsed "ident op scalar" or "ident set_op (list)" clause.
type cond struct {
	field   string
	isSet   bool
	setNeg  bool // true for "!=(...)"
	set     map[string]struct{}
	op      compareOp
	literal string
}

// parsed is a flat chain of conds joined left-to-right by AND/OR with
// no precedence, per spec.md §4.3's deliberately simplified grammar:
// "mixing AND and OR in a single unparenthesized chain yields a single
// flat predicate applied in input order".
type parsed struct {
	conds []cond
	joins []tokenKind // len(joins) == len(conds)-1
}

func parse(expr string) (*parsed, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}

	p := &parserState{toks: toks}

	first, err := p.parseCond()
	if err != nil {
		return nil, err
	}

	out := &parsed{conds: []cond{first}}
	for p.peek().kind == tokAnd || p.peek().kind == tokOr {
		join := p.next().kind
		c, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		out.joins = append(out.joins, join)
		out.conds = append(out.conds, c)
	}

	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected trailing token %q", errs.ErrFilterParse, p.peek().text)
	}

	return out, nil
}

type parserState struct {
	toks []token
	pos  int
}

func (p *parserState) peek() token {
	return p.toks[p.pos]
}

func (p *parserState) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	return t
}

func (p *parserState) parseCond() (cond, error) {
	fieldTok := p.next()
	if fieldTok.kind != tokIdent {
		return cond{}, fmt.Errorf("%w: expected field name, got %q", errs.ErrFilterParse, fieldTok.text)
	}

	opTok := p.next()
	if opTok.kind != tokOp {
		return cond{}, fmt.Errorf("%w: expected operator after %q, got %q", errs.ErrFilterParse, fieldTok.text, opTok.text)
	}

	op, err := parseOp(opTok.text)
	if err != nil {
		return cond{}, err
	}

	// set_op form: ident ("=" | "!=") "(" list ")"
	if (op == opEq || op == opNe) && p.peek().kind == tokLParen {
		p.next() // consume '('
		set, err := p.parseList()
		if err != nil {
			return cond{}, err
		}

		return cond{field: fieldTok.text, isSet: true, setNeg: op == opNe, set: set}, nil
	}

	litTok := p.next()
	if litTok.kind != tokWord && litTok.kind != tokString && litTok.kind != tokIdent {
		return cond{}, fmt.Errorf("%w: expected value after operator, got %q", errs.ErrFilterParse, litTok.text)
	}

	return cond{field: fieldTok.text, op: op, literal: litTok.text}, nil
}

func (p *parserState) parseList() (map[string]struct{}, error) {
	set := make(map[string]struct{})
	if p.peek().kind == tokRParen {
		p.next()

		return set, nil
	}

	for {
		item := p.next()
		if item.kind != tokWord && item.kind != tokString && item.kind != tokIdent {
			return nil, fmt.Errorf("%w: expected list item, got %q", errs.ErrFilterParse, item.text)
		}
		set[item.text] = struct{}{}

		switch p.peek().kind {
		case tokComma:
			p.next()

			continue
		case tokRParen:
			p.next()

			return set, nil
		default:
			return nil, fmt.Errorf("%w: expected ',' or ')' in list, got %q", errs.ErrFilterParse, p.peek().text)
		}
	}
}

func parseOp(text string) (compareOp, error) {
	switch text {
	case "=":
		return opEq, nil
	case "!=":
		return opNe, nil
	case ">":
		return opGt, nil
	case ">=":
		return opGe, nil
	case "<":
		return opLt, nil
	case "<=":
		return opLe, nil
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", errs.ErrFilterParse, text)
	}
}

func (o compareOp) String() string {
	switch o {
	case opEq:
		return "="
	case opNe:
		return "!="
	case opGt:
		return ">"
	case opGe:
		return ">="
	case opLt:
		return "<"
	case opLe:
		return "<="
	default:
		return "?"
	}
}
