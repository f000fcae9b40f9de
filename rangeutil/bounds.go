// Package rangeutil implements spec.md §4.2: translating the caller's
// timestamp bound tokens into the lexicographic key bounds package
// kvstore accepts.
package rangeutil

import (
	"fmt"
	"strconv"

	"github.com/arloliu/tsengine/errs"
)

// Clock returns the host's current wall-clock time in seconds, used to
// substitute the "*" bound token. Taking it as a function rather than
// calling time.Now() directly mirrors the teacher's pattern of
// accepting a startTime parameter instead of reading the clock
// internally, which keeps range translation deterministic under test.
type Clock func() int64

// Translate converts the caller-supplied (lo, hi) bound tokens into the
// lexicographic (min, max) bounds package kvstore expects, per spec.md
// §4.2. Each input token may be "-", "+", "*", a bracketed literal
// ("[x" or "(x", passed through verbatim), or a decimal integer.
func Translate(lo, hi string, now Clock) (min, max string, err error) {
	lo, err = substituteStar(lo, now)
	if err != nil {
		return "", "", err
	}
	hi, err = substituteStar(hi, now)
	if err != nil {
		return "", "", err
	}

	loNum, loIsNum, err := classify(lo)
	if err != nil {
		return "", "", err
	}
	hiNum, hiIsNum, err := classify(hi)
	if err != nil {
		return "", "", err
	}

	min, err = translateLower(lo, loIsNum, loNum)
	if err != nil {
		return "", "", err
	}

	fudge := int64(1)
	if loIsNum && hiIsNum && loNum > hiNum {
		fudge = -1
	}

	max, err = translateUpper(hi, hiIsNum, hiNum, fudge)
	if err != nil {
		return "", "", err
	}

	return min, max, nil
}

// PointBounds returns the exact-timestamp lexicographic bounds used by
// get/exists/set/incrBy/del: "[T|" and "(T+1|", per spec.md §4.2.
func PointBounds(ts int64) (min, max string) {
	return fmt.Sprintf("[%d|", ts), fmt.Sprintf("(%d|", ts+1)
}

func substituteStar(tok string, now Clock) (string, error) {
	if tok != "*" {
		return tok, nil
	}
	if now == nil {
		return "", fmt.Errorf("%w: '*' bound requires a clock", errs.ErrInvalidBound)
	}

	return strconv.FormatInt(now(), 10), nil
}

// classify reports whether tok is a passthrough token ("-", "+", or a
// bracketed literal) or a decimal integer, returning the parsed integer
// in the latter case.
func classify(tok string) (n int64, isNumeric bool, err error) {
	if tok == "-" || tok == "+" {
		return 0, false, nil
	}
	if len(tok) > 0 && (tok[0] == '[' || tok[0] == '(') {
		return 0, false, nil
	}

	n, perr := strconv.ParseInt(tok, 10, 64)
	if perr != nil {
		return 0, false, fmt.Errorf("%w: %q", errs.ErrInvalidBound, tok)
	}

	return n, true, nil
}

func translateLower(tok string, isNumeric bool, n int64) (string, error) {
	if !isNumeric {
		return tok, nil
	}

	return fmt.Sprintf("[%d|", n), nil
}

func translateUpper(tok string, isNumeric bool, n, fudge int64) (string, error) {
	if !isNumeric {
		return tok, nil
	}

	return fmt.Sprintf("(%d|", n+fudge), nil
}
