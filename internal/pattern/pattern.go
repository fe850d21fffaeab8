// Package pattern compiles user-supplied search patterns into matchers.
// Three pattern kinds are supported: literal text, hex byte sequences,
// and regular expressions. A compiled Matcher is immutable and safe to
// share across worker goroutines.
package pattern

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/everfind/everfind/internal/errors"
)

// Kind identifies how the pattern input should be interpreted.
type Kind int

const (
	// KindText matches the input as a literal substring.
	KindText Kind = iota
	// KindHex decodes the input as hex and matches the raw byte sequence.
	KindHex
	// KindRegex compiles the input verbatim as a regular expression.
	KindRegex
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindHex:
		return "hex"
	case KindRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// KindOf derives the pattern kind from the CLI mode flags.
// Regex wins over hex when both are requested, matching flag precedence.
func KindOf(isRegex, isHex bool) Kind {
	switch {
	case isRegex:
		return KindRegex
	case isHex:
		return KindHex
	default:
		return KindText
	}
}

// Matcher locates the first occurrence of a compiled pattern in a line.
// Exactly one of re or raw is set. The zero value is not usable; obtain
// one via Compile.
type Matcher struct {
	re   *regexp.Regexp
	raw  []byte // decoded hex bytes, matched literally
	kind Kind
	// input is the original user input, kept for display and logging.
	input string
}

// Kind returns the kind the matcher was compiled from.
func (m *Matcher) Kind() Kind { return m.kind }

// Input returns the original pattern string as the user supplied it.
func (m *Matcher) Input() string { return m.input }

// FindFirst returns the half-open byte-offset range [start, end) of the
// first match within line, and whether a match was found. Later matches
// on the same line are not reported.
func (m *Matcher) FindFirst(line []byte) (start, end int, ok bool) {
	if m.raw != nil {
		idx := bytes.Index(line, m.raw)
		if idx < 0 {
			return 0, 0, false
		}
		return idx, idx + len(m.raw), true
	}

	loc := m.re.FindIndex(line)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// Compile turns a pattern string and kind into an executable Matcher.
//
// Text input has all regex metacharacters escaped before compilation, so
// "a.b" matches only the literal "a.b". Hex input is stripped of
// whitespace and decoded to a raw byte sequence that is matched
// literally; odd length or non-hex characters fail with ErrCodeInvalidHex.
// Regex input is compiled verbatim and fails with ErrCodeInvalidRegex on
// a syntax error.
func Compile(input string, kind Kind) (*Matcher, error) {
	switch kind {
	case KindText:
		re, err := regexp.Compile(regexp.QuoteMeta(input))
		if err != nil {
			return nil, errors.New(errors.ErrCodeInternal, fmt.Sprintf("failed to compile text pattern %q", input), err)
		}
		return &Matcher{re: re, kind: kind, input: input}, nil

	case KindHex:
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, input)
		raw, err := hex.DecodeString(cleaned)
		if err != nil || len(raw) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidHex, fmt.Sprintf("invalid hex pattern %q", input), err).
				WithSuggestion("use an even number of hex digits, e.g. 48656c6c6f")
		}
		return &Matcher{raw: raw, kind: kind, input: input}, nil

	case KindRegex:
		re, err := regexp.Compile(input)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidRegex, fmt.Sprintf("invalid regular expression %q", input), err).
				WithSuggestion("check the pattern syntax; literal searches do not need --regex")
		}
		return &Matcher{re: re, kind: kind, input: input}, nil

	default:
		return nil, errors.New(errors.ErrCodeInternal, fmt.Sprintf("unknown pattern kind %d", kind), nil)
	}
}
