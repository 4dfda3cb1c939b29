package shell

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// Tokenize splits a command line on whitespace. Double quotes group text,
// so --street="Av. Reforma 222" is one token with the quotes removed.
// Single quotes group only at the start of a token or after '=', so an
// apostrophe inside a word (Women's) is kept as text.
func Tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		quote   rune
		inToken bool
		prev    rune
	)
	for _, r := range line {
		opensSingle := r == '\'' && (!inToken || prev == '=')
		prev = r
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || opensSingle:
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, errUnterminatedQuote
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens, nil
}

// Args are the tokens after the verb: positionals, --key=value flags and
// bare --switches. Flag names are case-insensitive.
type Args struct {
	Positional []string
	Flags      map[string]string
	Bare       map[string]bool
}

// ParseArgs sorts tokens into positionals and flags. Tokens with a single
// leading dash (ssh -i) stay positional.
func ParseArgs(tokens []string) Args {
	a := Args{Flags: map[string]string{}, Bare: map[string]bool{}}
	for _, tok := range tokens {
		if !strings.HasPrefix(tok, "--") || len(tok) == 2 {
			a.Positional = append(a.Positional, tok)
			continue
		}
		name, value, hasValue := strings.Cut(tok[2:], "=")
		name = strings.ToLower(name)
		if hasValue {
			a.Flags[name] = value
		} else {
			a.Bare[name] = true
		}
	}
	return a
}

// Arg returns the i-th positional or "".
func (a Args) Arg(i int) string {
	if i < len(a.Positional) {
		return a.Positional[i]
	}
	return ""
}

// Flag returns the value of --name=value.
func (a Args) Flag(name string) (string, bool) {
	v, ok := a.Flags[name]
	return v, ok
}

// Value returns the trimmed value of --name=value or "".
func (a Args) Value(name string) string {
	return strings.TrimSpace(a.Flags[name])
}

// Has reports whether --name was given, with or without a value.
func (a Args) Has(name string) bool {
	_, ok := a.Flags[name]
	return ok || a.Bare[name]
}

// Quantity parses --name as a quantity of at least one, defaulting to def.
func (a Args) Quantity(name string, def int) (int, error) {
	v, ok := a.Flags[name]
	if !ok {
		return def, nil
	}
	return parseQuantity(v)
}

func parseQuantity(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, usagef("quantity must be a whole number, got %q", v)
	}
	if n < 1 {
		return 0, usagef("quantity must be at least 1")
	}
	return n, nil
}

// Only rejects flags other than allowed.
func (a Args) Only(allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, n := range allowed {
		ok[n] = true
	}
	var unknown []string
	for n := range a.Flags {
		if !ok[n] {
			unknown = append(unknown, "--"+n)
		}
	}
	for n := range a.Bare {
		if !ok[n] {
			unknown = append(unknown, "--"+n)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return usagef("unknown option %s", strings.Join(unknown, ", "))
}

// usageError is a parse or validation failure. Its message is shown as is.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
