package params

import (
	"errors"
	"fmt"
	"strings"
)

// MaxExpandDepth bounds recursive expansion of variable values. Values that
// reference themselves terminate by exceeding it.
const MaxExpandDepth = 16

var ErrExpandDepth = errors.New("params: expansion depth exceeded")

type UnknownVarError struct {
	Name string
}

func (e UnknownVarError) Error() string {
	return fmt.Sprintf("params: unknown variable %q", e.Name)
}

type expandMode int

const (
	modeEmpty expandMode = iota
	modeStrict
	modePreserve
)

// Expand substitutes variable references the way an image build does:
// $VAR, ${VAR}, ${VAR:-default}, ${VAR:+alternate}, with $$ escaping a
// literal dollar. Unknown variables expand to the empty string.
func Expand(s string, vars map[string]string) (string, error) {
	return expand(s, vars, 0, modeEmpty)
}

// ExpandStrict is Expand, except references to unknown variables are an
// error instead of vanishing silently.
func ExpandStrict(s string, vars map[string]string) (string, error) {
	return expand(s, vars, 0, modeStrict)
}

// ExpandPreserve is Expand, except references to unknown variables are
// kept verbatim. Render previews use it: build args resolve while
// runtime-only variables such as $PATH stay visible.
func ExpandPreserve(s string, vars map[string]string) (string, error) {
	return expand(s, vars, 0, modePreserve)
}

func expand(s string, vars map[string]string, depth int, mode expandMode) (string, error) {
	if depth > MaxExpandDepth {
		return "", ErrExpandDepth
	}

	var out strings.Builder
	out.Grow(len(s))

	i := 0
	for i < len(s) {
		if s[i] != '$' {
			out.WriteByte(s[i])
			i++
			continue
		}

		if i+1 >= len(s) {
			// trailing $
			out.WriteByte('$')
			i++
			continue
		}

		next := s[i+1]

		if next == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}

		if next == '{' {
			end := braceEnd(s, i+2)
			if end < 0 {
				// unclosed brace, leave it alone
				out.WriteByte('$')
				i++
				continue
			}

			val, err := expandBrace(s[i+2:end], vars, depth, mode)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = end + 1
			continue
		}

		j := i + 1
		for j < len(s) && isVarChar(s[j]) {
			j++
		}
		if j == i+1 {
			// $ followed by something that can't start a name
			out.WriteByte('$')
			i++
			continue
		}

		name := s[i+1 : j]
		val, err := lookup(name, "$"+name, vars, depth, mode)
		if err != nil {
			return "", err
		}
		out.WriteString(val)
		i = j
	}

	return out.String(), nil
}

// braceEnd finds the '}' closing the reference whose body starts at from,
// skipping over nested ${...} references such as a default value that is
// itself a reference.
func braceEnd(s string, from int) int {
	level := 1
	for i := from; i < len(s); i++ {
		switch {
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			level++
			i++
		case s[i] == '}':
			level--
			if level == 0 {
				return i
			}
		}
	}
	return -1
}

func expandBrace(expr string, vars map[string]string, depth int, mode expandMode) (string, error) {
	ref := "${" + expr + "}"

	colon := strings.IndexByte(expr, ':')
	if colon < 0 || colon+1 >= len(expr) {
		name := expr
		if colon >= 0 {
			name = expr[:colon]
		}
		return lookup(name, ref, vars, depth, mode)
	}

	name := expr[:colon]
	modifier := expr[colon+1]
	word := expr[colon+2:]

	val, set := vars[name]
	empty := !set || val == ""

	switch modifier {
	case '-':
		if empty {
			return expand(word, vars, depth+1, mode)
		}
		return expand(val, vars, depth+1, mode)
	case '+':
		if empty {
			return "", nil
		}
		return expand(word, vars, depth+1, mode)
	default:
		return lookup(name, ref, vars, depth, mode)
	}
}

func lookup(name, ref string, vars map[string]string, depth int, mode expandMode) (string, error) {
	val, ok := vars[name]
	if !ok {
		switch mode {
		case modeStrict:
			return "", UnknownVarError{Name: name}
		case modePreserve:
			return ref, nil
		default:
			return "", nil
		}
	}
	return expand(val, vars, depth+1, mode)
}

func isVarChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
