package verify

import (
	"bufio"
	"bytes"
	"strings"
)

// Normalize reduces Dockerfile text to its instruction sequence: comments
// and blank lines are dropped, backslash continuations joined, and
// whitespace runs outside quotes collapsed to one space. CRLF input is
// tolerated.
func Normalize(text []byte) []string {
	var (
		out     []string
		pending string
		cont    bool
	)

	flush := func() {
		if pending != "" {
			out = append(out, collapse(pending))
		}
		pending = ""
		cont = false
	}

	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimRight(scanner.Text(), "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			// comments are legal between continuation lines
			continue
		}
		if cont {
			pending += " " + line
		} else {
			pending = line
		}
		if strings.HasSuffix(pending, "\\") {
			pending = strings.TrimRight(strings.TrimSuffix(pending, "\\"), " \t")
			cont = true
			continue
		}
		flush()
	}
	flush()
	return out
}

func collapse(s string) string {
	var b strings.Builder
	var quote rune
	space := false
	for _, r := range s {
		if quote != 0 {
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		if r == ' ' || r == '\t' {
			space = true
			continue
		}
		if space {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
		}
		if r == '\'' || r == '"' {
			quote = r
		}
		b.WriteRune(r)
	}
	return b.String()
}
