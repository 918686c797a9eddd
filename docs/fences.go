package docs

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// Fences extracts the dockerfile-tagged fenced code blocks from markdown,
// in document order. Each block is returned newline-terminated.
func Fences(markdown []byte) ([]string, error) {
	var (
		fences  []string
		current *strings.Builder
	)

	scanner := bufio.NewScanner(bytes.NewReader(markdown))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if current == nil {
			if trimmed == "```dockerfile" {
				current = &strings.Builder{}
			}
			continue
		}
		if trimmed == "```" {
			fences = append(fences, current.String())
			current = nil
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		return nil, fmt.Errorf("docs: unterminated dockerfile fence")
	}
	return fences, nil
}
