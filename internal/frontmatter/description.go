package frontmatter

import (
	"strings"
)

// Description returns a one-line summary of a skill document: the
// front-matter description when present, otherwise the first line of prose
// in the body. It returns "" when neither exists.
func Description(content []byte) string {
	doc, err := Parse(content)
	if err == nil && doc.Description != "" {
		return collapse(doc.Description)
	}
	body := doc.Body
	if err != nil {
		// Unparseable metadata still delimits the body.
		if _, b, ok := Split(content); ok {
			body = b
		}
	}
	return FirstProseLine(body)
}

// FirstProseLine returns the first non-empty body line that is not a heading,
// list item, block quote, code fence or horizontal rule. Lines inside fenced
// code blocks are skipped as well.
func FirstProseLine(body string) string {
	inFence := false
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence || line == "" || !isProse(line) {
			continue
		}
		return collapse(line)
	}
	return ""
}

func isFence(line string) bool {
	return strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~")
}

func isProse(line string) bool {
	switch line[0] {
	case '#', '>', '|':
		return false
	case '-', '*', '+':
		if isRule(line) || len(line) == 1 || line[1] == ' ' {
			return false
		}
	case '_':
		if isRule(line) {
			return false
		}
	}
	return !isOrderedItem(line) && !strings.HasPrefix(line, "<!--")
}

// isRule matches thematic breaks such as "---", "* * *" and "___".
func isRule(line string) bool {
	marker := rune(line[0])
	count := 0
	for _, r := range line {
		switch r {
		case marker:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

// isOrderedItem matches "1. item" and "2) item".
func isOrderedItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) {
		return false
	}
	return (line[i] == '.' || line[i] == ')') && line[i+1] == ' '
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
