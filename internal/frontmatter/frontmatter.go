// Package frontmatter reads the metadata block at the top of a skill document.
//
// A skill document starts with a YAML block delimited by "---" lines,
// followed by a Markdown body:
//
//	---
//	name: pdf-tools
//	description: Extract text and tables from PDF files.
//	---
//
//	# PDF tools
//
// Only the name and description keys are consumed.
package frontmatter

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Document is a parsed skill document.
type Document struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Body        string `yaml:"-"`
	// HasFrontmatter is false when the content had no delimited metadata block.
	HasFrontmatter bool `yaml:"-"`
}

// Split separates the metadata block from the body. ok is false when the
// content does not open with a delimiter line or the block is never closed.
func Split(content []byte) (meta []byte, body string, ok bool) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")) // BOM
	trimmed := bytes.TrimLeft(content, " \t\r\n")
	rest, found := cutLine(trimmed, delimiter)
	if !found {
		return nil, string(content), false
	}

	// Empty block: "---\n---\n".
	if after, found := cutLine(rest, delimiter); found {
		return []byte{}, strings.TrimLeft(string(after), "\r\n"), true
	}

	closing := []byte("\n" + delimiter)
	idx := bytes.Index(rest, closing)
	if idx == -1 {
		return nil, string(content), false
	}
	after := rest[idx+len(closing):]
	// The closing delimiter must end its line.
	if len(after) > 0 && after[0] != '\n' && after[0] != '\r' {
		return nil, string(content), false
	}
	meta = bytes.TrimRight(rest[:idx], "\r")
	meta = bytes.ReplaceAll(meta, []byte("\r\n"), []byte("\n"))
	return meta, strings.TrimLeft(string(after), "\r\n"), true
}

// cutLine reports whether b starts with a line equal to line and returns
// what follows that line.
func cutLine(b []byte, line string) ([]byte, bool) {
	if !bytes.HasPrefix(b, []byte(line)) {
		return nil, false
	}
	rest := b[len(line):]
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		return rest[2:], true
	case bytes.HasPrefix(rest, []byte("\n")):
		return rest[1:], true
	case len(rest) == 0:
		return rest, true
	}
	return nil, false
}

// Parse parses a skill document. Metadata that is not valid YAML is scanned
// line by line for top-level name and description keys, since published
// documents often contain unquoted colons in descriptions.
func Parse(content []byte) (Document, error) {
	meta, body, ok := Split(content)
	doc := Document{Body: body, HasFrontmatter: ok}
	if !ok || len(bytes.TrimSpace(meta)) == 0 {
		return doc, nil
	}

	var fields struct {
		Name        any `yaml:"name"`
		Description any `yaml:"description"`
	}
	if err := yaml.Unmarshal(meta, &fields); err != nil {
		name, desc, found := scanKeys(meta)
		if !found {
			return doc, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		doc.Name, doc.Description = name, desc
		return doc, nil
	}
	doc.Name = scalar(fields.Name)
	doc.Description = scalar(fields.Description)
	return doc, nil
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func scanKeys(meta []byte) (name, desc string, found bool) {
	sc := bufio.NewScanner(bytes.NewReader(meta))
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch strings.TrimSpace(key) {
		case "name":
			name, found = value, true
		case "description":
			desc, found = value, true
		}
	}
	return name, desc, found
}
