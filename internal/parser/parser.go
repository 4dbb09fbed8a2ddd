// Package parser reads and writes the YAML frontmatter of imported markdown documents.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the document metadata recognised at the top of a file.
type Frontmatter struct {
	Title    string  `yaml:"title,omitempty"`
	Slug     string  `yaml:"slug,omitempty"`
	Category string  `yaml:"category,omitempty"`
	Tags     TagList `yaml:"tags,omitempty,flow"`
	Summary  string  `yaml:"summary,omitempty"`
	Source   string  `yaml:"source,omitempty"`
}

// TagList accepts either a YAML sequence or a comma separated string.
type TagList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TagList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, s := range strings.Split(n.Value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*t = out
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := n.Decode(&raw); err != nil {
			return err
		}
		out := raw[:0]
		for _, s := range raw {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*t = out
		return nil
	}
	return fmt.Errorf("parser: tags: unsupported yaml kind %d", n.Kind)
}

// Result holds the output of parsing a markdown file.
type Result struct {
	Meta *Frontmatter // nil when the file has no valid frontmatter
	Body string
	// Title is the frontmatter title, else the first H1, else empty.
	Title string
}

// Parse splits frontmatter from body. Invalid YAML is not an error: the whole
// input is returned as body.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{Meta: fm, Body: body, Title: deriveTitle(fm, body)}
}

// Format renders meta as a frontmatter block followed by body.
func Format(meta Frontmatter, body string) ([]byte, error) {
	head, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (*Frontmatter, string) {
	const delim = "---"
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(data, "\n")

	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n")

	var fm Frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, string(data)
	}
	return &fm, body
}

func deriveTitle(fm *Frontmatter, body string) string {
	if fm != nil {
		if t := strings.TrimSpace(fm.Title); t != "" {
			return t
		}
	}
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
