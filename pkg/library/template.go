package library

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimestampLayout formats template modification times.
const TimestampLayout = "2006-01-02 15:04:05"

// Template is a reusable message body stored as Templates/<name>.txt.
type Template struct {
	LastModified time.Time
	Name         string
	Subject      string
	Content      string
}

type templateJSON struct {
	Name         string `json:"name"`
	Content      string `json:"content"`
	Subject      string `json:"subject,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

func (t Template) MarshalJSON() ([]byte, error) {
	out := templateJSON{Name: t.Name, Content: t.Content, Subject: t.Subject}
	if !t.LastModified.IsZero() {
		out.LastModified = t.LastModified.Local().Format(TimestampLayout)
	}
	return json.Marshal(out)
}

func (t *Template) UnmarshalJSON(data []byte) error {
	var in templateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Template{Name: in.Name, Content: in.Content, Subject: in.Subject}
	if in.LastModified != "" {
		ts, err := time.ParseInLocation(TimestampLayout, in.LastModified, time.Local)
		if err != nil {
			return err
		}
		t.LastModified = ts
	}
	return nil
}

// Frontmatter is the optional YAML header of a template file.
type Frontmatter struct {
	Subject string `yaml:"subject,omitempty"`
}

var delimiter = []byte("---")

// ParseTemplate splits template file content into its frontmatter and body.
// Content without a leading "---" line is all body.
func ParseTemplate(content []byte) (Frontmatter, string, error) {
	var fm Frontmatter

	if !bytes.HasPrefix(content, delimiter) {
		return fm, string(content), nil
	}

	rest := bytes.TrimPrefix(content, delimiter)
	rest = bytes.TrimLeft(rest, "\r\n")
	if len(rest) == 0 {
		return fm, "", fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	end := bytes.Index(rest, delimiter)
	if end == -1 {
		return fm, "", fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	header := rest[:end]
	bodyStart := end + len(delimiter)
	switch {
	case bytes.HasPrefix(rest[bodyStart:], []byte("\r\n")):
		bodyStart += 2
	case bytes.HasPrefix(rest[bodyStart:], []byte("\n")):
		bodyStart++
	}

	if len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &fm); err != nil {
			return Frontmatter{}, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return fm, string(rest[bodyStart:]), nil
}

// RenderTemplate is the inverse of ParseTemplate.
func RenderTemplate(fm Frontmatter, body string) ([]byte, error) {
	if strings.TrimSpace(fm.Subject) == "" {
		return []byte(body), nil
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}

	var buf bytes.Buffer
	buf.Write(delimiter)
	buf.WriteByte('\n')
	buf.Write(header)
	buf.Write(delimiter)
	buf.WriteByte('\n')
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// FilterTemplates returns the templates whose name or content contains
// query, ignoring case. A blank query matches everything.
func FilterTemplates(templates []Template, query string) []Template {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(templates)
	}
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Content), q) {
			out = append(out, t)
		}
	}
	return out
}

// SortTemplates orders templates with favourites first, then by name
// ignoring case.
func SortTemplates(templates []Template, isFavourite func(name string) bool) {
	rank := func(t Template) int {
		if isFavourite != nil && isFavourite(t.Name) {
			return 0
		}
		return 1
	}
	slices.SortStableFunc(templates, func(a, b Template) int {
		return cmp.Or(
			cmp.Compare(rank(a), rank(b)),
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.Name, b.Name),
		)
	})
}
