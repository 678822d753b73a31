package report

import (
	"fmt"
	"strings"
	"text/template"
)

// Source cites one document a section drew on.
type Source struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Section is one synthesized answer. Title carries the sub-question the
// section answers.
type Section struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Sources []Source `json:"sources"`
}

// Report is the assembled research document.
type Report struct {
	Topic    string    `json:"topic"`
	Sections []Section `json:"sections"`
}

// Assemble builds a report from synthesized sections. Section order is kept
// exactly as given; assembly never reorders, merges or drops anything.
func Assemble(topic string, sections []Section) Report {
	return Report{Topic: topic, Sections: sections}
}

const markdownTemplate = `# Research Report: {{ .Topic }}

## Overview
{{ range .Sections }}
### {{ .Title }}

{{ .Content }}

**Sources:**
{{- range .Sources }}
- [{{ .Title }}]({{ .Link }})
{{- end }}
{{ end }}`

var markdownTmpl = template.Must(template.New("report").Parse(markdownTemplate))

// Markdown renders the report. Rendering the same report always yields the
// same document.
func (r Report) Markdown() (string, error) {
	var b strings.Builder
	if err := markdownTmpl.Execute(&b, r); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return b.String(), nil
}
