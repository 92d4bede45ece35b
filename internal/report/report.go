// Package report assembles simulation study reports as pandoc-flavoured
// markdown: a percent-prefixed metadata block followed by wrapped prose,
// headings, pipe tables, and image references.
package report

import (
	"fmt"
	"strings"
	"time"
)

type part interface {
	lines(width int) []string
}

// Content is an ordered sequence of report body parts.
type Content struct {
	parts []part
}

// AddText appends a paragraph, wrapped to the report width on output.
func (c *Content) AddText(text string) {
	c.parts = append(c.parts, textPart(text))
}

// AddHeading appends a heading at the given level, starting at 1.
func (c *Content) AddHeading(title string, level int) {
	if level < 1 {
		level = 1
	}
	c.parts = append(c.parts, headingPart{title: title, level: level})
}

// AddTable appends a pipe table with an optional caption.
func (c *Content) AddTable(headers []string, rows [][]string, caption string) {
	c.parts = append(c.parts, tablePart{headers: headers, rows: rows, caption: caption})
}

// AddImage appends an image reference with an optional caption.
func (c *Content) AddImage(path, caption string) {
	c.parts = append(c.parts, imagePart{path: path, caption: caption})
}

// AddVerbatim appends a fenced code block, not wrapped.
func (c *Content) AddVerbatim(text string) {
	c.parts = append(c.parts, verbatimPart(text))
}

// Undo removes the most recently added part.
func (c *Content) Undo() {
	if n := len(c.parts); n > 0 {
		c.parts = c.parts[:n-1]
	}
}

// Clear removes every part.
func (c *Content) Clear() {
	c.parts = nil
}

// Len returns the number of parts.
func (c *Content) Len() int { return len(c.parts) }

// Report is a document with optional title metadata and a body.
type Report struct {
	Title   string
	Authors []string
	// Width is the wrap column for paragraphs; non-positive means 79.
	Width int

	date    string
	Content Content
}

// SetDate sets the metadata date line.
func (r *Report) SetDate(t time.Time) {
	r.date = t.Format("2006-01-02")
}

// SetDateString sets the metadata date line verbatim, for values such as
// "today" that pandoc templates resolve themselves.
func (r *Report) SetDateString(s string) {
	r.date = s
}

// Lines renders the document. The metadata block appears only when a
// title, author, or date is set; pandoc requires earlier metadata lines to
// be present, so authors without a title get an empty title line.
func (r *Report) Lines() []string {
	width := r.Width
	if width <= 0 {
		width = 79
	}

	var out []string
	hasMeta := r.Title != "" || len(r.Authors) > 0 || r.date != ""
	if hasMeta {
		out = append(out, "% "+r.Title)
		if len(r.Authors) > 0 || r.date != "" {
			out = append(out, "% "+strings.Join(r.Authors, "; "))
		}
		if r.date != "" {
			out = append(out, "% "+r.date)
		}
		out = append(out, "")
	}

	for _, p := range r.Content.parts {
		out = append(out, p.lines(width)...)
	}
	return out
}

func (r *Report) String() string {
	lines := r.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// ── Parts ──

type textPart string

func (p textPart) lines(width int) []string {
	return append(wrap(string(p), width), "")
}

type headingPart struct {
	title string
	level int
}

func (p headingPart) lines(int) []string {
	return []string{strings.Repeat("#", p.level) + " " + p.title, ""}
}

type verbatimPart string

func (p verbatimPart) lines(int) []string {
	out := []string{"```"}
	out = append(out, strings.Split(strings.TrimRight(string(p), "\n"), "\n")...)
	return append(out, "```", "")
}

type imagePart struct {
	path    string
	caption string
}

func (p imagePart) lines(int) []string {
	return []string{fmt.Sprintf("![%s](%s)", p.caption, p.path), ""}
}

type tablePart struct {
	headers []string
	rows    [][]string
	caption string
}

func (p tablePart) lines(int) []string {
	widths := make([]int, len(p.headers))
	for i, h := range p.headers {
		widths[i] = len(h)
	}
	for _, row := range p.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	formatRow := func(cells []string) string {
		padded := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		return "| " + strings.Join(padded, " | ") + " |"
	}

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w+2)
	}

	out := []string{formatRow(p.headers), "|" + strings.Join(rules, "|") + "|"}
	for _, row := range p.rows {
		out = append(out, formatRow(row))
	}
	if p.caption != "" {
		out = append(out, "", ": "+p.caption)
	}
	return append(out, "")
}

// wrap greedily breaks text into lines no longer than width, never
// splitting a word.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var out []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			out = append(out, line)
			line = w
		}
	}
	return append(out, line)
}
