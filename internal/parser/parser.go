// Package parser extracts notes from markdown files written as
// "Q:" / "A:" / "C:" blocks separated by "---" or by the next "Q:".
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Entry is one note found in a source, before it is stored.
type Entry struct {
	Content       string
	HiddenContent string
	// Collection optionally names a collection the note is added to.
	Collection string
}

const (
	contentPrefix    = "Q:"
	hiddenPrefix     = "A:"
	collectionPrefix = "C:"
	separator        = "---"
)

type field int

const (
	none field = iota
	content
	hidden
	collection
)

// ParseFile reads a file from the given path and extracts all entries.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all entries. Lines following a
// prefixed line continue the same field. Entries without content are dropped.
func Parse(r io.Reader) ([]Entry, error) {
	p := &entryParser{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		p.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.finishEntry()

	return p.entries, nil
}

type entryParser struct {
	entries []Entry
	current Entry
	field   field
	block   []string
}

func (p *entryParser) line(line string) {
	if strings.TrimRight(line, " \t\r") == separator {
		p.finishEntry()
		return
	}

	f, rest := classify(line)
	if f == none {
		if p.field != none {
			p.block = append(p.block, line)
		}
		return
	}

	// A new content line always starts a new entry.
	if f == content && p.field != none {
		p.finishEntry()
	} else {
		p.flushBlock()
	}
	p.field = f
	p.block = append(p.block, rest)
}

func classify(line string) (field, string) {
	for _, c := range []struct {
		prefix string
		field  field
	}{
		{contentPrefix, content},
		{hiddenPrefix, hidden},
		{collectionPrefix, collection},
	} {
		if rest, ok := strings.CutPrefix(line, c.prefix); ok {
			return c.field, strings.TrimPrefix(rest, " ")
		}
	}
	return none, ""
}

func (p *entryParser) flushBlock() {
	if len(p.block) == 0 {
		return
	}
	text := strings.TrimRight(strings.Join(p.block, "\n"), "\n")
	switch p.field {
	case content:
		p.current.Content = text
	case hidden:
		p.current.HiddenContent = text
	case collection:
		p.current.Collection = strings.TrimSpace(text)
	}
	p.block = nil
}

func (p *entryParser) finishEntry() {
	p.flushBlock()
	if p.current.Content != "" {
		p.entries = append(p.entries, p.current)
	}
	p.current = Entry{}
	p.field = none
}
