// Package locfile reads and writes the single-level key/value localization
// files of the corpus:
//
//	l_english:
//	 # comment
//	 KEY:0 "Text with $VAR$ and [Concept('a','b')|e]"
//	 OTHER_KEY: "No version"
//
// Every line is kept with its original terminator so that files round-trip
// byte-for-byte. Only entry lines are interpreted; headers, comments, blank
// lines and anything the grammar does not recognise pass through untouched.
package locfile

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// BOM is the UTF-8 byte-order mark that many corpus files start with.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// entryPattern matches `<indent><key>:<version><gap>"<value>"<trail>` on a
// line body with its terminator removed. The value runs to the last quote.
var entryPattern = regexp.MustCompile(`^(\s*)([A-Za-z0-9_]+):(\d*)(\s*)"(.*)"(\s*)$`)

// LineKind classifies a line.
type LineKind int

const (
	LineOpaque LineKind = iota // header, comment, blank or unrecognised text
	LineEntry                  // key:version "value"
)

// Line is one physical line of a file.
type Line struct {
	Kind LineKind
	// Raw is the exact original text, terminator included.
	Raw string

	Indent  string
	Key     string
	Version string
	Value   string

	gap        string
	trail      string
	terminator string
}

// File is a parsed localization file.
type File struct {
	Lines []Line
	// BOM records whether the source started with a byte-order mark.
	BOM bool
}

// DecodeError reports a file whose content is not valid UTF-8.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode: %v", e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrInvalidUTF8 is wrapped by DecodeError for undecodable content.
var ErrInvalidUTF8 = fmt.Errorf("content is not valid UTF-8")

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Parse splits data into typed lines. A leading BOM is stripped and recorded.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if bytes.HasPrefix(data, BOM) {
		f.BOM = true
		data = data[len(BOM):]
	}
	if !utf8.Valid(data) {
		return nil, &DecodeError{Err: ErrInvalidUTF8}
	}

	text := string(data)
	for len(text) > 0 {
		n := strings.IndexByte(text, '\n')
		var raw string
		if n < 0 {
			raw, text = text, ""
		} else {
			raw, text = text[:n+1], text[n+1:]
		}
		f.Lines = append(f.Lines, ParseLine(raw))
	}
	return f, nil
}

// ParseLine classifies a single raw line (terminator included, if any).
func ParseLine(raw string) Line {
	body, term := splitTerminator(raw)
	m := entryPattern.FindStringSubmatch(body)
	if m == nil {
		return Line{Kind: LineOpaque, Raw: raw, terminator: term}
	}
	return Line{
		Kind:       LineEntry,
		Raw:        raw,
		Indent:     m[1],
		Key:        m[2],
		Version:    m[3],
		gap:        m[4],
		Value:      m[5],
		trail:      m[6],
		terminator: term,
	}
}

func splitTerminator(raw string) (body, term string) {
	switch {
	case strings.HasSuffix(raw, "\r\n"):
		return raw[:len(raw)-2], "\r\n"
	case strings.HasSuffix(raw, "\n"):
		return raw[:len(raw)-1], "\n"
	}
	return raw, ""
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// Text returns the line without its terminator.
func (l Line) Text() string {
	body, _ := splitTerminator(l.Raw)
	return body
}

// WithValue returns a copy of an entry line carrying value. Indentation, key,
// version, spacing and terminator are kept from the original line.
func (l Line) WithValue(value string) Line {
	if l.Kind != LineEntry {
		return l
	}
	out := l
	out.Value = value
	out.Raw = l.Indent + l.Key + ":" + l.Version + l.gap + `"` + value + `"` + l.trail + l.terminator
	return out
}

// Entries returns the indexes of all entry lines in document order.
func (f *File) Entries() []int {
	var idx []int
	for i, ln := range f.Lines {
		if ln.Kind == LineEntry {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns a copy whose line slice can be modified independently.
func (f *File) Clone() *File {
	lines := make([]Line, len(f.Lines))
	copy(lines, f.Lines)
	return &File{Lines: lines, BOM: f.BOM}
}

// Bytes serialises the file, restoring the BOM if the source had one.
func (f *File) Bytes() []byte {
	var buf bytes.Buffer
	if f.BOM {
		buf.Write(BOM)
	}
	for _, ln := range f.Lines {
		buf.WriteString(ln.Raw)
	}
	return buf.Bytes()
}
