package validate

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"locindex/internal/classify"
	"locindex/internal/filewalker"
	"locindex/internal/locfile"
	"locindex/internal/tags"
)

// Severity ranks lint findings.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one lint finding. Line is one-based; zero means the whole file.
type Issue struct {
	Line     int
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	if i.Line == 0 {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", i.Line, i.Severity, i.Message)
}

// Options configures LintFile.
type Options struct {
	// Language is the header language segment (default english).
	Language string
	// Classifier enables the concept-text target-script check and picks the
	// default forbidden letters.
	Classifier *classify.Classifier
	// Forbidden overrides the letters that must not appear in the file.
	Forbidden []rune
}

// forbiddenLetters lists letters of neighbouring alphabets that a target
// language never uses.
var forbiddenLetters = map[string][]rune{
	"uk": {'ё', 'ъ', 'ы', 'э'},
	"be": {'и', 'щ', 'ъ'},
}

// DefaultForbidden returns the forbidden letters for a target language tag.
func DefaultForbidden(lang string) []rune {
	base, _, _ := strings.Cut(strings.ToLower(lang), "-")
	return forbiddenLetters[base]
}

var (
	looksLikeEntry = regexp.MustCompile(`^\s*[A-Za-z0-9_]+:\d*\s*"`)
	wellFormedVar  = regexp.MustCompile(`\$[^$\s]+\$|\$\$`)
	bareConcept    = regexp.MustCompile(`\[([a-z_]+)\|e\]`)
)

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// LintFile reads path and lints it. Undecodable files return a
// *locfile.DecodeError.
func LintFile(path string, opts Options) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	issues, err := Lint(data, opts)
	if err != nil {
		if de, ok := err.(*locfile.DecodeError); ok {
			de.Path = path
		}
		return nil, err
	}
	return issues, nil
}

// Lint checks the raw content of one localization file.
func Lint(data []byte, opts Options) ([]Issue, error) {
	f, err := locfile.Parse(data)
	if err != nil {
		return nil, err
	}

	forbidden := opts.Forbidden
	if forbidden == nil && opts.Classifier != nil {
		forbidden = DefaultForbidden(opts.Classifier.Lang())
	}
	header := "l_" + strings.ToLower(languageOrDefault(opts.Language)) + ":"

	var issues []Issue
	add := func(line int, sev Severity, format string, args ...any) {
		issues = append(issues, Issue{Line: line, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if !bytes.HasPrefix(data, locfile.BOM) {
		add(0, SeverityWarning, "missing UTF-8 byte-order mark")
	}
	if len(f.Lines) == 0 || !strings.HasPrefix(strings.TrimSpace(f.Lines[0].Text()), header) {
		add(1, SeverityError, "missing or wrong header, want %q", header)
	}

	for i, ln := range f.Lines {
		n := i + 1
		text := ln.Text()
		trimmed := strings.TrimSpace(text)
		if i == 0 || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if ln.Kind != locfile.LineEntry {
			if looksLikeEntry.MatchString(text) {
				add(n, SeverityError, `malformed entry, want key:version "value"`)
			}
			continue
		}

		found := tags.Find(ln.Value)
		open, closed := 0, 0
		for _, t := range found {
			switch t.Kind {
			case tags.Style:
				open++
			case tags.StyleEnd:
				closed++
			}
		}
		if open != closed {
			add(n, SeverityError, "unbalanced style tags: %d opened, %d closed with #!", open, closed)
		}

		if strings.Contains(wellFormedVar.ReplaceAllString(ln.Value, ""), "$") {
			add(n, SeverityError, "stray $ outside a $VARIABLE$")
		}

		lower := strings.ToLower(ln.Value)
		for _, r := range forbidden {
			if strings.ContainsRune(lower, r) {
				add(n, SeverityError, "forbidden letter %q", string(r))
			}
		}

		if opts.Classifier != nil {
			for _, c := range tags.Concepts(ln.Value) {
				if !opts.Classifier.HasTargetScript(c.Text) {
					add(n, SeverityWarning, "concept %s text %q has no %s letters", c.Key, c.Text, opts.Classifier.Lang())
				}
			}
		}
		for _, m := range bareConcept.FindAllStringSubmatch(ln.Value, -1) {
			add(n, SeverityWarning, "%s without Concept(), display text stays untranslated", m[0])
		}
	}
	return issues, nil
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return filewalker.DefaultLanguage
	}
	return lang
}
