// Package engine is the driving interface used by editors and the CLI: scan,
// search, context, tag extraction, edit validation and write-back over one
// mod tree and its reference tree.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"locindex/internal/classify"
	"locindex/internal/filewalker"
	"locindex/internal/index"
	"locindex/internal/journal"
	"locindex/internal/query"
	"locindex/internal/reference"
	"locindex/internal/tags"
	"locindex/internal/validate"

	"github.com/rs/zerolog/log"
)

// ErrEmptyValue is returned for blank candidate values.
var ErrEmptyValue = errors.New("value must not be empty")

// Options configures a Workspace.
type Options struct {
	// Language is the file-name language segment of the edited tree.
	Language string
	// ReferenceLanguage is the segment of the reference tree.
	ReferenceLanguage string
	Workers           int
	Classifier        *classify.Classifier
	// Journal, when set, receives every successful update.
	Journal *journal.Journal
}

// Workspace ties an Entry Index to its Reference Index.
type Workspace struct {
	Index      *index.Index
	References *reference.Index

	language   string
	classifier *classify.Classifier
	journal    *journal.Journal
}

// New creates an empty workspace.
func New(opts Options) *Workspace {
	c := opts.Classifier
	if c == nil {
		c = classify.MustNew(classify.DefaultTargetLang)
	}
	return &Workspace{
		Index: index.New(index.Options{
			Language:   opts.Language,
			Workers:    opts.Workers,
			Classifier: c,
		}),
		References: reference.New(opts.ReferenceLanguage, opts.Workers),
		language:   opts.Language,
		classifier: c,
		journal:    opts.Journal,
	}
}

// Classifier returns the classifier shared by the index and lint.
func (w *Workspace) Classifier() *classify.Classifier { return w.classifier }

// ScanReport combines the reports of both trees. Reference is nil when no
// reference tree was scanned.
type ScanReport struct {
	Entries   *index.Report
	Reference *reference.Report
}

// Scan rebuilds the reference index from refRoot (skipped when empty) and
// then the entry index from root.
func (w *Workspace) Scan(ctx context.Context, root, refRoot string, progress filewalker.ProgressFunc) (*ScanReport, error) {
	report := &ScanReport{}
	if refRoot != "" {
		ref, err := w.References.Scan(ctx, refRoot, progress)
		if err != nil {
			return nil, err
		}
		report.Reference = ref
	}
	entries, err := w.Index.Scan(ctx, root, progress)
	if err != nil {
		return nil, err
	}
	report.Entries = entries
	return report, nil
}

// Search runs q over a snapshot of the current entries.
func (w *Workspace) Search(q query.Query) []*index.Entry {
	return query.Run(w.Index.Entries(), q)
}

// Context returns the raw lines around e.
func (w *Workspace) Context(e *index.Entry, radius int) ([]index.ContextLine, error) {
	return w.Index.Context(e, radius)
}

// ExtractTags returns the tags of text in order of appearance.
func ExtractTags(text string) []string { return tags.Extract(text) }

// Reference returns the reference text of e's key.
func (w *Workspace) Reference(e *index.Entry) (string, bool) {
	return w.References.Get(e.Key)
}

// ReferenceTags returns the tags of e's reference text, falling back to its
// current value when no reference exists. Used to copy tags into a draft.
func (w *Workspace) ReferenceTags(e *index.Entry) []string {
	if ref, ok := w.References.Get(e.Key); ok && ref != "" {
		return tags.Extract(ref)
	}
	cur, err := w.Index.Current(e)
	if err != nil {
		return []string{}
	}
	return tags.Extract(cur.Value)
}

// ValidateEdit reports the tags value would drop.
func (w *Workspace) ValidateEdit(e *index.Entry, value string) (validate.Result, error) {
	if strings.TrimSpace(value) == "" {
		return validate.Result{}, ErrEmptyValue
	}
	cur, err := w.Index.Current(e)
	if err != nil {
		return validate.Result{}, err
	}
	return validate.Check(&cur, value, w.References.Get), nil
}

// Update writes value to e. Missing tags are not checked here; callers run
// ValidateEdit first and confirm. The accepted losses are journaled.
func (w *Workspace) Update(ctx context.Context, e *index.Entry, value string) error {
	res, err := w.ValidateEdit(e, value)
	if err != nil {
		return err
	}
	old, err := w.Index.Update(e, value)
	if err != nil {
		return err
	}
	if w.journal == nil {
		return nil
	}

	_, err = w.journal.Record(ctx, journal.Edit{
		FilePath: e.FilePath,
		Line:     e.LineNumber,
		Key:      e.Key,
		OldValue: old,
		NewValue: value,
		Missing:  res.Missing,
	})
	if err != nil {
		return fmt.Errorf("file written, journal not updated: %w", err)
	}
	return nil
}

// FileIssues are the lint findings of one file.
type FileIssues struct {
	Path   string
	Issues []validate.Issue
}

// Lint checks every indexed file and returns those with findings.
func (w *Workspace) Lint() ([]FileIssues, error) {
	opts := validate.Options{Language: w.language, Classifier: w.classifier}
	var out []FileIssues
	for _, path := range w.Index.Files() {
		issues, err := validate.LintFile(path, opts)
		if err != nil {
			return out, err
		}
		if len(issues) > 0 {
			out = append(out, FileIssues{Path: path, Issues: issues})
		}
	}
	log.Debug().Int("files", len(w.Index.Files())).Int("with_issues", len(out)).Msg("Lint complete")
	return out, nil
}
