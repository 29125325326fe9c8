// Package index holds the in-memory, file-backed collection of localization
// entries that the editor searches and writes back to.
//
// An Index is rebuilt as a whole by Scan: readers see either the previous
// or the new contents, never a partial scan. Entries are mutated in place by
// Update, which rewrites the owning file atomically before touching memory.
package index

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"locindex/internal/classify"
	"locindex/internal/filewalker"
	"locindex/internal/locfile"
	"locindex/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Entry is one translatable line.
//
// Entries returned by ByKey and Lookup are handles: Index.Update changes
// their Value and State in place under the index lock, and identity is stable
// until the next Scan replaces every Entry. Readers that may run alongside
// updates take copies through Entries, Search or Current.
type Entry struct {
	FilePath string
	// LineNumber is the zero-based line in the owning file.
	LineNumber int
	Key        string
	Version    string
	Value      string
	Category   string
	State      classify.State
}

// IsTranslated reports whether the entry needs no translation work.
func (e *Entry) IsTranslated() bool { return e.State.Done() }

// FileName returns the base name of the owning file.
func (e *Entry) FileName() string { return filepath.Base(e.FilePath) }

// Filter selects entries by text, category and state.
type Filter struct {
	// Query is matched case-insensitively against key and value.
	Query string
	// Category must match exactly unless empty or AllCategories.
	Category string
	// UntranslatedOnly drops entries whose state is done.
	UntranslatedOnly bool
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *Entry) bool {
	if f.Category != "" && f.Category != AllCategories && e.Category != f.Category {
		return false
	}
	if f.UntranslatedOnly && e.IsTranslated() {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(e.Key), q) && !strings.Contains(strings.ToLower(e.Value), q) {
			return false
		}
	}
	return true
}

// FileRecord is the cached content of one scanned file.
type FileRecord struct {
	Path string

	mu          sync.Mutex
	file        *locfile.File
	fingerprint uint64
	entries     map[int]*Entry
}

type snapshot struct {
	entries []*Entry
	files   map[string]*FileRecord
	order   []string
}

// Report summarises a scan.
type Report struct {
	Root    string
	Files   int
	Entries int
	// Errors holds one error per file that could not be read or decoded.
	Errors []error
}

// Options configures an Index.
type Options struct {
	// Language is the corpus language segment of file names (default english).
	Language string
	Workers  int
	// Classifier decides translation state; defaults to the uk target.
	Classifier *classify.Classifier
}

// Index is the Entry Index.
type Index struct {
	mu   sync.RWMutex
	snap *snapshot

	walker     *filewalker.Walker
	classifier *classify.Classifier

	readFile  func(path string) ([]byte, error)
	writeFile func(path string, data []byte) error
}

// New creates an empty index.
func New(opts Options) *Index {
	c := opts.Classifier
	if c == nil {
		c = classify.MustNew(classify.DefaultTargetLang)
	}
	return &Index{
		snap:       &snapshot{files: make(map[string]*FileRecord)},
		walker:     filewalker.NewWalker(opts.Language, opts.Workers),
		classifier: c,
		readFile:   readFile,
		writeFile:  locfile.WriteAtomic,
	}
}

// Classifier returns the classifier used for entry states.
func (ix *Index) Classifier() *classify.Classifier { return ix.classifier }

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

// Scan rebuilds the index from every matching file under root. Files that
// cannot be read or decoded are reported and skipped. If ctx ends before the
// scan completes, the previous contents are kept and ctx.Err() is returned.
func (ix *Index) Scan(ctx context.Context, root string, progress filewalker.ProgressFunc) (*Report, error) {
	absRoot, paths, err := ix.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	loaded := ix.walker.Load(ctx, paths, progress)
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Str("root", root).Msg("Scan abandoned, keeping previous index")
		return nil, err
	}

	snap := &snapshot{files: make(map[string]*FileRecord, len(loaded))}
	report := &Report{Root: absRoot}

	for _, l := range loaded {
		if l.Err != nil {
			report.Errors = append(report.Errors, l.Err)
			continue
		}
		rec := &FileRecord{
			Path:        l.Path,
			file:        l.File,
			fingerprint: textutil.Fingerprint(l.Data),
			entries:     make(map[int]*Entry),
		}
		category := Category(l.Path)
		for _, n := range l.File.Entries() {
			ln := l.File.Lines[n]
			e := &Entry{
				FilePath:   l.Path,
				LineNumber: n,
				Key:        ln.Key,
				Version:    ln.Version,
				Value:      ln.Value,
				Category:   category,
				State:      ix.classifier.Classify(ln.Value),
			}
			rec.entries[n] = e
			snap.entries = append(snap.entries, e)
		}
		snap.files[l.Path] = rec
		snap.order = append(snap.order, l.Path)
	}

	report.Files = len(snap.order)
	report.Entries = len(snap.entries)

	ix.mu.Lock()
	ix.snap = snap
	ix.mu.Unlock()

	log.Info().
		Str("root", absRoot).
		Int("files", report.Files).
		Int("entries", report.Entries).
		Int("errors", len(report.Errors)).
		Msg("Index scan complete")
	return report, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.snap.entries)
}

// Entries returns copies of all entries in scan order. The copies are not
// accepted by Update; resolve them with Lookup first.
func (ix *Index) Entries() []*Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]*Entry, len(ix.snap.entries))
	for i, e := range ix.snap.entries {
		c := *e
		out[i] = &c
	}
	return out
}

// Current returns a copy of the handle e as it is now.
func (ix *Index) Current(e *Entry) (Entry, error) {
	if _, err := ix.record(e); err != nil {
		return Entry{}, err
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return *e, nil
}

// Files returns the indexed file paths in scan order.
func (ix *Index) Files() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, len(ix.snap.order))
	copy(out, ix.snap.order)
	return out
}

// Search returns entries matching query (key or value substring, case
// insensitive), category (exact, or AllCategories) and, optionally, only
// untranslated ones. Results are copies in scan order.
func (ix *Index) Search(query, category string, untranslatedOnly bool) []*Entry {
	f := Filter{Query: query, Category: category, UntranslatedOnly: untranslatedOnly}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []*Entry
	for _, e := range ix.snap.entries {
		if f.Match(e) {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}

// Lookup returns the entry handle at a zero-based line of a file.
func (ix *Index) Lookup(path string, line int) (*Entry, bool) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.snap.files[path]
	if !ok {
		return nil, false
	}
	e, ok := rec.entries[line]
	return e, ok
}

// ByKey returns the handles of all entries with key in scan order.
func (ix *Index) ByKey(key string) []*Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []*Entry
	for _, e := range ix.snap.entries {
		if e.Key == key {
			out = append(out, e)
		}
	}
	return out
}

// Counts is a total/translated pair.
type Counts struct {
	Total      int
	Translated int
}

// Percent returns the translated share in percent.
func (c Counts) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Translated) / float64(c.Total) * 100
}

// Stats returns (total, translated) over the whole index.
func (ix *Index) Stats() (int, int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	translated := 0
	for _, e := range ix.snap.entries {
		if e.IsTranslated() {
			translated++
		}
	}
	return len(ix.snap.entries), translated
}

// CategoryStats returns per-category counts.
func (ix *Index) CategoryStats() map[string]Counts {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string]Counts)
	for _, e := range ix.snap.entries {
		c := out[e.Category]
		c.Total++
		if e.IsTranslated() {
			c.Translated++
		}
		out[e.Category] = c
	}
	return out
}

// ContextLine is one raw line around an entry.
type ContextLine struct {
	// Number is the one-based line number for display.
	Number int
	Text   string
	Target bool
}

// Context returns up to 2*radius+1 raw lines around e, clipped at the file
// boundaries.
func (ix *Index) Context(e *Entry, radius int) ([]ContextLine, error) {
	rec, err := ix.record(e)
	if err != nil {
		return nil, err
	}
	if radius < 0 {
		radius = 0
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	lines := rec.file.Lines
	start := max(0, e.LineNumber-radius)
	end := min(len(lines), e.LineNumber+radius+1)

	out := make([]ContextLine, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, ContextLine{
			Number: i + 1,
			Text:   lines[i].Text(),
			Target: i == e.LineNumber,
		})
	}
	return out, nil
}

// record returns the FileRecord owning e in the current snapshot.
func (ix *Index) record(e *Entry) (*FileRecord, error) {
	if e == nil {
		return nil, ErrNotIndexed
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.snap.files[e.FilePath]
	if !ok || rec.entries[e.LineNumber] != e {
		return nil, ErrNotIndexed
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrNotIndexed is returned for entries that do not belong to the
	// current scan (nil, or left over from a previous scan).
	ErrNotIndexed = errors.New("entry is not part of the current index")
	// ErrLineMismatch is returned when the cached line no longer holds the
	// entry's key.
	ErrLineMismatch = errors.New("cached line no longer holds the entry")
	// ErrStale is returned when the file changed on disk after the scan.
	ErrStale = errors.New("file changed on disk since it was scanned")
	// ErrInvalidValue is returned for values that would break the line grammar.
	ErrInvalidValue = errors.New("value must not contain line breaks")
)

// WriteError reports an I/O failure while rewriting a file. Neither the file
// nor the entry were changed.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }
