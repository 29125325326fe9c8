// Package reference builds the read-only key -> text map of the
// source-language tree. The first occurrence of a key in traversal order
// wins; later duplicates are counted and discarded.
package reference

import (
	"context"
	"fmt"
	"sync"

	"locindex/internal/filewalker"

	"github.com/rs/zerolog/log"
)

// Report summarises a reference scan.
type Report struct {
	Root       string
	Files      int
	Keys       int
	Duplicates int
	Errors     []error
}

// Index is the Reference Index.
type Index struct {
	mu         sync.RWMutex
	texts      map[string]string
	duplicates int

	walker *filewalker.Walker
}

// New creates an empty reference index for files of the given language.
func New(language string, workers int) *Index {
	return &Index{
		texts:  make(map[string]string),
		walker: filewalker.NewWalker(language, workers),
	}
}

// Scan replaces the index with the contents of root. Files that fail to
// decode are reported and skipped. A cancelled scan keeps the old contents.
func (r *Index) Scan(ctx context.Context, root string, progress filewalker.ProgressFunc) (*Report, error) {
	absRoot, paths, err := r.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("scan reference %s: %w", root, err)
	}
	loaded := r.walker.Load(ctx, paths, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{Root: absRoot}
	texts := make(map[string]string)
	for _, l := range loaded {
		if l.Err != nil {
			report.Errors = append(report.Errors, l.Err)
			continue
		}
		report.Files++
		for _, n := range l.File.Entries() {
			ln := l.File.Lines[n]
			if _, seen := texts[ln.Key]; seen {
				report.Duplicates++
				log.Debug().Str("key", ln.Key).Str("file", l.Path).Msg("Duplicate reference key ignored")
				continue
			}
			texts[ln.Key] = ln.Value
		}
	}
	report.Keys = len(texts)

	r.mu.Lock()
	r.texts = texts
	r.duplicates = report.Duplicates
	r.mu.Unlock()

	log.Info().
		Str("root", absRoot).
		Int("files", report.Files).
		Int("keys", report.Keys).
		Int("duplicates", report.Duplicates).
		Msg("Reference scan complete")
	return report, nil
}

// Get returns the reference text for key.
func (r *Index) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.texts[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (r *Index) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.texts)
}

// Duplicates returns how many duplicate keys the last scan discarded.
func (r *Index) Duplicates() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.duplicates
}
