package filewalker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"locindex/internal/locfile"
	"locindex/internal/worker"

	"github.com/rs/zerolog/log"
)

// DefaultLanguage is the language segment used when none is given.
const DefaultLanguage = "english"

// Suffix returns the file name suffix for a corpus language,
// e.g. "_l_english.yml".
func Suffix(language string) string {
	if language == "" {
		language = DefaultLanguage
	}
	return "_l_" + strings.ToLower(language) + ".yml"
}

// ProgressFunc receives the number of processed files, the total and the
// base name of the file just processed.
type ProgressFunc func(current, total int, name string)

// Walker discovers and loads localization files of one language.
type Walker struct {
	suffix  string
	workers int
}

// NewWalker creates a Walker for files ending in Suffix(language).
func NewWalker(language string, workers int) *Walker {
	return &Walker{suffix: Suffix(language), workers: workers}
}

// Walk returns the absolute form of root and all matching files under it in
// lexical order.
func (w *Walker) Walk(root string) (string, []string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return "", nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), w.suffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Debug().Int("count", len(paths)).Str("root", root).Str("suffix", w.suffix).Msg("Discovered files")
	return root, paths, nil
}

// Loaded is the outcome of parsing one discovered file.
type Loaded struct {
	Path string
	File *locfile.File
	Data []byte
	Err  error
}

// Load parses paths in parallel. The result keeps the order of paths; an
// entry whose Err and File are both nil was skipped because ctx ended.
func (w *Walker) Load(ctx context.Context, paths []string, progress ProgressFunc) []Loaded {
	pool := worker.NewPool[string, Loaded](w.workers, func(ctx context.Context, path string) (Loaded, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, fmt.Errorf("read %s: %w", path, err)
		}
		f, err := locfile.Parse(data)
		if err != nil {
			if de, ok := err.(*locfile.DecodeError); ok {
				de.Path = path
			}
			return Loaded{}, err
		}
		return Loaded{Path: path, File: f, Data: data}, nil
	})
	if progress != nil {
		pool.OnProgress(func(done, total int, path string) {
			progress(done, total, filepath.Base(path))
		})
	}

	tasks := pool.Execute(ctx, paths)
	out := make([]Loaded, len(tasks))
	for i, t := range tasks {
		out[i] = t.Result
		out[i].Path = t.Input
		out[i].Err = t.Err
		if t.Err != nil {
			log.Warn().Err(t.Err).Str("file", t.Input).Msg("Parse failed")
		}
	}
	return out
}
