package index

import (
	"os"
	"strings"

	"locindex/internal/locfile"
	"locindex/internal/textutil"

	"github.com/rs/zerolog/log"
)

func readFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Update writes value into e's line, rewrites the owning file and returns the
// value it replaced.
//
// The line keeps its indentation, key, version and spacing. The whole file is
// replaced atomically with the BOM flag preserved. Only after the write
// succeeds are the cached line, e.Value and e.State updated; on any error the
// file on disk and the entry are left as they were. Updates to entries of the
// same file are serialised, each one building on the previous write.
func (ix *Index) Update(e *Entry, value string) (string, error) {
	if strings.ContainsAny(value, "\r\n") {
		return "", ErrInvalidValue
	}
	rec, err := ix.record(e)
	if err != nil {
		return "", err
	}

	// Values only change under rec.mu, so e.Value is stable while it is held.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	previous := e.Value

	line := rec.file.Lines[e.LineNumber]
	if line.Kind != locfile.LineEntry || line.Key != e.Key {
		return "", ErrLineMismatch
	}

	current, err := ix.readFile(rec.Path)
	if err != nil {
		return "", &WriteError{Path: rec.Path, Err: err}
	}
	if textutil.Fingerprint(current) != rec.fingerprint {
		return "", ErrStale
	}

	next := rec.file.Clone()
	next.Lines[e.LineNumber] = line.WithValue(value)
	data := next.Bytes()

	if err := ix.writeFile(rec.Path, data); err != nil {
		log.Error().Err(err).Str("file", rec.Path).Str("key", e.Key).Msg("Write failed")
		return "", &WriteError{Path: rec.Path, Err: err}
	}

	rec.file = next
	rec.fingerprint = textutil.Fingerprint(data)

	state := ix.classifier.Classify(value)
	ix.mu.Lock()
	e.Value = value
	e.State = state
	ix.mu.Unlock()

	log.Debug().
		Str("file", rec.Path).
		Int("line", e.LineNumber+1).
		Str("key", e.Key).
		Str("state", state.String()).
		Msg("Entry updated")
	return previous, nil
}
