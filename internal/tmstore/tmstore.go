// Package tmstore exports finished translations as a translation memory in
// PostgreSQL, keyed by the hash of the source text.
package tmstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"locindex/internal/classify"
	"locindex/internal/index"
	"locindex/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Pair is one source/target segment of the memory.
type Pair struct {
	Hash   string
	Key    string
	Source string
	Target string
}

// BuildPairs collects (reference, value) pairs of translated entries. Technical
// and untranslated entries, entries without reference text and entries whose
// value equals the reference are skipped. Sources repeated under several keys
// keep their first pair.
func BuildPairs(entries []*index.Entry, lookup func(key string) (string, bool)) []Pair {
	seen := make(map[string]struct{})
	var out []Pair
	for _, e := range entries {
		if e.State != classify.Translated {
			continue
		}
		src, ok := lookup(e.Key)
		if !ok || src == "" || src == e.Value {
			continue
		}
		h := textutil.Hash(src)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, Pair{Hash: h, Key: e.Key, Source: src, Target: e.Value})
	}
	return out
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS translation_memory (
	hash        TEXT PRIMARY KEY,
	entry_key   TEXT NOT NULL,
	source      TEXT NOT NULL,
	translated  TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO translation_memory (hash, entry_key, source, translated)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash) DO UPDATE
SET entry_key = EXCLUDED.entry_key,
    translated = EXCLUDED.translated,
    updated_at = now()`

// Store is the PostgreSQL translation memory with an in-memory mirror.
type Store struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[string]string // hash → translated text
}

// New creates a store on an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, memory: make(map[string]string)}
}

// Connect opens a pool for databaseURL and checks it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the memory table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create translation_memory: %w", err)
	}
	return nil
}

// Upsert writes pairs in one batch and mirrors them in memory.
func (s *Store) Upsert(ctx context.Context, pairs []Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range pairs {
		batch.Queue(upsertSQL, p.Hash, p.Key, p.Source, p.Target)
	}
	br := s.pool.SendBatch(ctx, batch)
	for _, p := range pairs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert %s: %w", p.Key, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	s.mu.Lock()
	for _, p := range pairs {
		s.memory[p.Hash] = p.Target
	}
	s.mu.Unlock()

	log.Info().Int("count", len(pairs)).Msg("Translation memory updated")
	return nil
}

// Get returns the stored translation of source.
func (s *Store) Get(ctx context.Context, source string) (string, bool, error) {
	hash := textutil.Hash(source)

	s.mu.RLock()
	if v, ok := s.memory[hash]; ok {
		s.mu.RUnlock()
		return v, true, nil
	}
	s.mu.RUnlock()

	var translated string
	err := s.pool.QueryRow(ctx, `SELECT translated FROM translation_memory WHERE hash = $1`, hash).Scan(&translated)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", hash, err)
	}

	s.mu.Lock()
	s.memory[hash] = translated
	s.mu.Unlock()
	return translated, true, nil
}

// Preload mirrors the whole table in memory.
func (s *Store) Preload(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `SELECT hash, translated FROM translation_memory`)
	if err != nil {
		return fmt.Errorf("preload translation memory: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("preload translation memory: %w", err)
		}
		s.memory[hash] = translated
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload translation memory: %w", err)
	}

	log.Info().Int("count", n).Msg("Preloaded translation memory")
	return nil
}

// Changed returns the pairs whose target differs from the mirror, keeping
// their order. Call Preload first to compare against the stored memory.
func (s *Store) Changed(pairs []Pair) []Pair {
	var out []Pair
	for _, p := range pairs {
		if v, ok := s.Cached(p.Source); ok && v == p.Target {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Cached returns the in-memory translation of source without touching the
// database.
func (s *Store) Cached(source string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.memory[textutil.Hash(source)]
	return v, ok
}
