// Package graph exports concept references of the corpus to Neo4j:
//
//	(:Entry {key, file})-[:REFERENCES {text}]->(:Concept {key})
//
// Keys repeat across files, so an Entry node is identified by key and file
// path together. Translators use it to find every line that mentions a game concept and to
// keep the concept's display text consistent.
package graph

import (
	"context"
	"fmt"

	"locindex/internal/index"
	"locindex/internal/tags"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// batchSize bounds the rows sent in one UNWIND.
const batchSize = 500

// Reference is one concept mention inside an entry.
type Reference struct {
	EntryKey string
	// File is the absolute path of the owning file.
	File       string
	Category   string
	ConceptKey string
	// Text is the display text the entry uses for the concept.
	Text string
}

// CollectReferences extracts the concept references of entries in scan
// order. A concept mentioned twice in one entry is reported once.
func CollectReferences(entries []*index.Entry) []Reference {
	var out []Reference
	for _, e := range entries {
		seen := make(map[string]struct{})
		for _, c := range tags.Concepts(e.Value) {
			if _, dup := seen[c.Key]; dup {
				continue
			}
			seen[c.Key] = struct{}{}
			out = append(out, Reference{
				EntryKey:   e.Key,
				File:       e.FilePath,
				Category:   e.Category,
				ConceptKey: c.Key,
				Text:       c.Text,
			})
		}
	}
	return out
}

// Connect opens and verifies a driver.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect neo4j %s: %w", uri, err)
	}
	return driver, nil
}

// Builder writes references into the graph.
type Builder struct {
	driver neo4j.DriverWithContext
}

// NewBuilder creates a new graph builder.
func NewBuilder(driver neo4j.DriverWithContext) *Builder {
	return &Builder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (b *Builder) EnsureSchema(ctx context.Context) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (e:Entry) REQUIRE (e.key, e.file) IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Concept) REQUIRE c.key IS UNIQUE",
	}
	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// UpsertReferences merges refs into the graph in batches.
func (b *Builder) UpsertReferences(ctx context.Context, refs []Reference) error {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	for start := 0; start < len(refs); start += batchSize {
		chunk := refs[start:min(start+batchSize, len(refs))]
		rows := referenceRows(chunk)

		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
				UNWIND $rows AS row
				MERGE (e:Entry {key: row.entry, file: row.file})
				SET e.category = row.category
				MERGE (c:Concept {key: row.concept})
				MERGE (e)-[r:REFERENCES]->(c)
				SET r.text = row.text
			`, map[string]any{"rows": rows})
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		if err != nil {
			return fmt.Errorf("upsert references %d-%d: %w", start, start+len(chunk), err)
		}
		log.Debug().Int("from", start).Int("count", len(chunk)).Msg("Reference batch written")
	}

	log.Info().Int("references", len(refs)).Msg("Concept graph updated")
	return nil
}

// referenceRows converts refs into UNWIND parameters.
func referenceRows(refs []Reference) []any {
	rows := make([]any, len(refs))
	for i, r := range refs {
		rows[i] = map[string]any{
			"entry":    r.EntryKey,
			"file":     r.File,
			"category": r.Category,
			"concept":  r.ConceptKey,
			"text":     r.Text,
		}
	}
	return rows
}
