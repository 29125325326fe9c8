package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Usage is an entry that references a concept.
type Usage struct {
	EntryKey string
	File     string
	Text     string
}

// Querier reads the concept graph.
type Querier struct {
	driver neo4j.DriverWithContext
}

// NewQuerier creates a new graph querier.
func NewQuerier(driver neo4j.DriverWithContext) *Querier {
	return &Querier{driver: driver}
}

// Usages returns the entries referencing conceptKey, ordered by entry key.
func (q *Querier) Usages(ctx context.Context, conceptKey string) ([]Usage, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (e:Entry)-[r:REFERENCES]->(:Concept {key: $concept})
		RETURN e.key AS entry, e.file AS file, r.text AS text
		ORDER BY e.key, e.file
	`, map[string]any{"concept": conceptKey})
	if err != nil {
		return nil, fmt.Errorf("query concept %s: %w", conceptKey, err)
	}

	var out []Usage
	for result.Next(ctx) {
		record := result.Record()
		entry, _ := record.Get("entry")
		file, _ := record.Get("file")
		text, _ := record.Get("text")
		out = append(out, Usage{
			EntryKey: fmt.Sprintf("%v", entry),
			File:     fmt.Sprintf("%v", file),
			Text:     fmt.Sprintf("%v", text),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("query concept %s: %w", conceptKey, err)
	}

	log.Debug().Str("concept", conceptKey).Int("usages", len(out)).Msg("Graph query complete")
	return out, nil
}

// TextVariants returns, per concept, the distinct display texts in use.
// Concepts with more than one variant are translated inconsistently.
func (q *Querier) TextVariants(ctx context.Context) (map[string][]string, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:Entry)-[r:REFERENCES]->(c:Concept)
		WITH c.key AS concept, collect(DISTINCT r.text) AS texts
		WHERE size(texts) > 1
		RETURN concept, texts
		ORDER BY concept
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("query text variants: %w", err)
	}

	out := make(map[string][]string)
	for result.Next(ctx) {
		record := result.Record()
		concept, _ := record.Get("concept")
		texts, _ := record.Get("texts")
		list, _ := texts.([]any)
		for _, t := range list {
			out[fmt.Sprintf("%v", concept)] = append(out[fmt.Sprintf("%v", concept)], fmt.Sprintf("%v", t))
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("query text variants: %w", err)
	}

	log.Info().Int("concepts", len(out)).Msg("Loaded inconsistent concepts from graph")
	return out, nil
}
