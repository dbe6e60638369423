// Package related keeps a vector index of ticket context summaries so agents
// can find earlier tickets that looked like the one in front of them.
package related

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
)

const collectionName = "ticket-summaries"

// Match is one related ticket.
type Match struct {
	TicketID   string  `json:"ticket_id"`
	Title      string  `json:"title"`
	Version    int     `json:"version"`
	Sentiment  string  `json:"sentiment,omitempty"`
	Similarity float32 `json:"similarity"`
}

// Index is a chromem-go collection holding one document per ticket.
type Index struct {
	collection *chromem.Collection
}

// NewIndex creates an in-memory index.
func NewIndex(embedder Embedder) (*Index, error) {
	return newIndex(chromem.NewDB(), embedder)
}

// NewPersistentIndex creates an index that persists to dir.
func NewPersistentIndex(dir string, embedder Embedder) (*Index, error) {
	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	return newIndex(db, embedder)
}

func newIndex(db *chromem.DB, embedder Embedder) (*Index, error) {
	col, err := db.GetOrCreateCollection(collectionName, nil, chromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{collection: col}, nil
}

// Add indexes (or re-indexes) the ticket's summary. The document ID is the
// ticket ID, so the latest version replaces earlier ones.
func (ix *Index) Add(ctx context.Context, s *contextmerge.Summary) error {
	md := map[string]string{
		"title":   s.Title,
		"version": strconv.Itoa(s.Version),
	}
	if s.Sentiment != nil {
		md["sentiment"] = string(*s.Sentiment)
	}
	return ix.collection.AddDocument(ctx, chromem.Document{
		ID:       s.TicketID,
		Content:  contextmerge.Markdown(s),
		Metadata: md,
	})
}

// Remove drops a ticket from the index.
func (ix *Index) Remove(ctx context.Context, ticketID string) error {
	return ix.collection.Delete(ctx, nil, nil, ticketID)
}

// Count returns the number of indexed tickets.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Search returns up to limit tickets most similar to query, skipping
// exclude (usually the ticket being viewed).
func (ix *Index) Search(ctx context.Context, query string, limit int, exclude string) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}

	// chromem-go requires nResults <= collection size.
	n := limit
	if exclude != "" {
		n++
	}
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if n > count {
		n = count
	}

	results, err := ix.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		if r.ID == exclude {
			continue
		}
		version, _ := strconv.Atoi(r.Metadata["version"])
		matches = append(matches, Match{
			TicketID:   r.ID,
			Title:      r.Metadata["title"],
			Version:    version,
			Sentiment:  r.Metadata["sentiment"],
			Similarity: r.Similarity,
		})
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}
