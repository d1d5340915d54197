package retrieval

import (
	"context"
	"log"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
)

// DefaultTopK is the number of documents retrieved for context.
const DefaultTopK = 3

// KeywordStore is the containment-search surface of the document store.
type KeywordStore interface {
	SearchDocumentsByKeyword(queryText string, limit int) ([]database.Document, error)
}

// Result is the outcome of a document fetch. When semantic search fails or
// comes back empty, FellBack is true and SemanticErr records the swallowed
// error (nil when semantic search simply returned nothing). The caller
// decides whether to mention the fallback; it is never an error here.
type Result struct {
	Documents   []database.Document
	FellBack    bool
	SemanticErr error
}

// Fetcher retrieves documents for a query: semantic search first, keyword
// containment search as a silent fallback.
type Fetcher struct {
	searcher SemanticSearcher
	store    KeywordStore
	topK     int
}

// NewFetcher creates a Fetcher. searcher may be nil when no embedding
// endpoint is configured; every fetch then takes the keyword path.
func NewFetcher(searcher SemanticSearcher, store KeywordStore, topK int) *Fetcher {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Fetcher{searcher: searcher, store: store, topK: topK}
}

// FetchDocuments returns up to topK documents matching queryText.
// Semantic-search failures and empty results fall back to keyword search
// without surfacing an error; a keyword-search failure is returned.
func (f *Fetcher) FetchDocuments(ctx context.Context, queryText string) (*Result, error) {
	r := &Result{}

	if f.searcher != nil {
		docs, err := f.searcher.Search(ctx, queryText, f.topK)
		if err == nil && len(docs) > 0 {
			r.Documents = docs
			return r, nil
		}
		if err != nil {
			log.Printf("Semantic search failed, falling back to keyword search: %v", err)
			r.SemanticErr = err
		}
	}
	r.FellBack = true

	docs, err := f.store.SearchDocumentsByKeyword(queryText, f.topK)
	if err != nil {
		return nil, err
	}
	r.Documents = docs
	return r, nil
}
