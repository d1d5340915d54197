package ingest

import (
	"context"
	"log"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/llm"
)

// EmbedResult holds the results of an embedding pass.
type EmbedResult struct {
	Embedded int
	Failed   int
}

// EmbedMissing computes and stores embeddings for documents that have
// content but no embedding yet. Failed documents are left for a later
// pass; semantic search simply ignores them until then.
func EmbedMissing(ctx context.Context, db *database.DB, embedder llm.Embedder) (*EmbedResult, error) {
	docs, err := db.GetDocumentsMissingEmbedding()
	if err != nil {
		return nil, err
	}

	r := &EmbedResult{}
	for _, d := range docs {
		text := d.Title
		if d.Content != nil {
			text = d.Title + "\n" + *d.Content
		}

		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			log.Printf("Embedding failed for document %d: %v", d.ID, err)
			r.Failed++
			continue
		}
		if err := db.UpdateDocumentEmbedding(d.ID, vec); err != nil {
			log.Printf("Storing embedding failed for document %d: %v", d.ID, err)
			r.Failed++
			continue
		}
		r.Embedded++
	}

	log.Printf("Embedding pass complete: %d embedded, %d failed", r.Embedded, r.Failed)
	return r, nil
}
