package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/database"
	"github.com/petitmj/ProstateCancerExplorationAssistant/internal/llm"
)

// SemanticSearcher ranks stored documents by relevance to a query.
type SemanticSearcher interface {
	Search(ctx context.Context, queryText string, topK int) ([]database.Document, error)
}

// EmbeddingSearcher implements semantic search by embedding the query and
// ranking stored document embeddings by cosine similarity.
type EmbeddingSearcher struct {
	embedder llm.Embedder
	db       *database.DB
}

// NewEmbeddingSearcher creates a searcher over the given store and embedder.
func NewEmbeddingSearcher(db *database.DB, embedder llm.Embedder) *EmbeddingSearcher {
	return &EmbeddingSearcher{embedder: embedder, db: db}
}

type scoredDocument struct {
	doc   database.Document
	score float32
}

// Search embeds the query and returns the topK most similar documents.
// Documents without a stored embedding are not considered.
func (s *EmbeddingSearcher) Search(ctx context.Context, queryText string, topK int) ([]database.Document, error) {
	vec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	queryNorm := norm(vec)
	if queryNorm == 0 {
		return nil, nil
	}

	docs, err := s.db.GetEmbeddedDocuments()
	if err != nil {
		return nil, fmt.Errorf("loading embedded documents: %w", err)
	}

	var scored []scoredDocument
	for _, d := range docs {
		scored = append(scored, scoredDocument{
			doc:   d.Document,
			score: cosine(vec, d.Embedding, queryNorm),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]database.Document, len(scored))
	for i, sd := range scored {
		results[i] = sd.doc
	}
	return results, nil
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes cosine similarity as dot(a,b) / (aNorm * bNorm).
// aNorm is the precomputed L2 norm of vector a.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}
