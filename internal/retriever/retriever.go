// Package retriever indexes the seller's knowledge base and answers similarity
// queries for the QA engine. Embeddings and the vector index are handled by
// chromem-go; production uses OpenAI embeddings, tests plug in a local
// embedding func.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "knowledge"

// Config holds retrieval configuration.
type Config struct {
	TopK          int     // number of results to return (default: 3)
	MinSimilarity float32 // minimum similarity threshold (default: 0)
	Chunker       ChunkerConfig
}

// Result is one retrieved knowledge chunk.
type Result struct {
	ID         string
	Content    string
	Similarity float32
}

// Retriever searches the indexed knowledge base.
type Retriever struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	embed      chromem.EmbeddingFunc
	config     Config
}

// New creates a Retriever with the given embedding function. Use
// chromem.NewEmbeddingFuncOpenAI for production.
func New(cfg Config, embed chromem.EmbeddingFunc) (*Retriever, error) {
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}

	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Retriever{
		db:         db,
		collection: collection,
		embed:      embed,
		config:     cfg,
	}, nil
}

// IndexFile reads the knowledge file, chunks it, and replaces the whole
// collection with the new chunks. Called at startup and on file change.
func (r *Retriever) IndexFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read knowledge file: %w", err)
	}
	return r.IndexText(ctx, string(data))
}

// IndexText rebuilds the collection from raw knowledge text.
func (r *Retriever) IndexText(ctx context.Context, text string) error {
	chunks := ChunkText(text, r.config.Chunker)

	r.mu.Lock()
	defer r.mu.Unlock()

	// Rebuild from scratch so removed knowledge disappears from the index.
	if err := r.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("reset collection: %w", err)
	}
	collection, err := r.db.GetOrCreateCollection(collectionName, nil, r.embed)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	r.collection = collection

	for i, chunk := range chunks {
		doc := chromem.Document{
			ID:      fmt.Sprintf("chunk-%d", i),
			Content: chunk,
		}
		if err := collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add chunk %d: %w", i, err)
		}
	}

	slog.Info("knowledge base indexed", "chunks", len(chunks))
	return nil
}

// Search returns the most similar knowledge chunks for a customer question.
func (r *Retriever) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	r.mu.RLock()
	collection := r.collection
	r.mu.RUnlock()

	topK := r.config.TopK
	if count := collection.Count(); count < topK {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	queryResults, err := collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	var results []Result
	for _, qr := range queryResults {
		if qr.Similarity < r.config.MinSimilarity {
			continue
		}
		results = append(results, Result{
			ID:         qr.ID,
			Content:    qr.Content,
			Similarity: qr.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of indexed chunks.
func (r *Retriever) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collection.Count()
}

// FormatContext renders retrieved chunks as a context block for the QA prompt.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, res := range results {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString(res.Content)
	}
	return sb.String()
}
