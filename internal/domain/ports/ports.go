// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
)

// EmbeddingService converts text into a vector embedding.
type EmbeddingService interface {
	// Embed returns a unit-L2-normalized vector for the given text.
	// No retries; the caller decides what a failure means.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionService generates text from a language model.
type CompletionService interface {
	// Complete produces a near-deterministic completion for the prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndex is the pre-built nearest-neighbor search structure.
// Read-only after load; rebuilding requires an offline ingestion run and
// a process restart.
type VectorIndex interface {
	// Search returns the k most similar chunks, scores non-increasing,
	// padded with sentinel hits when fewer than k vectors exist.
	Search(query []float32, k int) ([]entities.SearchHit, error)

	// Len reports the number of stored vectors.
	Len() int

	// Dim reports the embedding dimension.
	Dim() int
}

// MetadataStore maps a chunk ordinal to its source text and url.
// Must hold exactly one record per index vector.
type MetadataStore interface {
	Get(id int64) (entities.ChunkMeta, error)
	Len() int
}

// SessionStore resolves browser session keys to durable conversation rows.
type SessionStore interface {
	// GetOrCreate returns the session id for sessionKey, creating the row
	// on first sight. Idempotent under concurrent first-time calls. A
	// non-nil userID attaches the user to a session that has none; an
	// already-set user id is never cleared or replaced.
	GetOrCreate(ctx context.Context, sessionKey string, userID *int64) (int64, error)
}

// MessageStore is the append-only conversation log.
type MessageStore interface {
	// Append inserts one turn. Per-session order follows call order.
	Append(ctx context.Context, msg entities.Message) error
}

// DialogueEngine is the external intent-classification system, consumed
// only through its webhook contract.
type DialogueEngine interface {
	// Send forwards one user message and returns the engine's reply.
	Send(ctx context.Context, senderKey, message string) (*entities.EngineReply, error)
}
