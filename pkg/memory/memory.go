// Package memory defines the persistent, semantically-searchable memory
// store.
//
// A memory is a caller-keyed free-text fact. Saving derives an embedding for
// the text via the configured embedding provider and persists text, embedding
// and metadata as one row; re-saving an id overwrites that row. Search embeds
// the query and ranks every stored row under cosine similarity with a
// minimum-score threshold and a result cap — a deliberate full scan, sized
// for thousands of memories, not millions.
//
// Raw vectors never leave the store. Callers see similarity scores only.
package memory

import "context"

// Memory is a stored fact as returned by point lookups.
type Memory struct {
	// ID is the caller-supplied key. Immutable once chosen.
	ID string `json:"id"`

	// Text is the original natural-language content.
	Text string `json:"text"`

	// Metadata is an opaque JSON-compatible mapping, round-tripped verbatim.
	Metadata map[string]any `json:"metadata"`

	// CreatedAt is set once at first insert, RFC 3339 UTC.
	CreatedAt string `json:"created_at"`

	// UpdatedAt is refreshed on every insert or update, RFC 3339 UTC.
	UpdatedAt string `json:"updated_at"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata"`
	Score     float64        `json:"score"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// ListItem is one entry in a full listing. Text is abbreviated to a preview.
type ListItem struct {
	ID        string         `json:"id"`
	Metadata  map[string]any `json:"metadata"`
	Preview   string         `json:"preview"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// Store handles persistence and similarity search of memories.
type Store interface {
	// Save embeds text and persists it under id. Returns true if an
	// existing row was overwritten (created_at preserved), false on first
	// insert. A nil metadata persists as an empty object.
	Save(ctx context.Context, id, text string, metadata map[string]any) (bool, error)

	// Get retrieves a memory by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Memory, error)

	// Delete removes a memory by id. Returns true iff a row existed and
	// was removed; false is a normal outcome, not an error.
	Delete(ctx context.Context, id string) (bool, error)

	// List returns every memory as a ListItem, ordered by updated_at
	// descending.
	List(ctx context.Context) ([]ListItem, error)

	// Search embeds query and ranks all stored memories by cosine
	// similarity. Results score at least minScore and number at most
	// limit; out-of-range parameters are clamped.
	Search(ctx context.Context, query string, limit int, minScore float64) ([]SearchHit, error)

	// Count reports how many memories are stored. Lets callers tell an
	// empty store apart from a search with no matches.
	Count(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}
