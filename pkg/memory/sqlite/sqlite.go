// Package sqlite provides the SQLite-backed memory store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/recuerdo-dev/recuerdo/pkg/embeddings"
	"github.com/recuerdo-dev/recuerdo/pkg/memory"
	"github.com/recuerdo-dev/recuerdo/pkg/similarity"
	"github.com/recuerdo-dev/recuerdo/pkg/utils"
)

// SQLiteStore implements memory.Store on SQLite. Embeddings are stored as
// little-endian float32 blobs and decoded only for ranking; metadata is
// stored as JSON text and round-tripped without interpretation.
type SQLiteStore struct {
	db       *sql.DB
	embedder embeddings.Embedder
	dims     uint
	logger   *zap.Logger
}

// timeLayout is RFC 3339 with fixed-width nanoseconds. Full precision keeps
// updated_at advancing on immediate re-save; the fixed width keeps stored
// timestamps lexically sortable, which RFC3339Nano's trimmed zeros would not.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Config holds configuration for the SQLite memory store.
type Config struct {
	// Dimensions is the embedding dimensionality the store enforces.
	// Every saved row must carry a vector of exactly this length; the
	// ranking math is corrupted otherwise.
	Dimensions uint
}

// NewSQLiteStore creates (if needed) the memories table on the shared engine
// handle and returns a store bound to the given embedder. The handle's
// lifecycle belongs to the caller; Close does not release it.
func NewSQLiteStore(db *sql.DB, c Config, embedder embeddings.Embedder, logger *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("embedding dimensions cannot be 0, must be configured")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("creating memories table: %w", err)
	}

	// Index accelerates listing only; search is a deliberate full scan.
	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_memories_updated_at ON memories(updated_at)
	`); err != nil {
		return nil, fmt.Errorf("creating updated_at index: %w", err)
	}

	logger.Info("sqlite memory store initialized",
		zap.Uint("dimensions", c.Dimensions),
	)

	return &SQLiteStore{
		db:       db,
		embedder: embedder,
		dims:     c.Dimensions,
		logger:   logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Save embeds text and writes it under id, overwriting an existing row.
// The embedding is fully computed before any row is touched, so the row
// mutation itself is a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, id, text string, metadata map[string]any) (bool, error) {
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return false, err
	}
	if uint(len(embedding)) != s.dims {
		return false, fmt.Errorf("%w: provider returned %d dimensions, store configured for %d",
			embeddings.ErrEmbedding, len(embedding), s.dims)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("%w: marshaling metadata: %v", memory.ErrStorage, err)
	}

	now := time.Now().UTC().Format(timeLayout)
	embBlob := serializeFloat32(embedding)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: beginning transaction: %v", memory.ErrStorage, err)
	}
	defer tx.Rollback()

	var createdAt string
	err = tx.QueryRowContext(ctx,
		`SELECT created_at FROM memories WHERE id = ?`, id,
	).Scan(&createdAt)

	wasUpdate := false
	switch {
	case err == nil:
		// Row exists: overwrite everything but created_at.
		if _, err := tx.ExecContext(ctx,
			`UPDATE memories SET text = ?, embedding = ?, metadata = ?, updated_at = ? WHERE id = ?`,
			text, embBlob, string(metaJSON), now, id,
		); err != nil {
			return false, fmt.Errorf("%w: updating memory %s: %v", memory.ErrStorage, id, err)
		}
		wasUpdate = true
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memories(id, text, embedding, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, text, embBlob, string(metaJSON), now, now,
		); err != nil {
			return false, fmt.Errorf("%w: inserting memory %s: %v", memory.ErrStorage, id, err)
		}
	default:
		return false, fmt.Errorf("%w: checking for existing memory %s: %v", memory.ErrStorage, id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: committing transaction: %v", memory.ErrStorage, err)
	}

	s.logger.Debug("saved memory",
		zap.String("id", id),
		zap.Bool("was_update", wasUpdate),
	)

	return wasUpdate, nil
}

// Get retrieves a memory by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*memory.Memory, error) {
	var (
		m        memory.Memory
		metaJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, metadata, created_at, updated_at FROM memories WHERE id = ?`, id,
	).Scan(&m.ID, &m.Text, &metaJSON, &m.CreatedAt, &m.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, memory.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: reading memory %s: %v", memory.ErrStorage, id, err)
	}

	if err := json.Unmarshal([]byte(metaJSON), &m.Metadata); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata for %s: %v", memory.ErrStorage, id, err)
	}

	return &m, nil
}

// Delete removes a memory by id. A missing id is a normal outcome.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("%w: deleting memory %s: %v", memory.ErrStorage, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: reading rows affected: %v", memory.ErrStorage, err)
	}

	deleted := affected > 0
	s.logger.Debug("deleted memory",
		zap.String("id", id),
		zap.Bool("deleted", deleted),
	)

	return deleted, nil
}

// List returns every memory ordered by updated_at descending, abbreviating
// each text to a preview.
func (s *SQLiteStore) List(ctx context.Context) ([]memory.ListItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, metadata, created_at, updated_at
		FROM memories
		ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing memories: %v", memory.ErrStorage, err)
	}
	defer rows.Close()

	items := []memory.ListItem{}
	for rows.Next() {
		var (
			item     memory.ListItem
			text     string
			metaJSON string
		)
		if err := rows.Scan(&item.ID, &text, &metaJSON, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning memory: %v", memory.ErrStorage, err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &item.Metadata); err != nil {
			return nil, fmt.Errorf("%w: decoding metadata for %s: %v", memory.ErrStorage, item.ID, err)
		}
		item.Preview = utils.Truncate(text, utils.PreviewLen)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating memories: %v", memory.ErrStorage, err)
	}

	return items, nil
}

// candidateRow pairs a ranking candidate with the row fields a hit carries.
type candidateRow struct {
	text      string
	metadata  map[string]any
	createdAt string
	updatedAt string
}

// Search embeds query and ranks every stored memory under cosine similarity.
// The embedding provider is not consulted when the store is empty.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int, minScore float64) ([]memory.SearchHit, error) {
	candidates, byID, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []memory.SearchHit{}, nil
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if uint(len(queryEmbedding)) != s.dims {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, store configured for %d",
			embeddings.ErrEmbedding, len(queryEmbedding), s.dims)
	}

	matches := similarity.Rank(queryEmbedding, candidates, limit, minScore)

	hits := make([]memory.SearchHit, len(matches))
	for i, match := range matches {
		row := byID[match.ID]
		hits[i] = memory.SearchHit{
			ID:        match.ID,
			Text:      row.text,
			Metadata:  row.metadata,
			Score:     match.Score,
			CreatedAt: row.createdAt,
			UpdatedAt: row.updatedAt,
		}
	}

	s.logger.Debug("searched memories",
		zap.Int("candidates", len(candidates)),
		zap.Int("hits", len(hits)),
	)

	return hits, nil
}

// Count reports how many memories are stored. The tool layer uses it to
// distinguish an empty store from a search with no matches.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting memories: %v", memory.ErrStorage, err)
	}
	return n, nil
}

// loadCandidates reads every row, decoding embeddings for ranking. A row
// whose stored vector does not match the configured dimensionality is a
// corruption, surfaced as a storage error rather than skewing the ranking.
func (s *SQLiteStore) loadCandidates(ctx context.Context) ([]similarity.Candidate, map[string]candidateRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, embedding, metadata, created_at, updated_at FROM memories`,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: loading memories: %v", memory.ErrStorage, err)
	}
	defer rows.Close()

	var candidates []similarity.Candidate
	byID := make(map[string]candidateRow)

	for rows.Next() {
		var (
			id, text, metaJSON   string
			createdAt, updatedAt string
			embBlob              []byte
		)
		if err := rows.Scan(&id, &text, &embBlob, &metaJSON, &createdAt, &updatedAt); err != nil {
			return nil, nil, fmt.Errorf("%w: scanning memory: %v", memory.ErrStorage, err)
		}

		embedding, err := deserializeFloat32(embBlob)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: decoding embedding for %s: %v", memory.ErrStorage, id, err)
		}
		if uint(len(embedding)) != s.dims {
			return nil, nil, fmt.Errorf("%w: row %s has %d dimensions, store configured for %d",
				memory.ErrStorage, id, len(embedding), s.dims)
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
			return nil, nil, fmt.Errorf("%w: decoding metadata for %s: %v", memory.ErrStorage, id, err)
		}

		candidates = append(candidates, similarity.Candidate{
			ID:        id,
			Embedding: embedding,
			UpdatedAt: updatedAt,
		})
		byID[id] = candidateRow{
			text:      text,
			metadata:  metadata,
			createdAt: createdAt,
			updatedAt: updatedAt,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: iterating memories: %v", memory.ErrStorage, err)
	}

	return candidates, byID, nil
}

// Close releases store resources. The shared engine handle is owned by the
// caller and stays open.
func (s *SQLiteStore) Close() error {
	return nil
}

// Ensure SQLiteStore implements memory.Store
var _ memory.Store = (*SQLiteStore)(nil)
