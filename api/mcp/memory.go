package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/recuerdo-dev/recuerdo/pkg/memory"
	"github.com/recuerdo-dev/recuerdo/pkg/similarity"
)

var (
	saveMemoryToolName    = "save_memory"
	saveMemoryDescription = "Save a free-text memory under a caller-chosen id. The text is embedded for later semantic search; saving an existing id overwrites it. Optional metadata is stored verbatim and returned with search results."

	searchMemoryToolName    = "search_memory"
	searchMemoryDescription = "Search stored memories semantically. Returns the memories most similar to the query text, ranked by cosine similarity, filtered by a minimum score threshold and capped at n_results."

	getMemoryToolName    = "get_memory"
	getMemoryDescription = "Retrieve a single memory by its id, including its full text and metadata."

	deleteMemoryToolName    = "delete_memory"
	deleteMemoryDescription = "Delete a memory by its id. Deleting an id that does not exist is reported, not an error."

	listMemoriesToolName    = "list_all_memories"
	listMemoriesDescription = "List every stored memory with a text preview, ordered by most recently updated first."
)

// SaveMemoryInput represents the input arguments for the save_memory tool.
type SaveMemoryInput struct {
	ID       string         `json:"id" jsonschema:"unique identifier for the memory, chosen by the caller"`
	Text     string         `json:"text" jsonschema:"the natural-language content to remember"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"optional key-value metadata stored with the memory"`
}

// SaveMemoryOutput represents the structured output of save_memory.
type SaveMemoryOutput struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ID        string `json:"id,omitempty"`
	WasUpdate bool   `json:"was_update,omitempty"`
}

// SearchMemoryInput represents the input arguments for the search_memory tool.
type SearchMemoryInput struct {
	Query     string   `json:"query" jsonschema:"the search query text"`
	NResults  int      `json:"n_results,omitempty" jsonschema:"maximum number of results (default: 5)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity score between 0 and 1 (default: 0.3)"`
}

// SearchMemoryOutput represents the structured output of search_memory.
type SearchMemoryOutput struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Query   string             `json:"query,omitempty"`
	Results []memory.SearchHit `json:"results"`
	Count   int                `json:"count"`
	Message string             `json:"message,omitempty"`
}

// GetMemoryInput represents the input arguments for the get_memory tool.
type GetMemoryInput struct {
	ID string `json:"id" jsonschema:"the id of the memory to retrieve"`
}

// GetMemoryOutput represents the structured output of get_memory.
type GetMemoryOutput struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Memory  *memory.Memory `json:"memory,omitempty"`
}

// DeleteMemoryInput represents the input arguments for the delete_memory tool.
type DeleteMemoryInput struct {
	ID string `json:"id" jsonschema:"the id of the memory to delete"`
}

// DeleteMemoryOutput represents the structured output of delete_memory.
type DeleteMemoryOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	ID      string `json:"id,omitempty"`
	Deleted bool   `json:"deleted"`
}

// ListMemoriesInput represents the (empty) input of list_all_memories.
type ListMemoriesInput struct{}

// ListMemoriesOutput represents the structured output of list_all_memories.
type ListMemoriesOutput struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Memories []memory.ListItem `json:"memories"`
	Count    int               `json:"count"`
}

// handleSaveMemory processes a save_memory request.
func (s *Server) handleSaveMemory(ctx context.Context, _ *mcp.CallToolRequest, input SaveMemoryInput) (*mcp.CallToolResult, SaveMemoryOutput, error) {
	if input.ID == "" {
		output := SaveMemoryOutput{Success: false, Error: "id is required"}
		return result(output, true), output, nil
	}
	if input.Text == "" {
		output := SaveMemoryOutput{Success: false, Error: "text is required"}
		return result(output, true), output, nil
	}

	wasUpdate, err := s.config.MemoryStore.Save(ctx, input.ID, input.Text, input.Metadata)
	if err != nil {
		s.config.Logger.Error("failed to save memory",
			zap.String("id", input.ID),
			zap.Error(err),
		)
		output := SaveMemoryOutput{Success: false, Error: fmt.Sprintf("saving memory: %v", err)}
		return result(output, true), output, nil
	}

	output := SaveMemoryOutput{
		Success:   true,
		ID:        input.ID,
		WasUpdate: wasUpdate,
	}
	return result(output, false), output, nil
}

// handleSearchMemory processes a search_memory request.
func (s *Server) handleSearchMemory(ctx context.Context, _ *mcp.CallToolRequest, input SearchMemoryInput) (*mcp.CallToolResult, SearchMemoryOutput, error) {
	if input.Query == "" {
		output := SearchMemoryOutput{Success: false, Error: "query is required", Results: []memory.SearchHit{}}
		return result(output, true), output, nil
	}

	limit := input.NResults
	if limit <= 0 {
		limit = similarity.DefaultLimit
	}
	minScore := similarity.DefaultMinScore
	if input.Threshold != nil {
		minScore = *input.Threshold
	}

	s.config.Logger.Debug("MCP search request",
		zap.String("query", input.Query),
		zap.Int("limit", limit),
		zap.Float64("min_score", minScore),
	)

	stored, err := s.config.MemoryStore.Count(ctx)
	if err != nil {
		output := SearchMemoryOutput{Success: false, Error: fmt.Sprintf("searching memories: %v", err), Results: []memory.SearchHit{}}
		return result(output, true), output, nil
	}
	if stored == 0 {
		// An empty store is a normal state, flagged so the caller can tell
		// it apart from a query with no matches.
		output := SearchMemoryOutput{
			Success: true,
			Query:   input.Query,
			Results: []memory.SearchHit{},
			Count:   0,
			Message: "no memories stored yet",
		}
		return result(output, false), output, nil
	}

	hits, err := s.config.MemoryStore.Search(ctx, input.Query, limit, minScore)
	if err != nil {
		s.config.Logger.Error("failed to search memories", zap.Error(err))
		output := SearchMemoryOutput{Success: false, Error: fmt.Sprintf("searching memories: %v", err), Results: []memory.SearchHit{}}
		return result(output, true), output, nil
	}

	output := SearchMemoryOutput{
		Success: true,
		Query:   input.Query,
		Results: hits,
		Count:   len(hits),
	}
	return result(output, false), output, nil
}

// handleGetMemory processes a get_memory request.
func (s *Server) handleGetMemory(ctx context.Context, _ *mcp.CallToolRequest, input GetMemoryInput) (*mcp.CallToolResult, GetMemoryOutput, error) {
	if input.ID == "" {
		output := GetMemoryOutput{Success: false, Error: "id is required"}
		return result(output, true), output, nil
	}

	m, err := s.config.MemoryStore.Get(ctx, input.ID)
	switch {
	case errors.Is(err, memory.ErrNotFound):
		// Absence is a normal outcome, not a request fault.
		output := GetMemoryOutput{Success: false, Error: fmt.Sprintf("memory not found: %s", input.ID)}
		return result(output, false), output, nil
	case err != nil:
		s.config.Logger.Error("failed to get memory",
			zap.String("id", input.ID),
			zap.Error(err),
		)
		output := GetMemoryOutput{Success: false, Error: fmt.Sprintf("getting memory: %v", err)}
		return result(output, true), output, nil
	}

	output := GetMemoryOutput{Success: true, Memory: m}
	return result(output, false), output, nil
}

// handleDeleteMemory processes a delete_memory request.
func (s *Server) handleDeleteMemory(ctx context.Context, _ *mcp.CallToolRequest, input DeleteMemoryInput) (*mcp.CallToolResult, DeleteMemoryOutput, error) {
	if input.ID == "" {
		output := DeleteMemoryOutput{Success: false, Error: "id is required"}
		return result(output, true), output, nil
	}

	deleted, err := s.config.MemoryStore.Delete(ctx, input.ID)
	if err != nil {
		s.config.Logger.Error("failed to delete memory",
			zap.String("id", input.ID),
			zap.Error(err),
		)
		output := DeleteMemoryOutput{Success: false, Error: fmt.Sprintf("deleting memory: %v", err)}
		return result(output, true), output, nil
	}

	output := DeleteMemoryOutput{
		Success: deleted,
		ID:      input.ID,
		Deleted: deleted,
	}
	if !deleted {
		output.Error = fmt.Sprintf("memory not found: %s", input.ID)
	}
	return result(output, false), output, nil
}

// handleListMemories processes a list_all_memories request.
func (s *Server) handleListMemories(ctx context.Context, _ *mcp.CallToolRequest, _ ListMemoriesInput) (*mcp.CallToolResult, ListMemoriesOutput, error) {
	items, err := s.config.MemoryStore.List(ctx)
	if err != nil {
		s.config.Logger.Error("failed to list memories", zap.Error(err))
		output := ListMemoriesOutput{Success: false, Error: fmt.Sprintf("listing memories: %v", err), Memories: []memory.ListItem{}}
		return result(output, true), output, nil
	}

	output := ListMemoriesOutput{
		Success:  true,
		Memories: items,
		Count:    len(items),
	}
	return result(output, false), output, nil
}
