// Package mcp provides the MCP (Model Context Protocol) server for the
// recuerdo system.
//
// Each memory and biography operation is exposed as one tool. Every tool
// returns a structured object carrying a success flag and either payload
// fields or an error string, mirrored as JSON text content; request faults
// become IsError results, never protocol errors, so no single request can
// take the process down.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/recuerdo-dev/recuerdo/pkg/bio"
	"github.com/recuerdo-dev/recuerdo/pkg/memory"
	"github.com/recuerdo-dev/recuerdo/pkg/utils"
)

type Config struct {
	// MemoryStore backs the five memory tools
	MemoryStore memory.Store

	// BioStore backs the three biography tools
	BioStore bio.Store

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory and biography tools.
func NewServer(c Config) (*Server, error) {
	if c.MemoryStore == nil {
		return nil, errors.New("memory store is required")
	}
	if c.BioStore == nil {
		return nil, errors.New("biography store is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "recuerdo",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        saveMemoryToolName,
		Description: saveMemoryDescription,
	}, s.handleSaveMemory)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchMemoryToolName,
		Description: searchMemoryDescription,
	}, s.handleSearchMemory)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getMemoryToolName,
		Description: getMemoryDescription,
	}, s.handleGetMemory)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        deleteMemoryToolName,
		Description: deleteMemoryDescription,
	}, s.handleDeleteMemory)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listMemoriesToolName,
		Description: listMemoriesDescription,
	}, s.handleListMemories)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getBioToolName,
		Description: getBioDescription,
	}, s.handleGetBio)

	// set_user_bio carries a hand-built schema: its tri-state nullable
	// fields cannot be inferred from the Go input type.
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        setBioToolName,
		Description: setBioDescription,
		InputSchema: setBioInputSchema(),
	}, s.handleSetBio)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        updateBioToolName,
		Description: updateBioDescription,
	}, s.handleUpdateBio)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves MCP over the stdio transport until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// result marshals output as the JSON text mirror of the structured content.
// Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility.
func result(output any, isError bool) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}
	}

	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
