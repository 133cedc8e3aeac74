// Package servecmder provides the serve command for running the recuerdo MCP server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recuerdo-dev/recuerdo/api/mcp"
	biosqlite "github.com/recuerdo-dev/recuerdo/pkg/bio/sqlite"
	"github.com/recuerdo-dev/recuerdo/pkg/config"
	embeddingutils "github.com/recuerdo-dev/recuerdo/pkg/embeddings/utils"
	"github.com/recuerdo-dev/recuerdo/pkg/logger"
	memorysqlite "github.com/recuerdo-dev/recuerdo/pkg/memory/sqlite"
	"github.com/recuerdo-dev/recuerdo/pkg/storage"
)

type ServeCommander struct {
	listen              string
	sqlitePath          string
	embeddingProvider   string
	embeddingTarget     string
	embeddingModel      string
	embeddingDimensions uint
	debug               bool
	configDir           string
	logger              *zap.Logger
}

const serveLongDesc string = `Run the recuerdo MCP server.

Without --listen the server speaks MCP over stdio, which is how most
agent hosts launch it. With --listen it serves MCP over streamable HTTP
on the given address instead.

Flag values fall back to environment variables (RECUERDO_ prefix), then
to config.toml in the .recuerdo/ directory, then to built-in defaults.

Examples:
  recuerdo serve
  recuerdo serve --listen :8080
  recuerdo serve --sqlite ./memories.db --embedding-model nomic-embed-text`

const serveShortDesc string = "Run the recuerdo MCP server"

// serveFlagKeys lists the registry keys the serve command registers,
// in the order they bind to viper.
var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagSQLite,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %v", err)
			}

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.ServeFlags, serveFlagKeys)

			// Read effective values back so the precedence chain
			// (flag > env > file > default) settles every field.
			cmder.listen = v.GetString("serve.listen")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.embeddingProvider = v.GetString("embedding.provider")
			cmder.embeddingTarget = v.GetString("embedding.target")
			cmder.embeddingModel = v.GetString("embedding.model")
			cmder.embeddingDimensions = v.GetUint("embedding.dimensions")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.ServeFlags, config.FlagEmbeddingDims, &cmder.embeddingDimensions)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg := &config.Config{}
	cfg.Storage.SQLitePath = c.sqlitePath

	dbPath, err := config.SQLitePath(cfg, c.configDir)
	if err != nil {
		return err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	c.logger.Info("using SQLite storage", zap.String("path", dbPath))

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embeddingProvider,
		TargetURL:    c.embeddingTarget,
		Model:        c.embeddingModel,
		Dimensions:   c.embeddingDimensions,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	c.logger.Info("using embedding provider",
		zap.String("provider", c.embeddingProvider),
		zap.String("target", c.embeddingTarget),
		zap.String("model", c.embeddingModel),
		zap.Uint("dimensions", c.embeddingDimensions),
	)

	memoryStore, err := memorysqlite.NewSQLiteStore(db, memorysqlite.Config{
		Dimensions: c.embeddingDimensions,
	}, embedder, c.logger)
	if err != nil {
		return fmt.Errorf("creating memory store: %w", err)
	}
	defer memoryStore.Close()

	bioStore, err := biosqlite.NewSQLiteStore(db, c.logger)
	if err != nil {
		return fmt.Errorf("creating bio store: %w", err)
	}
	defer bioStore.Close()

	server, err := mcp.NewServer(mcp.Config{
		MemoryStore: memoryStore,
		BioStore:    bioStore,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.listen == "" {
		return c.runStdio(ctx, server)
	}

	return c.runHTTP(ctx, server)
}

// runStdio speaks MCP over stdin/stdout until the transport closes or the
// context is cancelled. Logs go to stderr so stdout stays a clean wire.
func (c *ServeCommander) runStdio(ctx context.Context, server *mcp.Server) error {
	c.logger.Info("starting MCP server over stdio")

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

func (c *ServeCommander) runHTTP(ctx context.Context, server *mcp.Server) error {
	c.logger.Info("starting MCP server over HTTP", zap.String("listen", c.listen))

	srv := &http.Server{
		Addr:              c.listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}

		return nil
	}
}
