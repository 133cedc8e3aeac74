package config

const (
	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "all-minilm"
	defaultEmbeddingDimensions = 384

	// defaultSQLiteFile is the database filename created inside the
	// resolved .recuerdo/ directory when storage.sqlite_path is unset.
	defaultSQLiteFile = "recuerdo.db"

	// defaultListen is empty: the MCP server speaks stdio unless an
	// address is configured.
	defaultListen = ""
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			SQLitePath: "",
		},
		Serve: ServeConfig{
			Listen: defaultListen,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
	}
}
