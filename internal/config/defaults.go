package config

// DefaultTemperature is the generation temperature used when none is configured.
const DefaultTemperature = 0.7

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 120
	}

	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = "./data"
	}
	if cfg.Paths.CaseDir == "" {
		cfg.Paths.CaseDir = "./data/case_pdfs"
	}
	if cfg.Paths.ActsStore == "" {
		cfg.Paths.ActsStore = "./vectorstores/acts"
	}
	if cfg.Paths.CasesStore == "" {
		cfg.Paths.CasesStore = "./vectorstores/cases"
	}
	if cfg.Paths.MetadataFile == "" {
		cfg.Paths.MetadataFile = "./data/case_metadata.json"
	}
	if cfg.Paths.CaseIndex == "" {
		cfg.Paths.CaseIndex = "./data/indices/cases.bleve"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Model = "text-embedding-3-small"
		default:
			cfg.Embedding.Model = "models/embedding-001"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Dimensions = 1536
		case "onnx":
			cfg.Embedding.Dimensions = 384
		default:
			cfg.Embedding.Dimensions = 768
		}
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 100
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}

	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "gemini"
	}
	if cfg.Generation.Model == "" {
		switch cfg.Generation.Provider {
		case "openai":
			cfg.Generation.Model = "gpt-4o-mini"
		default:
			cfg.Generation.Model = "gemini-2.5-flash-preview-04-17"
		}
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 90
	}

	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = 20
	}
	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = 512
	}
	if cfg.Pipeline.ChunkOverlap == 0 {
		cfg.Pipeline.ChunkOverlap = 50
	}
	if cfg.Pipeline.Extensions == nil {
		cfg.Pipeline.Extensions = []string{".pdf"}
	}

	if cfg.Metadata.MaxPages == 0 {
		cfg.Metadata.MaxPages = 2
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 3
	}

	if cfg.Log.Driver == "" {
		cfg.Log.Driver = "sqlite"
	}
	if cfg.Log.DSN == "" && cfg.Log.Driver == "sqlite" {
		cfg.Log.DSN = "./data/db/interactions.db"
	}
	if cfg.Log.Database == "" {
		cfg.Log.Database = "lexilaw"
	}
	if cfg.Log.Collection == "" {
		cfg.Log.Collection = "chat_logs"
	}
	if cfg.Log.Queue == "" {
		cfg.Log.Queue = "lexilaw.interactions"
	}
	if cfg.Log.WorkerDriver == "" {
		cfg.Log.WorkerDriver = "sqlite"
	}
	if cfg.Log.WorkerDSN == "" && cfg.Log.WorkerDriver == "sqlite" {
		cfg.Log.WorkerDSN = "./data/db/interactions.db"
	}

	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = "memory"
	}
	if cfg.Sessions.RedisAddr == "" {
		cfg.Sessions.RedisAddr = "localhost:6379"
	}
	if cfg.Sessions.TTLMinutes == 0 {
		cfg.Sessions.TTLMinutes = 60
	}

	if cfg.Publish.Driver == "" {
		cfg.Publish.Driver = "local"
	}
	if cfg.Publish.Prefix == "" {
		cfg.Publish.Prefix = "vectorstores"
	}

	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 2000
	}
}
