package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 60
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/shirabe/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/shirabe/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/shirabe/data/indices/vectors.bin"
	}
	if cfg.Storage.GraphDatabasePath == "" {
		cfg.Storage.GraphDatabasePath = "/usr/local/var/shirabe/data/db/graph.db"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Orchestrator.MaxPerSource == 0 {
		cfg.Orchestrator.MaxPerSource = 20
	}
	if cfg.Orchestrator.MaxResults == 0 {
		cfg.Orchestrator.MaxResults = 15
	}
	if cfg.Orchestrator.DedupPrefixLen == 0 {
		cfg.Orchestrator.DedupPrefixLen = 200
	}
	if cfg.Orchestrator.GraphBoost == 0 {
		cfg.Orchestrator.GraphBoost = 0.1
	}
	if cfg.Orchestrator.ChunkSize == 0 {
		cfg.Orchestrator.ChunkSize = 512
	}
	if cfg.Orchestrator.ChunkOverlap == 0 {
		cfg.Orchestrator.ChunkOverlap = 50
	}
}
