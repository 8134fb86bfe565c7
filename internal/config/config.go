// Package config loads the server configuration from YAML with sane
// defaults. Secrets (the API key) come from the environment, never from
// the file.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig points at the artifact directory and the conversation database.
type StoreConfig struct {
	Dir      string `yaml:"dir"`      // artifact store directory
	Index    string `yaml:"index"`    // vector index artifact file name
	Metadata string `yaml:"metadata"` // chunk metadata artifact file name
	Database string `yaml:"database"` // sqlite conversation database path
}

// OpenAIConfig configures the embedding and completion clients.
type OpenAIConfig struct {
	BaseURL             string `yaml:"base_url"`
	APIKeyEnv           string `yaml:"api_key_env"`
	EmbeddingModel      string `yaml:"embedding_model"`
	CompletionModel     string `yaml:"completion_model"`
	EmbedTimeoutSecs    int    `yaml:"embed_timeout_secs"`
	CompleteTimeoutSecs int    `yaml:"complete_timeout_secs"`
}

// EngineConfig configures the dialogue-engine webhook.
type EngineConfig struct {
	WebhookURL  string `yaml:"webhook_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrievalConfig configures the answer pipeline.
type RetrievalConfig struct {
	TopK       int    `yaml:"top_k"`
	University string `yaml:"university"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Engine    EngineConfig    `yaml:"engine"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// IndexPath is the full path of the vector index artifact.
func (c *AppConfig) IndexPath() string { return filepath.Join(c.Store.Dir, c.Store.Index) }

// MetadataPath is the full path of the chunk metadata artifact.
func (c *AppConfig) MetadataPath() string { return filepath.Join(c.Store.Dir, c.Store.Metadata) }

// APIKey reads the configured API key environment variable.
func (c *AppConfig) APIKey() string { return os.Getenv(c.OpenAI.APIKeyEnv) }

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8000"
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "./rag_store"
	}
	if cfg.Store.Index == "" {
		cfg.Store.Index = "index.bin"
	}
	if cfg.Store.Metadata == "" {
		cfg.Store.Metadata = "meta.db"
	}
	if cfg.Store.Database == "" {
		cfg.Store.Database = "./chat.db"
	}
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.CompletionModel == "" {
		cfg.OpenAI.CompletionModel = "gpt-4.1-mini"
	}
	if cfg.OpenAI.EmbedTimeoutSecs == 0 {
		cfg.OpenAI.EmbedTimeoutSecs = 30
	}
	if cfg.OpenAI.CompleteTimeoutSecs == 0 {
		cfg.OpenAI.CompleteTimeoutSecs = 60
	}
	if cfg.Engine.WebhookURL == "" {
		cfg.Engine.WebhookURL = "http://127.0.0.1:5005/webhooks/rest/webhook"
	}
	if cfg.Engine.TimeoutSecs == 0 {
		cfg.Engine.TimeoutSecs = 15
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.University == "" {
		cfg.Retrieval.University = "Kwantlen Polytechnic University (KPU)"
	}
}
