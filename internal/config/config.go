package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	SessionPath   string           `json:"session_path"`
	AdminSecret   string           `json:"admin_secret"`
	AdminTTLHours int              `json:"admin_ttl_hours"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Chat          ChatConfig       `json:"chat"`
	AI            AIConfig         `json:"ai"`
	Index         IndexConfig      `json:"index"`
	Source        SourceConfig     `json:"source"`
	Vector        VectorConfig     `json:"vector"`
	Member        MemberConfig     `json:"member"`
	Jobs          JobsConfig       `json:"jobs"`
}

type ChatConfig struct {
	CooldownSeconds int `json:"cooldown_seconds"`
	MaxHistoryTurns int `json:"max_history_turns"`
	MaxMessageLen   int `json:"max_message_len"`
	PartDelayMS     int `json:"part_delay_ms"`
}

type AIConfig struct {
	Provider         string   `json:"provider"`
	Keys             []string `json:"keys"`
	GenerateModel    string   `json:"generate_model"`
	EmbedModel       string   `json:"embed_model"`
	MaxAttempts      int      `json:"max_attempts"`
	TimeoutSeconds   int      `json:"timeout_seconds"`
	KBSampleChars    int      `json:"kb_sample_chars"`
	KBMatchThreshold int      `json:"kb_match_threshold"`
	EmbedCacheSize   int      `json:"embed_cache_size"`
	EmbedCacheTTLMin int      `json:"embed_cache_ttl_minutes"`
	TextCacheSize    int      `json:"text_cache_size"`
	TextCacheTTLMin  int      `json:"text_cache_ttl_minutes"`
}

type IndexConfig struct {
	WindowWords  int `json:"window_words"`
	OverlapWords int `json:"overlap_words"`
	TopK         int `json:"top_k"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type VectorConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type MemberConfig struct {
	Mode    string   `json:"mode"`
	Allow   []string `json:"allow"`
	JoinURL string   `json:"join_url"`
}

type JobsConfig struct {
	IndexWarmupSpec   string `json:"index_warmup_spec"`
	CooldownSweepSpec string `json:"cooldown_sweep_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.SessionPath == "" {
		return fmt.Errorf("session_path is required")
	}
	if cfg.AdminSecret == "" {
		return fmt.Errorf("admin_secret is required")
	}
	if cfg.AdminTTLHours == 0 {
		cfg.AdminTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Chat.CooldownSeconds == 0 {
		cfg.Chat.CooldownSeconds = 15
	}
	if cfg.Chat.MaxHistoryTurns == 0 {
		cfg.Chat.MaxHistoryTurns = 10
	}
	if cfg.Chat.MaxMessageLen == 0 {
		cfg.Chat.MaxMessageLen = 4096
	}
	if cfg.Chat.PartDelayMS == 0 {
		cfg.Chat.PartDelayMS = 500
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if len(cfg.AI.Keys) == 0 {
		return fmt.Errorf("ai.keys is required")
	}
	if cfg.AI.GenerateModel == "" {
		cfg.AI.GenerateModel = "gemini-2.0-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-004"
	}
	if cfg.AI.MaxAttempts == 0 {
		cfg.AI.MaxAttempts = 3
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 120
	}
	if cfg.AI.KBSampleChars == 0 {
		cfg.AI.KBSampleChars = 30000
	}
	if cfg.AI.KBMatchThreshold == 0 {
		cfg.AI.KBMatchThreshold = 85
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 4096
	}
	if cfg.AI.EmbedCacheTTLMin == 0 {
		cfg.AI.EmbedCacheTTLMin = 120
	}
	if cfg.AI.TextCacheSize == 0 {
		cfg.AI.TextCacheSize = 64
	}
	if cfg.AI.TextCacheTTLMin == 0 {
		cfg.AI.TextCacheTTLMin = 720
	}
	if cfg.Index.WindowWords == 0 {
		cfg.Index.WindowWords = 800
	}
	if cfg.Index.OverlapWords == 0 {
		cfg.Index.OverlapWords = 100
	}
	if cfg.Index.OverlapWords >= cfg.Index.WindowWords {
		return fmt.Errorf("index.overlap_words must be smaller than index.window_words")
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 5
	}
	if cfg.Source.Type == "" {
		return fmt.Errorf("source.type is required")
	}
	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "memory"
	}
	if cfg.Member.Mode == "" {
		cfg.Member.Mode = "allow_all"
	}
	switch cfg.Member.Mode {
	case "allow_all":
	case "static":
		if len(cfg.Member.Allow) == 0 {
			return fmt.Errorf("member.allow is required for static mode")
		}
	default:
		return fmt.Errorf("member.mode must be allow_all or static")
	}
	return nil
}
