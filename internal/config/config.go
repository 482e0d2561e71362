package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type StoreConfig struct {
	Backend  string         `toml:"backend"` // "sqlite" or "memgraph"
	Path     string         `toml:"path"`
	Memgraph MemgraphConfig `toml:"memgraph"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type OracleConfig struct {
	Provider string `toml:"provider"` // keyword | openai | claude | gemini | ollama
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	// Votes > 1 enables majority voting over repeated oracle calls to damp
	// non-determinism. Odd values avoid ties.
	Votes int `toml:"votes"`
}

type ClassifyConfig struct {
	// RefuteThreshold is the minimum confidence for storing a REFUTING
	// label as-is; below it the edge is demoted to CONTRASTING.
	RefuteThreshold float64 `toml:"refute_threshold"`
	AggregateWeight float64 `toml:"aggregate_weight"`
	SingleWeight    float64 `toml:"single_weight"`
	DefaultWeight   float64 `toml:"default_weight"`
}

type TraversalConfig struct {
	DepthLimit     int  `toml:"depth_limit"`
	Budget         int  `toml:"budget"`
	Fanout         int  `toml:"fanout"`
	ReferenceLimit int  `toml:"reference_limit"`
	CitingLimit    int  `toml:"citing_limit"`
	SkipAnalyzed   bool `toml:"skip_analyzed"`
	Workers        int  `toml:"workers"`
}

type HypothesisConfig struct {
	RulingWeight  float64 `toml:"ruling_weight"`
	RulingCount   int     `toml:"ruling_count"`
	SupportMargin float64 `toml:"support_margin"`
}

type SourceConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	Retries int    `toml:"retries"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type Config struct {
	Store      StoreConfig      `toml:"store"`
	Oracle     OracleConfig     `toml:"oracle"`
	Classify   ClassifyConfig   `toml:"classify"`
	Traversal  TraversalConfig  `toml:"traversal"`
	Hypothesis HypothesisConfig `toml:"hypothesis"`
	Source     SourceConfig     `toml:"source"`
	Server     ServerConfig     `toml:"server"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    filepath.Join(home, ".haruspex", "citations.db"),
			Memgraph: MemgraphConfig{
				URI: "bolt://localhost:7687",
			},
		},
		Oracle: OracleConfig{
			Provider: "keyword",
			Votes:    1,
		},
		Classify: ClassifyConfig{
			RefuteThreshold: 0.7,
			AggregateWeight: 2.0,
			SingleWeight:    0.5,
			DefaultWeight:   1.0,
		},
		Traversal: TraversalConfig{
			DepthLimit:     2,
			Budget:         100,
			Fanout:         5,
			ReferenceLimit: 25,
			CitingLimit:    25,
			SkipAnalyzed:   true,
			Workers:        1,
		},
		Hypothesis: HypothesisConfig{
			RulingWeight:  2.0,
			RulingCount:   2,
			SupportMargin: 1.0,
		},
		Source: SourceConfig{
			BaseURL: "https://api.adsabs.harvard.edu/v1",
			Retries: 3,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// Load reads a TOML config file over the defaults, then applies environment
// overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config '%s': %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HARUSPEX_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("HARUSPEX_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Store.Memgraph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Store.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Store.Memgraph.Password = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.Oracle.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := os.Getenv("ADS_DEV_KEY"); v != "" {
		c.Source.Token = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}
