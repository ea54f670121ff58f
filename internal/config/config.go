package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		PublicDir string `yaml:"public_dir"`
	} `yaml:"server"`
	Media struct {
		GenerationDir  string `yaml:"generation_dir"`
		PostedDir      string `yaml:"posted_dir"`
		QuizzesDir     string `yaml:"quizzes_dir"`
		CharactersFile string `yaml:"characters_file"`
		URLPrefix      string `yaml:"url_prefix"`
	} `yaml:"media"`
	Generator struct {
		Python        string `yaml:"python"`
		Script        string `yaml:"script"`
		MaxConcurrent int    `yaml:"max_concurrent"`
		Timeout       string `yaml:"timeout"`
	} `yaml:"generator"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		SessionTTL string `yaml:"session_ttl"`
		SQLitePath string `yaml:"sqlite_path"`
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	RateLimit struct {
		Login    string `yaml:"login"`
		Generate string `yaml:"generate"`
	} `yaml:"rate_limit"`
}

// Load reads YAML config from path and fills defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills every unset path from the generation directory.
func (c *Config) ApplyDefaults() {
	if c.Media.GenerationDir == "" {
		c.Media.GenerationDir = "generation"
	}
	if c.Media.PostedDir == "" {
		c.Media.PostedDir = filepath.Join(c.Media.GenerationDir, "posted")
	}
	if c.Media.QuizzesDir == "" {
		c.Media.QuizzesDir = filepath.Join(c.Media.GenerationDir, "quizzes")
	}
	if c.Media.CharactersFile == "" {
		c.Media.CharactersFile = filepath.Join(c.Media.GenerationDir, "characters.json")
	}
	if c.Media.URLPrefix == "" {
		c.Media.URLPrefix = "/posted"
	}
	if c.Generator.Python == "" {
		c.Generator.Python = "python3"
	}
	if c.Generator.Script == "" {
		c.Generator.Script = "video_generation.py"
	}
	if c.Generator.MaxConcurrent <= 0 {
		c.Generator.MaxConcurrent = 1
	}
	if c.RateLimit.Login == "" {
		c.RateLimit.Login = "20-M"
	}
	if c.RateLimit.Generate == "" {
		c.RateLimit.Generate = "5-M"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
