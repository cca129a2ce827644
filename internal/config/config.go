package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tablechat/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Local model endpoint (Ollama)
	OllamaHost       string  `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaModel      string  `mapstructure:"ollama_model" yaml:"ollama_model"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"`
	NumCtx           int     `mapstructure:"num_ctx" yaml:"num_ctx"`
	NumGPU           int     `mapstructure:"num_gpu" yaml:"num_gpu"`
	Mirostat         int     `mapstructure:"mirostat" yaml:"mirostat"`
	OllamaTimeoutSec int     `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// Retry configuration for the model client
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// HTTP app
	Listen         string   `mapstructure:"listen" yaml:"listen"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	CacheEntries   int      `mapstructure:"cache_entries" yaml:"cache_entries"`

	// Analysis engine
	AdvancedProcessing bool `mapstructure:"advanced_processing" yaml:"advanced_processing"`
	Verbose            bool `mapstructure:"verbose" yaml:"verbose"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tablechat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".tablechat")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABLECHAT")
	v.AutomaticEnv()

	// Defaults match the local llama3.2 setup this tool ships against.
	v.SetDefault("ollama_host", "http://127.0.0.1:11435")
	v.SetDefault("ollama_model", "llama3.2:3b")
	v.SetDefault("temperature", 0.3)
	v.SetDefault("num_ctx", 2048)
	v.SetDefault("num_gpu", 99)
	v.SetDefault("mirostat", 0)
	v.SetDefault("ollama_timeout_sec", 120)
	// Retry defaults
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// HTTP app defaults
	v.SetDefault("listen", ":8501")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("cache_entries", 16)
	// Engine defaults
	v.SetDefault("advanced_processing", true)
	v.SetDefault("verbose", false)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".tablechat")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
