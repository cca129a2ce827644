package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tablechat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TableChat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, key := range configKeys {
			fmt.Printf("%s: %s\n", key, configValue(cfg, key))
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !knownKey(key) {
			return fmt.Errorf("unknown key: %s", key)
		}
		fmt.Println(configValue(cfg, key))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConfigValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

var configKeys = []string{
	"ollama_host", "ollama_model", "temperature", "num_ctx", "num_gpu",
	"mirostat", "ollama_timeout_sec", "retry_max_attempts",
	"retry_base_delay_ms", "retry_max_delay_ms", "listen", "cache_entries",
	"allowed_origins", "advanced_processing", "verbose",
}

func knownKey(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return false
}

func configValue(c *cfgpkg.Global, key string) string {
	switch key {
	case "ollama_host":
		return c.OllamaHost
	case "ollama_model":
		return c.OllamaModel
	case "temperature":
		return strconv.FormatFloat(c.Temperature, 'g', -1, 64)
	case "num_ctx":
		return strconv.Itoa(c.NumCtx)
	case "num_gpu":
		return strconv.Itoa(c.NumGPU)
	case "mirostat":
		return strconv.Itoa(c.Mirostat)
	case "ollama_timeout_sec":
		return strconv.Itoa(c.OllamaTimeoutSec)
	case "retry_max_attempts":
		return strconv.Itoa(c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return strconv.Itoa(c.RetryMaxDelayMs)
	case "listen":
		return c.Listen
	case "cache_entries":
		return strconv.Itoa(c.CacheEntries)
	case "allowed_origins":
		return strings.Join(c.AllowedOrigins, ",")
	case "advanced_processing":
		return strconv.FormatBool(c.AdvancedProcessing)
	case "verbose":
		return strconv.FormatBool(c.Verbose)
	}
	return ""
}

func applyConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "ollama_host":
		c.OllamaHost = val
	case "ollama_model":
		c.OllamaModel = val
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for temperature: %w", err)
		}
		c.Temperature = f
	case "num_ctx":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for num_ctx: %v", val)
		}
		c.NumCtx = i
	case "num_gpu":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for num_gpu: %v", val)
		}
		c.NumGPU = i
	case "mirostat":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 || i > 2 {
			return fmt.Errorf("invalid mirostat mode: %v (use 0, 1 or 2)", val)
		}
		c.Mirostat = i
	case "ollama_timeout_sec":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for ollama_timeout_sec: %v", val)
		}
		c.OllamaTimeoutSec = i
	case "retry_max_attempts":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for retry_max_attempts: %v", val)
		}
		c.RetryMaxAttempts = i
	case "retry_base_delay_ms":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for retry_base_delay_ms: %v", val)
		}
		c.RetryBaseDelayMs = i
	case "retry_max_delay_ms":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for retry_max_delay_ms: %v", val)
		}
		c.RetryMaxDelayMs = i
	case "listen":
		c.Listen = val
	case "cache_entries":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for cache_entries: %v", val)
		}
		c.CacheEntries = i
	case "allowed_origins":
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	case "advanced_processing", "verbose":
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		if key == "advanced_processing" {
			c.AdvancedProcessing = b
		} else {
			c.Verbose = b
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
