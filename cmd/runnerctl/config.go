package main

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ProviderConfig is one entry under providers: in a config file, naming a
// driver kind and the credentials/model it should run with.
type ProviderConfig struct {
	Kind         string  `koanf:"kind"` // openai, anthropic, gemini, mock
	APIKey       string  `koanf:"api_key"`
	Model        string  `koanf:"model"`
	CostPerToken float64 `koanf:"cost_per_token"`
}

// FileConfig is the on-disk configuration for runnerctl, loaded through
// koanf the way the teacher's cmd/config.go layers defaults then a YAML
// file — generalized here to a single Unmarshal instead of the teacher's
// hand-rolled loadYAMLFile.
type FileConfig struct {
	Providers map[string]ProviderConfig `koanf:"providers"`
}

// loadFileConfig layers defaults then an optional YAML file. Per-provider
// API keys are additionally resolved from the OPENAI_API_KEY/
// ANTHROPIC_API_KEY/GEMINI_API_KEY environment variables (see
// applyEnvOverrides), mirroring the teacher's loadEnvVars fallback.
func loadFileConfig(path string) (FileConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(FileConfig{}, "koanf"), nil); err != nil {
		return FileConfig{}, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return FileConfig{}, err
			}
		}
	}

	var cfg FileConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return FileConfig{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides fills a provider's api_key from the standard
// <KIND>_API_KEY environment variable when the config file left it blank.
func applyEnvOverrides(cfg *FileConfig) {
	envVar := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"gemini":    "GEMINI_API_KEY",
	}
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			continue
		}
		if ev, ok := envVar[pc.Kind]; ok {
			if v := os.Getenv(ev); v != "" {
				pc.APIKey = v
				cfg.Providers[name] = pc
			}
		}
	}
}
