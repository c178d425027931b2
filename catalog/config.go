package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfigFile = "config.json"

// Config aggregates the settings persisted to config.json.
type Config struct {
	DictionaryPath string    `json:"dictionaryPath"`
	CatalogPath    string    `json:"catalogPath"`
	SearchColumns  []int     `json:"searchColumns"`
	PreviewColumns []int     `json:"previewColumns"`
	ViaDictionary  bool      `json:"viaDictionary"`
	Log            LogConfig `json:"log"`
	// Columns names the headers SuggestPreviewColumns looks for.
	Columns ColumnCandidates `json:"columnCandidates"`
}

// DefaultConfig returns the settings used when no file exists yet.
func DefaultConfig() Config {
	cfg := Config{ViaDictionary: true, Columns: DefaultColumnCandidates()}
	cfg.ApplyDefaults()
	return cfg
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	out := c
	out.SearchColumns = cloneInts(c.SearchColumns)
	out.PreviewColumns = cloneInts(c.PreviewColumns)
	out.Columns = c.Columns.clone()
	return out
}

// ApplyDefaults populates zero values.
func (c *Config) ApplyDefaults() {
	if len(c.SearchColumns) == 0 {
		c.SearchColumns = []int{AllColumns}
	}
	if len(c.PreviewColumns) == 0 {
		c.PreviewColumns = []int{AllColumns}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	c.Columns = c.Columns.withDefaults()
}

// PreviewAll reports whether every column should be shown.
func (c Config) PreviewAll() bool {
	return len(c.PreviewColumns) == 0 || containsInt(c.PreviewColumns, AllColumns)
}

// LoadConfig loads configuration from the given path or the default config.json.
// A missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk via a temporary file.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
