package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultMergeURL is the fallback merge endpoint used when no override is
// configured.
const DefaultMergeURL = "https://pdf-merge-service.onrender.com/merge"

// DefaultTimezone is the canonical zone every date comparison runs in.
const DefaultTimezone = "America/New_York"

// Config is the explicit configuration passed into each component at
// construction. There is no ambient global; tests substitute their own
// values and collaborators.
type Config struct {
	Timezone    string           `json:"timezone"`
	MainHubLink string           `json:"main_hub_link"`
	Sheet       SheetConfig      `json:"sheet"`
	Template    TemplateConfig   `json:"template"`
	Drive       DriveConfig      `json:"drive"`
	Merge       MergeConfig      `json:"merge"`
	Archive     ArchiveConfig    `json:"archive"`
	RunHistory  RunHistoryConfig `json:"run_history"`
	Settle      SettleConfig     `json:"settle"`
}

// SheetConfig locates the schedule tab inside its spreadsheet.
type SheetConfig struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	GID           int64  `json:"gid"`
}

// TemplateConfig identifies the contract template document.
type TemplateConfig struct {
	SlidesID string `json:"slides_id"`
}

// DriveConfig names the three storage locations: temporary clones,
// individual PDFs, and merged PDFs.
type DriveConfig struct {
	TempFolderID       string `json:"temp_folder_id"`
	IndividualFolderID string `json:"individual_folder_id"`
	MergedFolderID     string `json:"merged_folder_id"`
}

// MergeConfig holds the merge service endpoint override.
type MergeConfig struct {
	URL string `json:"url"`
}

// ArchiveConfig enables the optional GCS mirror of merged PDFs. Empty
// bucket disables archiving.
type ArchiveConfig struct {
	Bucket string `json:"bucket"`
}

// RunHistoryConfig enables the optional Firestore run audit log. Empty
// project ID disables it.
type RunHistoryConfig struct {
	ProjectID  string `json:"project_id"`
	Collection string `json:"collection"`
}

// SettleConfig holds the bounded waits inserted around read-after-write
// seams: a freshly substituted document before its export, and freshly
// uploaded PDFs before the merge payload reads them back. The APIs expose
// no explicit synchronization point, so these stay as documented, tunable
// delays.
type SettleConfig struct {
	SubstitutionMs int `json:"substitution_ms"`
	ExportMs       int `json:"export_ms"`
	PreMergeMs     int `json:"pre_merge_ms"`
}

// SetDefaults fills every optional value with its documented fallback so an
// absent config file or key never crashes the system.
func (c *Config) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Merge.URL == "" {
		c.Merge.URL = DefaultMergeURL
	}
	if c.RunHistory.Collection == "" {
		c.RunHistory.Collection = "contract_runs"
	}
	if c.Settle.SubstitutionMs == 0 {
		c.Settle.SubstitutionMs = 300
	}
	if c.Settle.ExportMs == 0 {
		c.Settle.ExportMs = 400
	}
	if c.Settle.PreMergeMs == 0 {
		c.Settle.PreMergeMs = 1500
	}
}

// Validate checks values that would misbehave silently at runtime.
func (c *Config) Validate() error {
	if c.Settle.SubstitutionMs < 0 || c.Settle.ExportMs < 0 || c.Settle.PreMergeMs < 0 {
		return fmt.Errorf("settle delays must not be negative")
	}
	if c.Sheet.GID < 0 {
		return fmt.Errorf("sheet.gid must not be negative")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the canonical time zone. Validate has already checked it
// when the config came through Load.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load reads configuration from an optional yaml/json file, then applies
// TC_-prefixed environment overrides (TC_MERGE__URL → merge.url), defaults,
// and validation. An empty path loads from environment and defaults alone.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("TC_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "tc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
