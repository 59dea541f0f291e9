// Package config builds the frozen per-run configuration record (§3, §6):
// a config.yaml document merged with command-line flag overrides via
// viper, plus the group-selector parsing the CLI surface documents.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rv-nath/satyanaash/pkg/bootstrap"
)

// GroupSelector names one allowed (worksheet, group) pair. Worksheet is
// empty when the CLI flag named only a bare group, meaning "this group on
// any sheet".
type GroupSelector struct {
	Worksheet string `yaml:"worksheet,omitempty"`
	Group     string `yaml:"group"`
}

// Config is the frozen configuration record the core consumes (§3).
type Config struct {
	BaseURL   string                 `yaml:"base_url"`
	TestFile  string                 `yaml:"test_file"`
	Worksheet string                 `yaml:"worksheet"`
	StartRow  int                    `yaml:"start_row"`
	EndRow    int                    `yaml:"end_row"`
	Verbose   bool                   `yaml:"verbose"`
	TokenKey  string                 `yaml:"token_key"`
	Groups    []GroupSelector        `yaml:"groups,omitempty"`
	RateLimit float64                `yaml:"rate_limit"`
	OAuth2    bootstrap.OAuth2Config `yaml:"oauth2,omitempty"`
}

// Flags is the raw set of CLI flag values, bound by cmd/satyanaash before
// Load runs. A flag's zero value means "not provided on the command
// line" and does not override the file.
type Flags struct {
	StartRow  *int
	EndRow    *int
	BaseURL   string
	TestFile  string
	Worksheet string
	Groups    []string
	Verbose   bool
	RateLimit float64
}

// Load reads config.yaml (if present) via viper, then applies flags on
// top, per §6's "Command-line flags override file values." Returns an
// error only for a malformed config file or a conflicting flag
// combination — both are Startup-class errors (§7), fatal before any
// event is fired.
func Load(configPath string, flags Flags) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !isFileNotFound(err) {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	cfg := &Config{
		BaseURL:   v.GetString("base_url"),
		TestFile:  v.GetString("test_file"),
		Worksheet: v.GetString("worksheet"),
		StartRow:  v.GetInt("start_row"),
		EndRow:    v.GetInt("end_row"),
		Verbose:   v.GetBool("verbose"),
		TokenKey:  v.GetString("token_key"),
		RateLimit: v.GetFloat64("rate_limit"),
		OAuth2: bootstrap.OAuth2Config{
			ClientID:     v.GetString("oauth2.client_id"),
			ClientSecret: v.GetString("oauth2.client_secret"),
			TokenURL:     v.GetString("oauth2.token_url"),
			Scopes:       v.GetStringSlice("oauth2.scopes"),
		},
	}
	if v.IsSet("groups") {
		for _, raw := range v.GetStringSlice("groups") {
			cfg.Groups = append(cfg.Groups, parseGroupSelector(raw))
		}
	}

	applyFlags(cfg, flags)

	// The literal conflict rule from the source: (start_row|end_row) &&
	// !worksheet. Preserved as-is — see "Open questions resolved" in
	// DESIGN.md about whether this should also consider named groups.
	if (cfg.StartRow != 0 || cfg.EndRow != 0) && cfg.Worksheet == "" {
		return nil, fmt.Errorf("config: start_row/end_row require an explicit worksheet")
	}

	return cfg, nil
}

func applyFlags(cfg *Config, flags Flags) {
	if flags.StartRow != nil {
		cfg.StartRow = *flags.StartRow
	}
	if flags.EndRow != nil {
		cfg.EndRow = *flags.EndRow
	}
	if flags.BaseURL != "" {
		cfg.BaseURL = flags.BaseURL
	}
	if flags.TestFile != "" {
		cfg.TestFile = flags.TestFile
	}
	if flags.Worksheet != "" {
		cfg.Worksheet = flags.Worksheet
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if flags.RateLimit > 0 {
		cfg.RateLimit = flags.RateLimit
	}
	if len(flags.Groups) > 0 {
		cfg.Groups = nil
		for _, raw := range flags.Groups {
			cfg.Groups = append(cfg.Groups, parseGroupSelector(raw))
		}
	}
}

// parseGroupSelector accepts "sheet.group", "sheet:group", or a bare
// "group" (§6).
func parseGroupSelector(raw string) GroupSelector {
	if idx := strings.IndexAny(raw, ".:"); idx >= 0 {
		return GroupSelector{Worksheet: raw[:idx], Group: raw[idx+1:]}
	}
	return GroupSelector{Group: raw}
}

// Allows reports whether the group-selector set permits running group
// name on worksheet. An empty selector set means "run every group."
func (c *Config) Allows(worksheet, group string) bool {
	if len(c.Groups) == 0 {
		return true
	}
	for _, sel := range c.Groups {
		if sel.Group != group {
			continue
		}
		if sel.Worksheet == "" || sel.Worksheet == worksheet {
			return true
		}
	}
	return false
}

// StartRowOrDefault applies the default of 1, which skips row index 0
// (presumed a header row).
func (c *Config) StartRowOrDefault() int {
	if c.StartRow == 0 {
		return 1
	}
	return c.StartRow
}

func isFileNotFound(err error) bool {
	// With SetConfigFile, viper reports a missing file as a plain
	// filesystem error rather than ConfigFileNotFoundError.
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// WriteScaffold marshals a documented-defaults Config to path as YAML,
// for "satyanaash config init" to hand an operator a starting file. Uses
// yaml.v3 directly rather than viper, which has no writer of its own.
func WriteScaffold(path string) error {
	cfg := Config{
		TokenKey: "data.access_token",
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling scaffold: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
