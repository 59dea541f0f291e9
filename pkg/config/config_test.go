package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := writeConfigFile(t, "base_url: http://svc.test\ntest_file: suite.xlsx\nverbose: true\n")
	cfg, err := Load(path, Flags{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://svc.test" || cfg.TestFile != "suite.xlsx" || !cfg.Verbose {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, "base_url: http://file.test\n")
	cfg, err := Load(path, Flags{BaseURL: "http://flag.test"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "http://flag.test" {
		t.Errorf("expected flag to override file, got %q", cfg.BaseURL)
	}
}

func TestLoadConflictingStartRowWithoutWorksheet(t *testing.T) {
	path := writeConfigFile(t, "base_url: http://svc.test\n")
	start := 2
	_, err := Load(path, Flags{StartRow: &start})
	if err == nil {
		t.Fatalf("expected a conflict error for start_row without worksheet")
	}
}

func TestLoadStartRowWithWorksheetIsFine(t *testing.T) {
	path := writeConfigFile(t, "base_url: http://svc.test\n")
	start := 2
	cfg, err := Load(path, Flags{StartRow: &start, Worksheet: "Sheet1"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StartRow != 2 || cfg.Worksheet != "Sheet1" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestGroupSelectorParsing(t *testing.T) {
	path := writeConfigFile(t, "base_url: http://svc.test\n")
	cfg, err := Load(path, Flags{Groups: []string{"S1.alpha", "S2:beta", "gamma"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Groups) != 3 {
		t.Fatalf("groups = %+v", cfg.Groups)
	}
	if cfg.Groups[0] != (GroupSelector{Worksheet: "S1", Group: "alpha"}) {
		t.Errorf("groups[0] = %+v", cfg.Groups[0])
	}
	if cfg.Groups[2] != (GroupSelector{Group: "gamma"}) {
		t.Errorf("groups[2] = %+v", cfg.Groups[2])
	}
}

func TestAllowsEmptySelectorAllowsAll(t *testing.T) {
	cfg := &Config{}
	if !cfg.Allows("S1", "alpha") {
		t.Errorf("expected empty selector set to allow everything")
	}
}

func TestAllowsFiltersByWorksheetAndGroup(t *testing.T) {
	cfg := &Config{Groups: []GroupSelector{{Worksheet: "S1", Group: "alpha"}}}
	if !cfg.Allows("S1", "alpha") {
		t.Errorf("expected S1.alpha to be allowed")
	}
	if cfg.Allows("S2", "alpha") {
		t.Errorf("expected S2.alpha to be disallowed")
	}
}

func TestStartRowOrDefault(t *testing.T) {
	cfg := &Config{}
	if cfg.StartRowOrDefault() != 1 {
		t.Errorf("expected default start row 1, got %d", cfg.StartRowOrDefault())
	}
	cfg.StartRow = 5
	if cfg.StartRowOrDefault() != 5 {
		t.Errorf("expected explicit start row 5, got %d", cfg.StartRowOrDefault())
	}
}

func TestWriteScaffoldProducesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteScaffold(path); err != nil {
		t.Fatalf("WriteScaffold: %v", err)
	}
	cfg, err := Load(path, Flags{})
	if err != nil {
		t.Fatalf("Load scaffold: %v", err)
	}
	if cfg.TokenKey != "data.access_token" {
		t.Errorf("expected scaffold token_key default, got %q", cfg.TokenKey)
	}
}
