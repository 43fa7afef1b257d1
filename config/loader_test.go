package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	saved := snapshotEnv(t, "PORT", "LLM_PROVIDER", "LEADS_CSV_PATH", "LOG_LEVEL")
	defer saved()

	cfg := Default()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.Leads.CSVPath != "leads.csv" {
		t.Errorf("Leads.CSVPath = %q, want leads.csv", cfg.Leads.CSVPath)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	saved := snapshotEnv(t, "PORT", "LLM_PROVIDER")
	defer saved()

	os.Setenv("PORT", "9090")
	os.Setenv("LLM_PROVIDER", "ollama")

	cfg := Default()
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("LLM.Provider = %q, want ollama", cfg.LLM.Provider)
	}
}

func TestLoadYAMLOverridesAndExpansion(t *testing.T) {
	saved := snapshotEnv(t, "TEST_KB_PATH")
	defer saved()
	os.Setenv("TEST_KB_PATH", "/tmp/kb.md")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
knowledge:
  path: ${TEST_KB_PATH}
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Knowledge.Path != "/tmp/kb.md" {
		t.Errorf("Knowledge.Path = %q, want expanded value", cfg.Knowledge.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Leads.CSVPath != "leads.csv" {
		t.Errorf("Leads.CSVPath = %q, want default", cfg.Leads.CSVPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Server.WSPort == 0 {
		t.Error("expected default ws_port")
	}
}

// snapshotEnv saves the named variables, clears them, and returns a
// restore func.
func snapshotEnv(t *testing.T, keys ...string) func() {
	t.Helper()
	saved := make(map[string]string, len(keys))
	for _, k := range keys {
		saved[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	return func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}
}
