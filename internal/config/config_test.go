package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// No config file anywhere on the search path: defaults apply.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("model = %s, want gpt-4o", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 3000 {
		t.Errorf("max_tokens = %d, want 3000", cfg.OpenAI.MaxTokens)
	}
	if cfg.Dataset != "email_order_extraction" {
		t.Errorf("dataset = %s, want email_order_extraction", cfg.Dataset)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Workers)
	}
}

func TestLoad_FileAndEnvResolution(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `openai:
  api_key: ${TEST_OPENAI_KEY}
  model: gpt-4o-mini
tracking:
  base_url: https://cloud.example.com
  public_key: pk-test
  secret_key: sk-test
pdf_dir: /data/pdfs
workers: 8
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want resolved env value", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("model = %s, want gpt-4o-mini", cfg.OpenAI.Model)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Workers)
	}
	if err := cfg.ValidateExtraction(); err != nil {
		t.Errorf("ValidateExtraction() = %v", err)
	}
	if err := cfg.ValidateTracking(); err != nil {
		t.Errorf("ValidateTracking() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	var cfg Config
	if err := cfg.ValidateExtraction(); err == nil {
		t.Error("ValidateExtraction() should fail without an API key")
	}
	if err := cfg.ValidateTracking(); err == nil {
		t.Error("ValidateTracking() should fail without platform keys")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("RESOLVE_ME", "value")

	tests := []struct {
		in, want string
	}{
		{"${RESOLVE_ME}", "value"},
		{"prefix-${RESOLVE_ME}", "prefix-value"},
		{"plain", "plain"},
		{"", ""},
		{"${UNSET_VAR_XYZ}", ""},
	}
	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
