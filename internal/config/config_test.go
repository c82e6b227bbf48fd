package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pedidobot/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PEDIDOBOT_GATEWAY_TOKEN", "gw-token")
	t.Setenv("PEDIDOBOT_BRIDGE_TOKEN", " bridge-token ")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "pedidobot")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Gateway.Token != "gw-token" {
		t.Fatalf("expected gateway token from env, got %q", cfg.Gateway.Token)
	}
	if cfg.Gateway.BridgeToken != "bridge-token" {
		t.Fatalf("expected trimmed bridge token from env, got %q", cfg.Gateway.BridgeToken)
	}
	if cfg.Classifier.APIKey != "or-key" {
		t.Fatalf("expected classifier key from env, got %q", cfg.Classifier.APIKey)
	}
	if cfg.Matching.MinScore != 18 || cfg.Matching.MaxResults != 5 {
		t.Fatalf("unexpected matching defaults: %+v", cfg.Matching)
	}
	if cfg.Guard.WindowSeconds != 120 || cfg.Guard.SweepAbove != 2000 || cfg.Guard.HardLimit != 3000 || cfg.Guard.TrimTo != 1500 {
		t.Fatalf("unexpected guard defaults: %+v", cfg.Guard)
	}
	if cfg.MaxSendBytes() != 20*1024*1024 {
		t.Fatalf("unexpected max send bytes: %d", cfg.MaxSendBytes())
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "pedidobot.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadCustomConfigClampsSendLimit(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("OPENROUTER_API_KEY", "")

	cases := []struct {
		name string
		mb   int
		want int
	}{
		{name: "above max", mb: 9000, want: 500},
		{name: "in range", mb: 64, want: 64},
		{name: "zero falls back", mb: 0, want: 20},
		{name: "negative falls back", mb: -3, want: 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = filepath.Join(tempHome, "data")
			cfg.Files.MaxSendMB = tc.mb

			configPath := filepath.Join(t.TempDir(), "config.toml")
			encoded, err := toml.Marshal(cfg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			loaded, _, exists, err := config.Load(configPath)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if !exists {
				t.Fatal("expected config file to exist")
			}
			if loaded.Files.MaxSendMB != tc.want {
				t.Fatalf("MaxSendMB = %d, want %d", loaded.Files.MaxSendMB, tc.want)
			}
		})
	}
}

func TestLoadRejectsLLMWithoutKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	body := "[classifier]\nllm_enabled = true\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "classifier.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateGuardLimits(t *testing.T) {
	cfg := config.Default()
	cfg.Guard.TrimTo = cfg.Guard.HardLimit
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected trim_to >= hard_limit to be rejected")
	}
}

func TestAdminsAreTrimmedAndDeduplicated(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	body := "[access]\nadmins = [\" 5491100 \", \"5491100\", \"\", \"5491199\"]\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Access.Admins) != 2 {
		t.Fatalf("expected 2 admins, got %v", cfg.Access.Admins)
	}
	if !cfg.IsAdmin("5491100") || !cfg.IsAdmin("5491199") {
		t.Fatalf("expected both admins recognised: %v", cfg.Access.Admins)
	}
	if cfg.IsAdmin("") || cfg.IsAdmin("5491000") {
		t.Fatal("unexpected admin match")
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Gateway.CommandPrefix != "." {
		t.Fatalf("unexpected prefix %q", cfg.Gateway.CommandPrefix)
	}
}
