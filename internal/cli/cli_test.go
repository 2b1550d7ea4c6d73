package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"job-1", "job-1"},
		{"12 High St/rear", "12-High-St_rear"},
		{"..", "request"},
		{"", "request"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildRequestFromFlags(t *testing.T) {
	flags := checkCmd.Flags()
	for name, value := range map[string]string{
		"property-type":     "semi_detached",
		"conservation-area": "Belsize",
		"depth":             "4.5",
		"double-storey":     "false",
	} {
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	req, err := buildRequest(flags, []string{"single storey rear extension"})
	if err != nil {
		t.Fatalf("buildRequest failed: %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected a valid request, got %v", err)
	}

	prop, proposal := req.PropertyContext(), req.ProposalRequest()
	if !prop.InConservationArea {
		t.Error("expected a named conservation area to imply in_conservation_area")
	}
	if proposal.ExtensionDepth == nil || *proposal.ExtensionDepth != 4.5 {
		t.Errorf("expected depth 4.5, got %v", proposal.ExtensionDepth)
	}
	if proposal.DoubleStorey == nil || *proposal.DoubleStorey {
		t.Error("expected an explicit double_storey=false")
	}
	if proposal.ExtensionHeight != nil {
		t.Error("expected unset measurements to stay nil")
	}
	if proposal.Description != "single storey rear extension" {
		t.Errorf("unexpected description %q", proposal.Description)
	}
}

func TestReadRequestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "request.yaml")
	body := "id: r1\nproperty:\n  property_type: detached\nproposal:\n  description: outbuilding\n  outbuilding_height_m: 2.4\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	req, err := readRequestFile(path)
	if err != nil {
		t.Fatalf("readRequestFile failed: %v", err)
	}
	if req.ID != "r1" || req.Proposal.OutbuildingHeight == nil {
		t.Errorf("unexpected request: %+v", req)
	}

	if _, err := readRequestFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# PermitCheck Configuration File", "requests_per_second:", "OPENAI_API_KEY"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected config to contain %q", want)
		}
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected an existing config file not to be overwritten")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PERMITCHECK_SERVER_ADDR", ":9090")
	t.Setenv("PERMITCHECK_CACHE_ENABLED", "false")

	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() { cfgFile = "" })
	initConfig()

	cfg := loadConfig()
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected env to override server.addr, got %q", cfg.Server.Addr)
	}
	if cfg.Cache.Enabled {
		t.Error("expected env to disable the cache")
	}
	if cfg.Concurrency.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Concurrency.Workers)
	}
}
