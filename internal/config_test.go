package internal

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestProjectConfig_RequiresRoot(t *testing.T) {
	cfg := ProjectConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty project root should fail validation")
	}
}

func TestProjectConfig_RejectsPartialOverride(t *testing.T) {
	cfg := ProjectConfig{
		Root:               ".",
		TemplateCategories: []CategoryOverride{{Prefix: "Arcade"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("override without category should fail validation")
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var cfg RemoteConfig
	data := "read_interval: 250ms\nwrite_interval: 2s\n"
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.ReadInterval.Std() != 250*time.Millisecond {
		t.Errorf("read_interval = %v", cfg.ReadInterval.Std())
	}
	if cfg.WriteInterval.Std() != 2*time.Second {
		t.Errorf("write_interval = %v", cfg.WriteInterval.Std())
	}

	if err := yaml.Unmarshal([]byte("timeout: soon\n"), &cfg); err == nil {
		t.Fatal("invalid duration should fail to unmarshal")
	}
}

func TestRemoteConfig_ClientConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Remote.APIURL = "https://wiki.example.org/api.php"
	cfg.Remote.Bot.Username = "bot"
	cfg.Remote.Bot.Password = "secret"

	cc := cfg.Remote.ClientConfig()
	if cc.BaseURL != cfg.Remote.APIURL || cc.Username != "bot" || cc.Password != "secret" {
		t.Errorf("client config = %+v", cc)
	}
	if cc.ReadInterval != 250*time.Millisecond || cc.MaxAttempts != 4 {
		t.Errorf("defaults not carried over: %+v", cc)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
