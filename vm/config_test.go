package vm

import "testing"

func TestLoadConfigBytesOverridesRuntimeVersion(t *testing.T) {
	cfg, err := LoadConfigBytes([]byte(`runtime_version = "ravm-2.0"
allow_compression = true
`))
	if err != nil {
		t.Fatalf("LoadConfigBytes: %v", err)
	}
	if cfg.RuntimeVersion != "ravm-2.0" {
		t.Errorf("RuntimeVersion = %q, want \"ravm-2.0\"", cfg.RuntimeVersion)
	}
	if !cfg.AllowCompression {
		t.Errorf("AllowCompression = false, want true")
	}
	if cfg.Magic != MagicConstant {
		t.Errorf("Magic = %v, want default %v when unset in TOML", cfg.Magic, MagicConstant)
	}
}

func TestDefaultConfigMatchesConstants(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Magic != MagicConstant {
		t.Errorf("DefaultConfig().Magic = %v, want %v", cfg.Magic, MagicConstant)
	}
	if cfg.RuntimeVersion != RuntimeVersion {
		t.Errorf("DefaultConfig().RuntimeVersion = %q, want %q", cfg.RuntimeVersion, RuntimeVersion)
	}
}
