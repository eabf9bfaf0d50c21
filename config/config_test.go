package config

import "testing"

func TestLoadRequiresKey(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without DEEPGRAM_API_KEY")
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("VOXREC_DATA_PATH", "/tmp/voxrec-data")
	t.Setenv("VOXREC_LANGUAGE", "en")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DeepgramKey != "dg-test" {
		t.Errorf("DeepgramKey = %q", cfg.DeepgramKey)
	}
	if cfg.DataDir != "/tmp/voxrec-data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q", cfg.Language)
	}
}

func TestLoadDefaultDataDir(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("VOXREC_DATA_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir == "" {
		t.Error("expected non-empty default data dir")
	}
}
